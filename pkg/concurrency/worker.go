package concurrency

import (
	"fmt"
	"sync"
)

type Work[T any] func() (T, error)

type Result[T any] struct {
	Value T
	Error error
}

type indexedWork[T any] struct {
	index int
	work  Work[T]
}

type indexedResult[T any] struct {
	index  int
	result Result[T]
}

// WorkPool runs the added jobs on a fixed number of goroutines.
type WorkPool[T any] struct {
	workChannel   chan indexedWork[T]
	resultChannel chan indexedResult[T]
	wg            sync.WaitGroup
	workerCount   int
	works         []Work[T]
}

func NewWorkPool[T any](workerCount int) *WorkPool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkPool[T]{workerCount: workerCount}
}

func (w *WorkPool[T]) AddJob(job Work[T]) {
	w.works = append(w.works, job)
}

// Run blocks until every job finished. Results are in the order the jobs
// were added; a panicking job yields an error result.
func (w *WorkPool[T]) Run() []Result[T] {
	w.workChannel = make(chan indexedWork[T], len(w.works))
	w.resultChannel = make(chan indexedResult[T], len(w.works))

	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.worker()
	}
	for i, work := range w.works {
		w.workChannel <- indexedWork[T]{index: i, work: work}
	}
	close(w.workChannel)

	r := make([]Result[T], len(w.works))
	for range w.works {
		res := <-w.resultChannel
		r[res.index] = res.result
	}
	w.wg.Wait()
	close(w.resultChannel)
	w.works = nil
	return r
}

func (w *WorkPool[T]) worker() {
	defer w.wg.Done()
	for job := range w.workChannel {
		v, err := func() (v T, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("paniced with %v", r)
				}
			}()
			return job.work()
		}()
		w.resultChannel <- indexedResult[T]{index: job.index, result: Result[T]{Value: v, Error: err}}
	}
}
