package concurrency

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkPoolKeepsOrder(t *testing.T) {
	pool := NewWorkPool[int](4)
	var running atomic.Int32
	for i := 0; i < 20; i++ {
		i := i
		pool.AddJob(func() (int, error) {
			running.Add(1)
			defer running.Add(-1)
			return i * i, nil
		})
	}

	results := pool.Run()
	require.Len(t, results, 20)
	for i, r := range results {
		require.NoError(t, r.Error)
		assert.Equal(t, i*i, r.Value)
	}
	assert.Zero(t, running.Load())
}

func TestWorkPoolErrorsAndPanics(t *testing.T) {
	pool := NewWorkPool[string](0)
	pool.AddJob(func() (string, error) { return "ok", nil })
	pool.AddJob(func() (string, error) { return "", errors.New("boom") })
	pool.AddJob(func() (string, error) { panic("bad") })

	results := pool.Run()
	require.Len(t, results, 3)
	assert.Equal(t, "ok", results[0].Value)
	assert.EqualError(t, results[1].Error, "boom")
	assert.ErrorContains(t, results[2].Error, "paniced with bad")
}

func TestWorkPoolEmpty(t *testing.T) {
	assert.Empty(t, NewWorkPool[int](2).Run())
}
