package collibrasync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var SyncRunsCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lightup_tools",
	Subsystem: "collibra_sync",
	Name:      "runs_total",
	Help:      "Count of collibra sync runs",
}, []string{"status"})

var SyncRunsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lightup_tools",
	Subsystem: "collibra_sync",
	Name:      "run_duration_seconds",
	Help:      "Duration of collibra sync runs",
	Buckets:   []float64{5, 30, 60, 300, 600, 1800, 3600},
}, []string{"status"})

var SyncAssetsCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lightup_tools",
	Subsystem: "collibra_sync",
	Name:      "assets_total",
	Help:      "Count of monitor assets handled by collibra sync",
}, []string{"collibra_source_id", "status"})

var SyncRelationsCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lightup_tools",
	Subsystem: "collibra_sync",
	Name:      "relations_total",
	Help:      "Count of table relations changed by collibra sync",
}, []string{"collibra_source_id", "operation"})

func observe(catalogSourceID string, r SyncResult) {
	SyncAssetsCount.WithLabelValues(catalogSourceID, "created").Add(float64(r.AssetsCreated))
	SyncAssetsCount.WithLabelValues(catalogSourceID, "skipped").Add(float64(r.AssetsSkipped))
	SyncAssetsCount.WithLabelValues(catalogSourceID, "orphan_deleted").Add(float64(r.OrphansDeleted))
	SyncRelationsCount.WithLabelValues(catalogSourceID, "deleted").Add(float64(r.RelationsDeleted))
	SyncRelationsCount.WithLabelValues(catalogSourceID, "linked").Add(float64(r.TablesLinked))
}

// Push sends the sync metrics to a Prometheus push gateway.
func Push(address string) error {
	return push.New(address, "collibra-sync").
		Collector(SyncRunsCount).
		Collector(SyncRunsDuration).
		Collector(SyncAssetsCount).
		Collector(SyncRelationsCount).
		Push()
}
