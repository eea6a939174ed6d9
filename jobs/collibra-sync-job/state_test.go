package collibrasync

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func TestMetricInfoMapExcludesUnlocatedMetrics(t *testing.T) {
	sources := []api.Source{source("src-1", "warehouse", "sales")}

	compare := columnMetric("m-compare", "compare", "src-1", "public", "orders", "amount")
	compare.Config.ConfigType = "compareMetricConfig"
	orphan := columnMetric("m-orphan", "orphan", "src-unknown", "public", "orders", "amount")
	kept := columnMetric("m-kept", "kept", "src-1", "public", "orders", "amount")
	kept.Metadata.CreationType = api.MetricCreationTypeAuto

	infos := MetricInfoMap(sources, []api.Metric{compare, orphan, kept})
	require.Len(t, infos, 1)
	info := infos["m-kept"]
	assert.Equal(t, "kept", info.MetricName)
	assert.True(t, info.IsAutoMetric)
	assert.Equal(t, "src-1", info.SourceUUID)
	assert.Equal(t, "sales", info.DBName)
}

func TestMonitorInfoMapExcludesMonitorsWithoutMetric(t *testing.T) {
	metricInfos := MetricInfoMap(
		[]api.Source{source("src-1", "warehouse", "sales")},
		[]api.Metric{columnMetric("m-1", "nulls", "src-1", "public", "orders", "amount")},
	)
	ws := api.Workspace{UUID: "ws-1", Name: "Analytics"}

	infos := MonitorInfoMap([]api.Monitor{
		monitor("mon-1", "nulls monitor", "m-1"),
		monitor("mon-2", "compare monitor", "m-compare"),
	}, metricInfos, ws, "cs-1")

	require.Len(t, infos, 1)
	info := infos["mon-1"]
	assert.Equal(t, "Analytics", info.WorkspaceName)
	assert.Equal(t, "cs-1.sales.public.orders.amount", info.Key.String())
	assert.Zero(t, info.IncidentCount)
	assert.Zero(t, info.OngoingIncidentCount)
}

func TestCountIncidents(t *testing.T) {
	infos := map[string]*MonitorInfo{"mon-1": {MonitorUUID: "mon-1"}}
	CountIncidents(infos, []api.Incident{
		incident("mon-1", now, false),
		incident("mon-1", now, true),
		incident("mon-other", now, true),
	})
	assert.Equal(t, 2, infos["mon-1"].IncidentCount)
	assert.Equal(t, 1, infos["mon-1"].OngoingIncidentCount)
}

func TestTableInfoMapKeepsEveryMonitor(t *testing.T) {
	sources := []api.Source{source("src-1", "warehouse", "sales")}
	metrics := []api.Metric{
		columnMetric("m-nulls", "amount nulls", "src-1", "public", "orders", "amount"),
		columnMetric("m-distinct", "amount distinct", "src-1", "public", "orders", "amount"),
	}
	monitors := []api.Monitor{
		monitor("mon-b", "distinct monitor", "m-distinct"),
		monitor("mon-a", "nulls monitor", "m-nulls"),
	}
	ws := api.Workspace{UUID: "ws-1", Name: "Analytics"}

	monitorInfos := MonitorInfoMap(monitors, MetricInfoMap(sources, metrics), ws, "cs-1")
	CountIncidents(monitorInfos, []api.Incident{incident("mon-a", now, false)})
	tables := TableInfoMap(monitorInfos, "app.lightup.ai")

	require.Len(t, tables, 1)
	key := ObjectKey{CatalogSourceID: "cs-1", Database: "sales", Schema: "public", Table: "orders", Column: "amount"}
	infos := tables[key]
	require.Len(t, infos, 2)
	assert.Equal(t, "mon-a", infos[0].MonitorUUID)
	assert.Equal(t, 1, infos[0].IncidentCount)
	assert.Equal(t, "mon-b", infos[1].MonitorUUID)
	assert.Equal(t, 0, infos[1].IncidentCount)
	assert.Equal(t, "https://app.lightup.ai/#/ws/ws-1/profiler?dataSourceUuid=src-1&metricUuid=m-nulls", infos[0].URL)
}

func TestTableInfoMapSplitsColumns(t *testing.T) {
	sources := []api.Source{source("src-1", "warehouse", "sales")}
	metrics := []api.Metric{
		columnMetric("m-amount", "amount nulls", "src-1", "public", "orders", "amount"),
		columnMetric("m-status", "status nulls", "src-1", "public", "orders", "status"),
	}
	monitors := []api.Monitor{
		monitor("mon-amount", "amount monitor", "m-amount"),
		monitor("mon-status", "status monitor", "m-status"),
	}
	monitorInfos := MonitorInfoMap(monitors, MetricInfoMap(sources, metrics), api.Workspace{UUID: "ws-1"}, "cs-1")
	tables := TableInfoMap(monitorInfos, "app.lightup.ai")

	keys := SortedKeys(tables)
	require.Len(t, keys, 2)
	assert.Equal(t, "amount", keys[0].Column)
	assert.Equal(t, "status", keys[1].Column)
}

func TestAutoMetricLinksToExplorer(t *testing.T) {
	m := columnMetric("m-1", "auto", "src-1", "public", "orders", "amount")
	m.Metadata.CreationType = api.MetricCreationTypeAuto
	monitorInfos := MonitorInfoMap(
		[]api.Monitor{monitor("mon-1", "auto monitor", "m-1")},
		MetricInfoMap([]api.Source{source("src-1", "warehouse", "sales")}, []api.Metric{m}),
		api.Workspace{UUID: "ws-1"}, "cs-1",
	)
	assert.Equal(t,
		"https://app.lightup.ai/#/ws/ws-1/profiler?columnUuid=amount-uuid&dataSourceUuid=src-1&schemaUuid=public-uuid&tabKey=autoMetrics&tableUuid=orders-uuid",
		monitorInfos["mon-1"].URL("app.lightup.ai"))
}

func newTestFetcher(f fakes) *Fetcher {
	return NewFetcher(f.lightupClient, zap.NewNop(), noop.NewTracerProvider().Tracer("test"), DefaultLookback, func() time.Time { return now })
}

func seedWorkspace(f fakes) {
	f.lightup.Workspaces = []api.Workspace{{UUID: workspaceID, Name: "Analytics"}}
	f.lightup.Sources[workspaceID] = []api.Source{
		source(sourceID, "warehouse", "sales"),
		source(otherSourceID, "unmapped", "crm"),
	}
	f.lightup.Metrics[workspaceID] = []api.Metric{
		columnMetric("m-nulls", "amount nulls", sourceID, "public", "orders", "amount"),
		columnMetric("m-distinct", "amount distinct", sourceID, "public", "orders", "amount"),
		columnMetric("m-crm", "crm nulls", otherSourceID, "public", "accounts", "id"),
	}
	f.lightup.Monitors[workspaceID] = []api.Monitor{
		monitor("mon-a", "nulls monitor", "m-nulls"),
		monitor("mon-b", "distinct monitor", "m-distinct"),
		monitor("mon-crm", "crm monitor", "m-crm"),
	}
	f.lightup.Incidents[workspaceID] = []api.Incident{
		incident("mon-a", now.Add(-time.Hour), true),
		incident("mon-a", now.Add(-30*24*time.Hour), false),
	}
}

func TestFetcherLightupState(t *testing.T) {
	f := newFakes(t)
	seedWorkspace(f)

	tables, err := newTestFetcher(f).LightupState(context.Background(), workspaceID, []string{sourceID}, catalogSourceID)
	require.NoError(t, err)

	require.Len(t, tables, 1)
	infos := tables[ObjectKey{CatalogSourceID: catalogSourceID, Database: "sales", Schema: "public", Table: "orders", Column: "amount"}]
	require.Len(t, infos, 2)
	assert.Equal(t, "Analytics", infos[0].WorkspaceName)
	assert.Equal(t, 1, infos[0].IncidentCount, "incident outside the lookback window is not counted")
	assert.Equal(t, 1, infos[0].OngoingIncidentCount)
	assert.Zero(t, infos[1].IncidentCount)
}

func TestFetcherMissingWorkspace(t *testing.T) {
	f := newFakes(t)
	seedWorkspace(f)

	_, err := newTestFetcher(f).LightupState(context.Background(), "c9effbee-69cb-45d5-9a29-9e1a0d6462bc", []string{sourceID}, catalogSourceID)
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestFetcherIncidentFailureIsNotEmpty(t *testing.T) {
	f := newFakes(t)
	seedWorkspace(f)
	f.lightup.FailPaths["/api/v1/ws/"+workspaceID+"/incidents"] = http.StatusInternalServerError

	_, err := newTestFetcher(f).LightupState(context.Background(), workspaceID, []string{sourceID}, catalogSourceID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list incidents")
}
