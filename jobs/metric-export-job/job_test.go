package metricexport

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lightup-data/lightup-tools/pkg/apitest"
	"github.com/lightup-data/lightup-tools/pkg/config"
	"github.com/lightup-data/lightup-tools/pkg/export"
	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr(f float64) *float64 { return &f }

func metric(uuid string, configType api.MetricConfigType) api.Metric {
	return api.Metric{
		Metadata: api.MetricMetadata{UUID: uuid, Name: uuid + " name", IDSerial: 7, CreationType: api.MetricCreationTypeManual, Tags: []string{"finance"}},
		Config: api.MetricConfig{
			ConfigType: configType,
			Sources:    []string{"src-1"},
			Table: &api.MetricTable{
				Type: api.TableTypeTable, SchemaName: "public", SchemaUUID: "s-1", TableName: "orders", TableUUID: "t-1",
			},
			ValueColumns:   []api.ValueColumn{{ColumnName: "amount", ColumnUUID: "c-1"}},
			Dimension:      "completeness",
			IsLive:         true,
			CollectionMode: &api.CollectionMode{Type: "scheduled"},
		},
		Status: api.MetricStatus{LastSampleTs: ptr(1700000000), RunStatus: "ok"},
	}
}

func TestRows(t *testing.T) {
	ws := api.Workspace{UUID: "ws-1", Name: "Analytics"}
	sources := []api.Source{{Metadata: api.SourceMetadata{UUID: "src-1", Name: "warehouse"}}}
	metrics := []api.Metric{metric("m-1", api.MetricConfigTypeMetric), metric("m-compare", "compareMetricConfig")}
	monitors := []api.Monitor{
		{Metadata: api.MonitorMetadata{UUID: "mon-1", Name: "nulls", IDSerial: 3}, Config: api.MonitorConfig{Metrics: []string{"m-1"}, IsLive: true}},
		{Metadata: api.MonitorMetadata{UUID: "mon-2", Name: "compare"}, Config: api.MonitorConfig{Metrics: []string{"m-compare"}}},
	}

	rows, err := Rows(ws, sources, metrics, monitors)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "warehouse", row.SourceName)
	assert.Equal(t, "amount", row.ColumnName)
	assert.Equal(t, "scheduled", row.CollectionMode)
	assert.Equal(t, `["finance"]`, row.MetricTags)
	assert.Nil(t, row.MetricConfigUpdatedTs)

	var summaries []MonitorSummary
	require.NoError(t, json.Unmarshal([]byte(row.Monitors), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "mon-1", summaries[0].MonitorUUID)
	assert.Equal(t, int64(3), summaries[0].MonitorID)
}

func TestJobWritesOneFilePerWorkspace(t *testing.T) {
	fake := apitest.NewLightup(t)
	fake.Workspaces = []api.Workspace{{UUID: "ws-1", Name: "Analytics"}, {UUID: "ws-empty", Name: "Empty"}}
	fake.Sources["ws-1"] = []api.Source{{Metadata: api.SourceMetadata{UUID: "src-1", Name: "warehouse"}}}
	fake.Metrics["ws-1"] = []api.Metric{metric("m-1", api.MetricConfigTypeMetric), metric("m-2", api.MetricConfigTypeFullTable)}

	hc := httpclient.New(config.HttpClient{Timeout: 10 * time.Second}, zap.NewNop())
	lightup := client.NewLightupServiceClient(fake.URL(), fake.RefreshToken, hc)
	fs := afero.NewMemMapFs()

	job := Job{Now: func() time.Time { return time.Unix(1700000000, 0) }}
	require.NoError(t, job.Do(context.Background(), lightup, export.NewFileSink(fs, "/out"), zap.NewNop()))

	data, err := afero.ReadFile(fs, "/out/1700000000/ws-1.csv")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"workspaceId", "workspaceName", "metricName", "metricUuid", "metricId", "metricCreationType",
		"metricDescription", "metricTags", "metricDimension", "metricConfigType", "sourceUuid", "sourceName",
		"schemaName", "tableName", "schemaUuid", "tableUuid", "collectionMode", "columnName", "columnUuid",
		"metricIsLive", "metricLastSampleTs", "metricConfigUpdatedTs", "metricRunStatus", "monitors",
	}, records[0])
	assert.Equal(t, "m-1", records[1][3])
	assert.Equal(t, "[]", records[1][23])

	exists, err := afero.Exists(fs, "/out/1700000000/ws-empty.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}
