package profiler

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightup-data/lightup-tools/pkg/apitest"
	"github.com/lightup-data/lightup-tools/pkg/config"
	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func newClient(t *testing.T, fake *apitest.Lightup) client.LightupServiceClient {
	t.Helper()
	hc := httpclient.New(config.HttpClient{Timeout: 10 * time.Second}, zap.NewNop())
	return client.NewLightupServiceClient(fake.URL(), fake.RefreshToken, hc)
}

func table(t *testing.T, raw string) api.Table {
	t.Helper()
	var tbl api.Table
	require.NoError(t, json.Unmarshal([]byte(raw), &tbl))
	return tbl
}

func TestLoadTableList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("public:\n  - orders\n  - customers\nsales:\n  - invoices\n"), 0o600))

	tables, err := LoadTableList(path)
	require.NoError(t, err)
	assert.Equal(t, TableList{"public": {"orders", "customers"}, "sales": {"invoices"}}, tables)

	_, err = LoadTableList(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnableSkipsMissingTables(t *testing.T) {
	fake := apitest.NewLightup(t)
	fake.Tables["src-1"] = []api.Table{
		{UUID: "t-orders", SchemaName: "public", TableName: "orders"},
		{UUID: "t-invoices", SchemaName: "sales", TableName: "invoices"},
	}
	job := EnableJob{
		WorkspaceID:     "ws-1",
		SourceID:        "src-1",
		Tables:          TableList{"public": {"orders", "ghost"}, "sales": {"invoices"}},
		TimestampColumn: "updated_at",
		Window:          DefaultWindow,
	}

	result, err := job.Do(context.Background(), newClient(t, fake), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"public.orders", "sales.invoices"}, result.Enabled)
	assert.Equal(t, []string{"public.ghost"}, result.Missing)

	require.Contains(t, fake.ProfilerConfigs, "t-orders")
	cfg := gjson.ParseBytes(fake.ProfilerConfigs["t-orders"])
	assert.True(t, cfg.Get("enabled").Bool())
	assert.Equal(t, "updated_at", cfg.Get("timestampColumn").String())
	assert.Equal(t, "hour", cfg.Get("window").String())
	assert.False(t, cfg.Get("tableSchemaChange.enabled").Bool())
	assert.True(t, cfg.Get("dataDelay.enabled").Bool())
	assert.True(t, cfg.Get("volume.enabled").Bool())
}

func TestEnableDryRunWritesNothing(t *testing.T) {
	fake := apitest.NewLightup(t)
	fake.Tables["src-1"] = []api.Table{{UUID: "t-orders", SchemaName: "public", TableName: "orders"}}
	job := EnableJob{WorkspaceID: "ws-1", SourceID: "src-1", Tables: TableList{"public": {"orders"}}, TimestampColumn: "ts", Window: "day", DryRun: true}

	result, err := job.Do(context.Background(), newClient(t, fake), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"public.orders"}, result.Enabled)
	assert.Empty(t, fake.ProfilerConfigs)
}

func TestReconcileTimezones(t *testing.T) {
	fake := apitest.NewLightup(t)
	fake.Tables["src-1"] = []api.Table{
		table(t, `{"uuid":"t-1","schemaName":"public","tableName":"orders","profilerConfig":{"enabled":true,"timezone":"UTC","dataTimezone":"America/New_York","timestampColumn":"created_at","window":"hour","volume":{"enabled":true}}}`),
		table(t, `{"uuid":"t-2","schemaName":"public","tableName":"aligned","profilerConfig":{"enabled":true,"timezone":"UTC","dataTimezone":"UTC","timestampColumn":"ts"}}`),
		table(t, `{"uuid":"t-3","schemaName":"public","tableName":"disabled","profilerConfig":{"enabled":false,"timezone":"UTC","dataTimezone":"Europe/Paris"}}`),
	}
	fake.Columns["t-1"] = []api.Column{
		{UUID: "c-1", ColumnName: "id", ColumnType: "int"},
		{UUID: "c-2", ColumnName: "created_at", ColumnType: "timestamp_ntz"},
	}

	var out bytes.Buffer
	job := ReconcileJob{WorkspaceID: "ws-1", SourceIDs: []string{"src-1"}}
	mismatches, err := job.Do(context.Background(), newClient(t, fake), &out, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, mismatches, 1)
	assert.Equal(t, "t-1", mismatches[0].Table.UUID)
	assert.Equal(t, "timestamp_ntz", mismatches[0].TimestampColumnType)
	assert.Contains(t, out.String(), "America/New_York")
	assert.Contains(t, out.String(), "timestamp_ntz")

	require.Contains(t, fake.ProfilerConfigs, "t-1")
	cfg := gjson.ParseBytes(fake.ProfilerConfigs["t-1"])
	assert.Equal(t, "UTC", cfg.Get("dataTimezone").String())
	assert.True(t, cfg.Get("volume.enabled").Bool(), "unknown fields are kept")
	assert.NotContains(t, fake.ProfilerConfigs, "t-2")
	assert.NotContains(t, fake.ProfilerConfigs, "t-3")
}

func TestReconcileDryRunOnlyPrints(t *testing.T) {
	fake := apitest.NewLightup(t)
	fake.Tables["src-1"] = []api.Table{
		table(t, `{"uuid":"t-1","schemaName":"public","tableName":"orders","profilerConfig":{"enabled":true,"timezone":"UTC","dataTimezone":"Asia/Tokyo","timestampColumn":"created_at"}}`),
	}

	var out bytes.Buffer
	job := ReconcileJob{WorkspaceID: "ws-1", SourceIDs: []string{"src-1"}, DryRun: true}
	mismatches, err := job.Do(context.Background(), newClient(t, fake), &out, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, mismatches, 1)
	assert.Contains(t, out.String(), "Asia/Tokyo")
	assert.Empty(t, fake.ProfilerConfigs)
}
