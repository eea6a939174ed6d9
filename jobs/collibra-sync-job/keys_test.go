package collibrasync

import (
	"testing"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	src := source("src-1", "warehouse", "sales")
	m := columnMetric("m-1", "amount nulls", "src-1", "public", "orders", "amount")

	key := NewObjectKey("cs-1", assetDetails(src, m))
	assert.Equal(t, ObjectKey{CatalogSourceID: "cs-1", Database: "sales", Schema: "public", Table: "orders", Column: "amount"}, key)
	assert.Equal(t, []string{"cs-1", "sales", "public", "orders", "amount"}, key.Segments())
	assert.Equal(t, "cs-1.sales.public.orders.amount", key.String())
}

func TestObjectKeyWithoutDatabase(t *testing.T) {
	src := source("src-1", "files", "")
	m := columnMetric("m-1", "amount nulls", "src-1", "landing", "orders", "amount")

	key := NewObjectKey("cs-1", assetDetails(src, m))
	assert.Equal(t, []string{"cs-1", "landing", "orders", "amount"}, key.Segments())
	assert.Equal(t, "cs-1.landing.orders.amount", key.String())
}

func TestObjectKeyCatalogFallback(t *testing.T) {
	src := source("src-1", "lake", "")
	src.Config.Connection.Catalog = "hive"
	m := columnMetric("m-1", "amount nulls", "src-1", "public", "orders", "amount")

	assert.Equal(t, "hive", assetDetails(src, m).DBName)
}

func TestAssetDetailsColumns(t *testing.T) {
	src := source("src-1", "warehouse", "sales")

	custom := columnMetric("m-1", "custom", "src-1", "public", "orders", "ignored")
	custom.Config.Table.Type = api.TableTypeCustomSQL
	custom.Config.Table.ColumnName = "total"
	custom.Config.Table.ColumnUUID = "total-uuid"
	d := assetDetails(src, custom)
	assert.Equal(t, "total", d.ColumnName)
	assert.Equal(t, "total-uuid", d.ColumnUUID)

	fullTable := columnMetric("m-2", "row count", "src-1", "public", "orders", "")
	fullTable.Config.ConfigType = api.MetricConfigTypeFullTable
	fullTable.Config.ValueColumns = nil
	d = assetDetails(src, fullTable)
	assert.Empty(t, d.ColumnName)
	assert.Equal(t, "orders", d.TableName)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusHealthy, StatusOf(0, 0))
	assert.Equal(t, StatusWarning, StatusOf(3, 0))
	assert.Equal(t, StatusIssue, StatusOf(3, 1))
}

func TestBadge(t *testing.T) {
	assert.Equal(t,
		`<div style="background-color: red; width: 100.0px; padding: 3.0px; text-align: center; color: white; font-weight: bold;">Issue</div>`,
		StatusIssue.Badge())
	assert.Contains(t, StatusHealthy.Badge(), "background-color: green")
	assert.Contains(t, StatusWarning.Badge(), ">Warning<")
	assert.Equal(t, `<a href="https://x/#/ws/w/profiler" target="_blank">View</a>`, viewLink("https://x/#/ws/w/profiler"))
}

func TestURLs(t *testing.T) {
	assert.Equal(t,
		"https://app.lightup.ai/#/ws/ws-1/profiler?dataSourceUuid=src-1&metricUuid=m-1",
		MetricURL("https://app.lightup.ai/", "ws-1", "src-1", "m-1"))
	assert.Equal(t,
		"https://app.lightup.ai/#/ws/ws-1/profiler?dataSourceUuid=src-1&tableUuid=t-1&schemaUuid=s-1&columnUuid=c-1&tabKey=autoMetrics",
		ExplorerURL("app.lightup.ai", "ws-1", "src-1", "s-1", "t-1", "c-1"))
	assert.Equal(t,
		"https://app.lightup.ai/#/ws/ws-1/profiler?dataSourceUuid=src-1&tableUuid=t-1&schemaUuid=s-1&tabKey=autoMetrics",
		ExplorerURL("app.lightup.ai", "ws-1", "src-1", "s-1", "t-1", ""))
	assert.Equal(t,
		"https://x/#/ws/w/profiler?dataSourceUuid=a+b&metricUuid=m%261",
		MetricURL("x", "w", "a b", "m&1"))
}
