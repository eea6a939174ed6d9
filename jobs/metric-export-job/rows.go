package metricexport

import (
	"encoding/json"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/samber/lo"
)

// MetricRow is one line of a metric export. Column order is fixed.
type MetricRow struct {
	WorkspaceID           string   `csv:"workspaceId"`
	WorkspaceName         string   `csv:"workspaceName"`
	MetricName            string   `csv:"metricName"`
	MetricUUID            string   `csv:"metricUuid"`
	MetricID              int64    `csv:"metricId"`
	MetricCreationType    string   `csv:"metricCreationType"`
	MetricDescription     string   `csv:"metricDescription"`
	MetricTags            string   `csv:"metricTags"`
	MetricDimension       string   `csv:"metricDimension"`
	MetricConfigType      string   `csv:"metricConfigType"`
	SourceUUID            string   `csv:"sourceUuid"`
	SourceName            string   `csv:"sourceName"`
	SchemaName            string   `csv:"schemaName"`
	TableName             string   `csv:"tableName"`
	SchemaUUID            string   `csv:"schemaUuid"`
	TableUUID             string   `csv:"tableUuid"`
	CollectionMode        string   `csv:"collectionMode"`
	ColumnName            string   `csv:"columnName"`
	ColumnUUID            string   `csv:"columnUuid"`
	MetricIsLive          bool     `csv:"metricIsLive"`
	MetricLastSampleTs    *float64 `csv:"metricLastSampleTs"`
	MetricConfigUpdatedTs *float64 `csv:"metricConfigUpdatedTs"`
	MetricRunStatus       string   `csv:"metricRunStatus"`
	Monitors              string   `csv:"monitors"`
}

// MonitorSummary is the JSON form of a monitor in the monitors column.
type MonitorSummary struct {
	MonitorName            string   `json:"monitorName"`
	MonitorUUID            string   `json:"monitorUuid"`
	MonitorID              int64    `json:"monitorId"`
	MonitorTags            []string `json:"monitorTags"`
	MonitorIsLive          bool     `json:"monitorIsLive"`
	MonitorLiveStartTs     *float64 `json:"monitorLiveStartTs"`
	MonitorLastSampleTs    *float64 `json:"monitorLastSampleTs"`
	MonitorRunStatus       string   `json:"monitorRunStatus"`
	MonitorConfigUpdatedTs *float64 `json:"monitorConfigUpdatedTs"`
}

func summarize(m api.Monitor) MonitorSummary {
	return MonitorSummary{
		MonitorName:            m.Metadata.Name,
		MonitorUUID:            m.Metadata.UUID,
		MonitorID:              m.Metadata.IDSerial,
		MonitorTags:            lo.Ternary(m.Metadata.Tags == nil, []string{}, m.Metadata.Tags),
		MonitorIsLive:          m.Config.IsLive,
		MonitorLiveStartTs:     m.Config.LiveStartTs,
		MonitorLastSampleTs:    m.Status.LastSampleTs,
		MonitorRunStatus:       m.Status.RunStatus,
		MonitorConfigUpdatedTs: m.Status.ConfigUpdatedTs,
	}
}

func jsonString(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Rows builds the export of one workspace, ordered as the metrics are listed.
// Compare and derived metrics, and the monitors on them, are left out.
func Rows(ws api.Workspace, sources []api.Source, metrics []api.Metric, monitors []api.Monitor) ([]MetricRow, error) {
	sourceNames := lo.SliceToMap(sources, func(s api.Source) (string, string) { return s.Metadata.UUID, s.Metadata.Name })
	byMetric := lo.GroupBy(monitors, func(m api.Monitor) string { return m.MetricUUID() })

	var rows []MetricRow
	for _, metric := range metrics {
		if !metric.Config.HasPhysicalLocation() {
			continue
		}
		table := metric.Config.TableOrEmpty()

		tags, err := jsonString(lo.Ternary(metric.Metadata.Tags == nil, []string{}, metric.Metadata.Tags))
		if err != nil {
			return nil, err
		}
		monitorJSON, err := jsonString(lo.Map(byMetric[metric.Metadata.UUID], func(m api.Monitor, _ int) MonitorSummary { return summarize(m) }))
		if err != nil {
			return nil, err
		}

		row := MetricRow{
			WorkspaceID:           ws.UUID,
			WorkspaceName:         ws.Name,
			MetricName:            metric.Metadata.Name,
			MetricUUID:            metric.Metadata.UUID,
			MetricID:              metric.Metadata.IDSerial,
			MetricCreationType:    string(metric.Metadata.CreationType),
			MetricDescription:     metric.Metadata.Description,
			MetricTags:            tags,
			MetricDimension:       metric.Config.Dimension,
			MetricConfigType:      string(metric.Config.ConfigType),
			SourceUUID:            metric.Config.SourceUUID(),
			SourceName:            sourceNames[metric.Config.SourceUUID()],
			SchemaName:            table.SchemaName,
			TableName:             table.TableName,
			SchemaUUID:            table.SchemaUUID,
			TableUUID:             table.TableUUID,
			MetricIsLive:          metric.Config.IsLive,
			MetricLastSampleTs:    metric.Status.LastSampleTs,
			MetricConfigUpdatedTs: metric.Status.ConfigUpdatedTs,
			MetricRunStatus:       metric.Status.RunStatus,
			Monitors:              monitorJSON,
		}
		if len(metric.Config.ValueColumns) > 0 {
			row.ColumnName = metric.Config.ValueColumns[0].ColumnName
			row.ColumnUUID = metric.Config.ValueColumns[0].ColumnUUID
		}
		if metric.Config.CollectionMode != nil {
			row.CollectionMode = metric.Config.CollectionMode.Type
		}
		rows = append(rows, row)
	}
	return rows, nil
}
