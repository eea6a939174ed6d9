package datapointexport

import (
	"math"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
)

// statPrecision is how close, in seconds, a monitor evaluation must be to a
// datapoint to belong to it.
const statPrecision = 0.001

type DatapointRow struct {
	WorkspaceUUID     string   `csv:"workspaceUuid"`
	MetricUUID        string   `csv:"metricUuid"`
	EventTs           float64  `csv:"eventTs"`
	Slice             string   `csv:"slice"`
	Value             *float64 `csv:"value"`
	RecordedTs        *float64 `csv:"recordedTs"`
	MetricID          int64    `csv:"metricId"`
	MetricName        string   `csv:"metricName"`
	MetricDimension   string   `csv:"metricDimension"`
	SourceUUID        string   `csv:"sourceUuid"`
	SourceName        string   `csv:"sourceName"`
	SchemaName        string   `csv:"schemaName"`
	TableName         string   `csv:"tableName"`
	ColumnName        string   `csv:"columnName"`
	MonitorUUID       string   `csv:"monitorUuid"`
	MonitorName       string   `csv:"monitorName"`
	MonitoredValue    *float64 `csv:"monitoredValue"`
	MonitorLowerBound *float64 `csv:"monitorLowerBound"`
	MonitorUpperBound *float64 `csv:"monitorUpperBound"`
	IncidentExists    *bool    `csv:"incidentExists"`
}

// MonitorData is what a monitor produced over the export window.
type MonitorData struct {
	Monitor   api.Monitor
	Stats     []api.FilterStat
	Incidents []api.Incident
}

// IncidentExists reports whether an incident of monitorUUID on the
// datapoint's slice covers its event time.
func IncidentExists(dp api.Datapoint, incidents []api.Incident, monitorUUID string) bool {
	for _, incident := range incidents {
		if incident.FilterUUID != monitorUUID || !incident.Slice.Equal(dp.Slice) {
			continue
		}
		if incident.Covers(dp.EventTs) {
			return true
		}
	}
	return false
}

// join fills the monitor columns from the evaluation of dp, if the monitor
// evaluated it.
func join(row *DatapointRow, dp api.Datapoint, data MonitorData) {
	for _, stat := range data.Stats {
		if !stat.Slice.Equal(dp.Slice) || math.Abs(dp.EventTs-stat.Time) >= statPrecision {
			continue
		}
		row.MonitoredValue = stat.FilteredObsVal.Ptr()
		row.MonitorLowerBound = stat.LowerExpLimit.Ptr()
		row.MonitorUpperBound = stat.UpperExpLimit.Ptr()
		exists := IncidentExists(dp, data.Incidents, stat.FilterUUID)
		row.IncidentExists = &exists
	}
}

// Rows annotates the datapoints of one metric. A datapoint yields one row per
// monitor on the metric, or a single row without monitor columns when the
// metric has no monitors.
func Rows(ws api.Workspace, metric api.Metric, sourceName string, points []api.Datapoint, monitors []MonitorData) []DatapointRow {
	table := metric.Config.TableOrEmpty()
	base := DatapointRow{
		WorkspaceUUID:   ws.UUID,
		MetricUUID:      metric.Metadata.UUID,
		MetricID:        metric.Metadata.IDSerial,
		MetricName:      metric.Metadata.Name,
		MetricDimension: metric.Config.Dimension,
		SourceUUID:      metric.Config.SourceUUID(),
		SourceName:      sourceName,
		SchemaName:      table.SchemaName,
		TableName:       table.TableName,
	}
	if len(metric.Config.ValueColumns) > 0 {
		base.ColumnName = metric.Config.ValueColumns[0].ColumnName
	}

	var rows []DatapointRow
	for _, dp := range points {
		row := base
		row.EventTs = dp.EventTs
		row.Slice = dp.Slice.String()
		row.Value = dp.Value.Ptr()
		row.RecordedTs = dp.RecordedTs

		if len(monitors) == 0 {
			rows = append(rows, row)
			continue
		}
		for _, data := range monitors {
			monitorRow := row
			monitorRow.MonitorUUID = data.Monitor.Metadata.UUID
			monitorRow.MonitorName = data.Monitor.Metadata.Name
			join(&monitorRow, dp, data)
			rows = append(rows, monitorRow)
		}
	}
	return rows
}
