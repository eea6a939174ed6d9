package metric

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/olekukonko/tablewriter"
)

type HealthStatus string

const (
	HealthNotStarted HealthStatus = "NOT STARTED"
	HealthHealthy    HealthStatus = "HEALTHY"
	HealthUnhealthy  HealthStatus = "UNHEALTHY"
)

type MonitorHealth struct {
	MetricName  string
	Location    string
	MonitorUUID string
	MonitorName string
	// ProcessedUntil is the last datapoint the monitor evaluated.
	ProcessedUntil time.Time
	// Complete is true once the monitor evaluated past the end of the window.
	Complete  bool
	Incidents int
	Status    HealthStatus
}

type HealthJob struct {
	WorkspaceID string
	Start       time.Time
	End         time.Time
}

// Do reports, for every live monitor, how far into the window it processed
// and whether it raised incidents there.
func (j HealthJob) Do(ctx context.Context, lightup client.LightupServiceClient) ([]MonitorHealth, error) {
	metrics, err := lightup.ListMetrics(ctx, j.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	monitors, err := lightup.ListMonitors(ctx, j.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	byMetric := map[string][]api.Monitor{}
	for _, m := range monitors {
		if m.Config.IsLive {
			byMetric[m.MetricUUID()] = append(byMetric[m.MetricUUID()], m)
		}
	}

	var report []MonitorHealth
	for _, metric := range metrics {
		for _, m := range byMetric[metric.Metadata.UUID] {
			h := MonitorHealth{
				MetricName:  metric.Metadata.Name,
				Location:    location(metric.Config),
				MonitorUUID: m.Metadata.UUID,
				MonitorName: m.Metadata.Name,
				Status:      HealthNotStarted,
			}
			var last float64
			if m.Status.LastSampleTs != nil {
				last = *m.Status.LastSampleTs
			}
			h.ProcessedUntil = time.Unix(int64(last), 0).UTC()
			if last < float64(j.Start.Unix()) {
				report = append(report, h)
				continue
			}
			h.Complete = last > float64(j.End.Unix())

			incidents, err := lightup.ListIncidents(ctx, j.WorkspaceID, j.Start, j.End, m.Metadata.UUID)
			if err != nil {
				return report, fmt.Errorf("list incidents of %s: %w", m, err)
			}
			h.Incidents = len(incidents)
			h.Status = HealthHealthy
			if h.Incidents > 0 {
				h.Status = HealthUnhealthy
			}
			report = append(report, h)
		}
	}
	return report, nil
}

func location(c api.MetricConfig) string {
	t := c.TableOrEmpty()
	if t.TableName == "" {
		return ""
	}
	loc := t.SchemaName + "." + t.TableName
	if len(c.ValueColumns) > 0 {
		loc += "." + c.ValueColumns[0].ColumnName
	}
	return loc
}

func RenderHealth(out io.Writer, report []MonitorHealth) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"metric", "location", "monitor", "processed until", "incidents", "health"})
	for _, h := range report {
		processed := "-"
		if h.Status != HealthNotStarted {
			processed = h.ProcessedUntil.Format(time.RFC3339)
			if h.Complete {
				processed = "window complete"
			}
		}
		table.Append([]string{h.MetricName, h.Location, h.MonitorName, processed, strconv.Itoa(h.Incidents), string(h.Status)})
	}
	table.Render()
}
