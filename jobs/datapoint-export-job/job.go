package datapointexport

import (
	"context"
	"fmt"
	"time"

	"github.com/lightup-data/lightup-tools/pkg/concurrency"
	"github.com/lightup-data/lightup-tools/pkg/export"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Job struct {
	Days int
	// Workers is the number of metrics fetched at once.
	Workers int
	Now     func() time.Time
}

// Window ends at the start of the current UTC day and spans days days.
func Window(now time.Time, days int) (time.Time, time.Time) {
	end := now.UTC().Truncate(24 * time.Hour)
	return end.AddDate(0, 0, -days), end
}

// Do writes <epoch>/<workspace uuid>_datapoints.csv for every workspace.
func (j Job) Do(ctx context.Context, lightup client.LightupServiceClient, sink export.Sink, logger *zap.Logger) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	exportTime := now()
	start, end := Window(exportTime, j.Days)
	logger.Info("exporting datapoints", zap.Time("start", start), zap.Time("end", end))

	workspaces, err := lightup.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}
	for _, ws := range workspaces {
		took := time.Now()
		rows, err := j.workspaceRows(ctx, lightup, logger, ws, start, end)
		if err != nil {
			return fmt.Errorf("workspace %s: %w", ws.UUID, err)
		}
		name := fmt.Sprintf("%d/%s_datapoints.csv", exportTime.Unix(), ws.UUID)
		if err := export.WriteCSV(ctx, sink, name, rows); err != nil {
			return err
		}
		logger.Info("exported datapoints",
			zap.String("workspace_id", ws.UUID),
			zap.String("workspace_name", ws.Name),
			zap.String("location", sink.Location(name)),
			zap.Int("rows", len(rows)),
			zap.Duration("took", time.Since(took)),
		)
	}
	return nil
}

func (j Job) workspaceRows(ctx context.Context, lightup client.LightupServiceClient, logger *zap.Logger, ws api.Workspace, start, end time.Time) ([]DatapointRow, error) {
	metrics, err := lightup.ListMetrics(ctx, ws.UUID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	monitors, err := lightup.ListMonitors(ctx, ws.UUID)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	sources, err := lightup.ListSources(ctx, ws.UUID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	sourceNames := lo.SliceToMap(sources, func(s api.Source) (string, string) { return s.Metadata.UUID, s.Metadata.Name })
	byMetric := lo.GroupBy(monitors, func(m api.Monitor) string { return m.MetricUUID() })

	pool := concurrency.NewWorkPool[[]DatapointRow](j.Workers)
	for _, metric := range metrics {
		if !metric.Config.HasPhysicalLocation() {
			continue
		}
		metric := metric
		pool.AddJob(func() ([]DatapointRow, error) {
			return metricRows(ctx, lightup, logger, ws, metric, sourceNames[metric.Config.SourceUUID()], byMetric[metric.Metadata.UUID], start, end)
		})
	}

	rows := []DatapointRow{}
	for _, res := range pool.Run() {
		if res.Error != nil {
			return nil, res.Error
		}
		rows = append(rows, res.Value...)
	}
	return rows, nil
}

func metricRows(ctx context.Context, lightup client.LightupServiceClient, logger *zap.Logger, ws api.Workspace, metric api.Metric, sourceName string, monitors []api.Monitor, start, end time.Time) ([]DatapointRow, error) {
	points, err := lightup.GetMetricDatapoints(ctx, ws.UUID, metric.Metadata.UUID, start, end)
	if err != nil {
		return nil, fmt.Errorf("metric %s datapoints: %w", metric.Metadata.UUID, err)
	}
	if len(points) == 0 {
		return nil, nil
	}
	logger.Debug("processing metric", zap.String("metric_uuid", metric.Metadata.UUID), zap.Int("datapoints", len(points)))

	var data []MonitorData
	for _, monitor := range monitors {
		stats, err := lightup.GetMonitorDatapoints(ctx, ws.UUID, monitor.Metadata.UUID, start, end)
		if err != nil {
			return nil, fmt.Errorf("monitor %s datapoints: %w", monitor.Metadata.UUID, err)
		}
		incidents, err := lightup.ListIncidents(ctx, ws.UUID, start, end, monitor.Metadata.UUID)
		if err != nil {
			return nil, fmt.Errorf("monitor %s incidents: %w", monitor.Metadata.UUID, err)
		}
		data = append(data, MonitorData{Monitor: monitor, Stats: stats, Incidents: incidents})
	}
	return Rows(ws, metric, sourceName, points, data), nil
}
