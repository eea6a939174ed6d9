package metricexport

import (
	"context"
	"fmt"
	"time"

	"github.com/lightup-data/lightup-tools/pkg/export"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Job struct {
	// Workspaces restricts the export; empty exports every workspace.
	Workspaces []string
	Now        func() time.Time
}

// Do writes <epoch>/<workspace uuid>.csv per workspace into sink. Workspaces
// without exportable metrics get no file.
func (j Job) Do(ctx context.Context, lightup client.LightupServiceClient, sink export.Sink, logger *zap.Logger) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	epoch := now().Unix()

	workspaces, err := lightup.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}

	for _, ws := range workspaces {
		if len(j.Workspaces) > 0 && !lo.Contains(j.Workspaces, ws.UUID) {
			continue
		}
		start := time.Now()
		logger := logger.With(zap.String("workspace_id", ws.UUID), zap.String("workspace_name", ws.Name))

		rows, err := j.workspaceRows(ctx, lightup, ws)
		if err != nil {
			return fmt.Errorf("workspace %s: %w", ws.UUID, err)
		}
		if len(rows) == 0 {
			logger.Info("no metrics to export")
			continue
		}

		name := fmt.Sprintf("%d/%s.csv", epoch, ws.UUID)
		if err := export.WriteCSV(ctx, sink, name, rows); err != nil {
			return err
		}
		logger.Info("exported metrics",
			zap.String("location", sink.Location(name)),
			zap.Int("metrics", len(rows)),
			zap.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func (j Job) workspaceRows(ctx context.Context, lightup client.LightupServiceClient, ws api.Workspace) ([]MetricRow, error) {
	sources, err := lightup.ListSources(ctx, ws.UUID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	metrics, err := lightup.ListMetrics(ctx, ws.UUID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	monitors, err := lightup.ListMonitors(ctx, ws.UUID)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	return Rows(ws, sources, metrics, monitors)
}
