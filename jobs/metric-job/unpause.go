package metric

import (
	"context"
	"fmt"

	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type UnpauseJob struct {
	// MetricUUIDs restricts the job to these metrics. Empty means every
	// paused metric.
	MetricUUIDs []string
	DryRun      bool
}

func (j UnpauseJob) Do(ctx context.Context, lightup client.LightupServiceClient, logger *zap.Logger) ([]string, error) {
	workspaces, err := lightup.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	var unpaused []string
	for _, ws := range workspaces {
		metrics, err := lightup.ListMetrics(ctx, ws.UUID)
		if err != nil {
			return unpaused, fmt.Errorf("list metrics of %s: %w", ws.UUID, err)
		}
		paused := 0
		for _, m := range metrics {
			if m.Config.IsLive {
				continue
			}
			paused++
			if len(j.MetricUUIDs) > 0 && !lo.Contains(j.MetricUUIDs, m.Metadata.UUID) {
				continue
			}
			logger := logger.With(zap.String("workspace_id", ws.UUID), zap.String("metric_uuid", m.Metadata.UUID), zap.String("metric_name", m.Metadata.Name))
			if j.DryRun {
				logger.Info("dry run: would unpause metric")
				unpaused = append(unpaused, m.Metadata.UUID)
				continue
			}
			if err := m.Set("config.isLive", true); err != nil {
				return unpaused, err
			}
			if _, err := lightup.UpdateMetric(ctx, ws.UUID, m.Metadata.UUID, m); err != nil {
				return unpaused, fmt.Errorf("unpause metric %s: %w", m.Metadata.UUID, err)
			}
			logger.Info("metric unpaused")
			unpaused = append(unpaused, m.Metadata.UUID)
		}
		if paused > 0 {
			logger.Info("paused metrics", zap.String("workspace", ws.Name), zap.Int("count", paused))
		}
	}
	return unpaused, nil
}
