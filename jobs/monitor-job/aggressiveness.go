package monitor

import (
	"context"
	"fmt"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	DefaultFromLevel = 7
	DefaultToLevel   = 3
)

type AggressivenessJob struct {
	WorkspaceID string
	SourceID    string
	Schema      string
	From        int
	To          int
	DryRun      bool
}

// Candidates returns the live anomaly monitors of the volume metrics on the
// job's source and schema whose aggressiveness is at the From level.
func (j AggressivenessJob) Candidates(ctx context.Context, lightup client.LightupServiceClient) ([]api.Monitor, error) {
	metrics, err := lightup.ListMetrics(ctx, j.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	monitors, err := lightup.ListMonitors(ctx, j.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}

	volume := map[string]bool{}
	for _, m := range metrics {
		if j.isVolumeMetric(m.Config) {
			volume[m.Metadata.UUID] = true
		}
	}

	return lo.Filter(monitors, func(m api.Monitor, _ int) bool {
		if !m.Config.IsLive || !volume[m.MetricUUID()] {
			return false
		}
		symptom := m.Config.Symptom
		if symptom.Type != api.SymptomValueOutsideExpectations && symptom.Type != api.SymptomValueOutsideExpectationsWithTrend {
			return false
		}
		return symptom.Aggressiveness != nil && symptom.Aggressiveness.Level == j.From
	}), nil
}

func (j AggressivenessJob) isVolumeMetric(c api.MetricConfig) bool {
	if c.ConfigType != api.MetricConfigTypeMetric || c.Table == nil || c.Table.Type == api.TableTypeCustomSQL {
		return false
	}
	if c.Aggregation == nil || c.Aggregation.Type != api.AggregationTypeVolume {
		return false
	}
	return c.Table.SchemaName == j.Schema && lo.Contains(c.Sources, j.SourceID)
}

// Do retrains every candidate monitor at the To level. A monitor is taken
// offline before its aggressiveness changes and brought back live after.
func (j AggressivenessJob) Do(ctx context.Context, lightup client.LightupServiceClient, logger *zap.Logger) ([]api.Monitor, error) {
	candidates, err := j.Candidates(ctx, lightup)
	if err != nil {
		return nil, err
	}

	var updated []api.Monitor
	for _, m := range candidates {
		logger := logger.With(zap.String("monitor_uuid", m.Metadata.UUID), zap.String("monitor_name", m.Metadata.Name))
		if j.DryRun {
			logger.Info("dry run: would update aggressiveness", zap.Int("from", j.From), zap.Int("to", j.To))
			updated = append(updated, m)
			continue
		}

		if err := m.Set("config.isLive", false); err != nil {
			return updated, err
		}
		if _, err := lightup.UpdateMonitor(ctx, j.WorkspaceID, m.Metadata.UUID, m); err != nil {
			return updated, fmt.Errorf("take monitor %s offline: %w", m, err)
		}

		if err := m.Set("config.symptom.aggressiveness", api.Aggressiveness{Level: j.To}); err != nil {
			return updated, err
		}
		if err := m.Set("config.isLive", true); err != nil {
			return updated, err
		}
		res, err := lightup.UpdateMonitor(ctx, j.WorkspaceID, m.Metadata.UUID, m)
		if err != nil {
			return updated, fmt.Errorf("update monitor %s: %w", m, err)
		}
		logger.Info("monitor updated", zap.Int("level", j.To))
		updated = append(updated, *res)
	}
	return updated, nil
}
