package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/lightup-data/lightup-tools/pkg/export"
	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func BackupFileName(workspaceID string) string {
	return fmt.Sprintf("monitor_backup_%s.json", workspaceID)
}

// Backup writes every monitor of the workspace, as served, to the sink.
func Backup(ctx context.Context, lightup client.LightupServiceClient, sink export.Sink, workspaceID string, logger *zap.Logger) (string, error) {
	monitors, err := lightup.ListMonitors(ctx, workspaceID)
	if err != nil {
		return "", fmt.Errorf("list monitors: %w", err)
	}
	name := BackupFileName(workspaceID)
	err = sink.Write(ctx, name, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(monitors)
	})
	if err != nil {
		return "", err
	}
	location := sink.Location(name)
	logger.Info("monitor configurations saved", zap.String("path", location), zap.Int("monitors", len(monitors)))
	return location, nil
}

func LoadBackup(fs afero.Fs, dir, workspaceID string) ([]api.Monitor, error) {
	path := filepath.Join(dir, BackupFileName(workspaceID))
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	var monitors []api.Monitor
	if err := json.Unmarshal(data, &monitors); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", path, err)
	}
	for _, m := range monitors {
		if m.Metadata.WorkspaceID != workspaceID {
			return nil, fmt.Errorf("monitor %s in %s belongs to workspace %q", m, path, m.Metadata.WorkspaceID)
		}
	}
	return monitors, nil
}

type ReplayResult struct {
	Recreated []string
	Present   []string
	Orphaned  []string
}

type ReplayJob struct {
	WorkspaceID string
	DryRun      bool
}

// Do recreates the backed up monitors that no longer exist on the server.
// Monitors whose metric is gone are reported as orphaned.
func (j ReplayJob) Do(ctx context.Context, lightup client.LightupServiceClient, monitors []api.Monitor, logger *zap.Logger) (ReplayResult, error) {
	var result ReplayResult
	for _, m := range monitors {
		logger := logger.With(zap.String("monitor_uuid", m.Metadata.UUID), zap.String("monitor_name", m.Metadata.Name))

		if _, err := lightup.GetMetric(ctx, j.WorkspaceID, m.MetricUUID()); err != nil {
			if !httpclient.IsNotFound(err) {
				return result, fmt.Errorf("get metric of %s: %w", m, err)
			}
			logger.Warn("metric no longer exists", zap.String("metric_uuid", m.MetricUUID()))
			result.Orphaned = append(result.Orphaned, m.Metadata.UUID)
			continue
		}

		_, err := lightup.GetMonitor(ctx, j.WorkspaceID, m.Metadata.UUID)
		switch {
		case err == nil:
			logger.Debug("monitor does not need to be recreated")
			result.Present = append(result.Present, m.Metadata.UUID)
			continue
		case !httpclient.IsNotFound(err):
			return result, fmt.Errorf("get monitor %s: %w", m, err)
		}

		if j.DryRun {
			logger.Info("dry run: monitor would be recreated")
			result.Recreated = append(result.Recreated, m.Metadata.UUID)
			continue
		}
		if err := m.Delete("metadata.uuid"); err != nil {
			return result, err
		}
		created, err := lightup.CreateMonitor(ctx, j.WorkspaceID, m)
		if err != nil {
			return result, fmt.Errorf("recreate monitor %s: %w", m, err)
		}
		logger.Info("monitor recreated", zap.String("new_uuid", created.Metadata.UUID))
		result.Recreated = append(result.Recreated, created.Metadata.UUID)
	}
	return result, nil
}
