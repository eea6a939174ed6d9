package collibrasync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrWorkspaceNotFound = errors.New("workspace not found")

type MetricInfo struct {
	AssetDetails
	MetricName   string
	IsAutoMetric bool
	SourceUUID   string
}

type MonitorInfo struct {
	MonitorName          string
	MonitorUUID          string
	WorkspaceID          string
	WorkspaceName        string
	MetricUUID           string
	Metric               MetricInfo
	Key                  ObjectKey
	IncidentCount        int
	OngoingIncidentCount int
}

// TableInfo is what one monitor publishes on a catalog data object.
type TableInfo struct {
	WorkspaceID          string
	WorkspaceName        string
	MonitorName          string
	MonitorUUID          string
	MetricName           string
	IncidentCount        int
	OngoingIncidentCount int
	URL                  string
}

// MetricInfoMap keeps metrics bound to a physical table or column whose source
// is among sources.
func MetricInfoMap(sources []api.Source, metrics []api.Metric) map[string]MetricInfo {
	byUUID := lo.KeyBy(sources, func(s api.Source) string { return s.Metadata.UUID })
	infos := map[string]MetricInfo{}
	for _, metric := range metrics {
		if !metric.Config.HasPhysicalLocation() {
			continue
		}
		source, ok := byUUID[metric.Config.SourceUUID()]
		if !ok {
			continue
		}
		infos[metric.Metadata.UUID] = MetricInfo{
			AssetDetails: assetDetails(source, metric),
			MetricName:   metric.Metadata.Name,
			IsAutoMetric: metric.Metadata.CreationType == api.MetricCreationTypeAuto,
			SourceUUID:   source.Metadata.UUID,
		}
	}
	return infos
}

// MonitorInfoMap keeps monitors whose metric is in metricInfos, with zeroed
// incident counters.
func MonitorInfoMap(monitors []api.Monitor, metricInfos map[string]MetricInfo, workspace api.Workspace, catalogSourceID string) map[string]*MonitorInfo {
	infos := map[string]*MonitorInfo{}
	for _, monitor := range monitors {
		metric, ok := metricInfos[monitor.MetricUUID()]
		if !ok {
			continue
		}
		infos[monitor.Metadata.UUID] = &MonitorInfo{
			MonitorName:   monitor.Metadata.Name,
			MonitorUUID:   monitor.Metadata.UUID,
			WorkspaceID:   workspace.UUID,
			WorkspaceName: workspace.Name,
			MetricUUID:    monitor.MetricUUID(),
			Metric:        metric,
			Key:           NewObjectKey(catalogSourceID, metric.AssetDetails),
		}
	}
	return infos
}

// CountIncidents attributes incidents to their monitor. Incidents of monitors
// outside monitorInfos are ignored.
func CountIncidents(monitorInfos map[string]*MonitorInfo, incidents []api.Incident) {
	for _, incident := range incidents {
		info, ok := monitorInfos[incident.FilterUUID]
		if !ok {
			continue
		}
		info.IncidentCount++
		if incident.Ongoing {
			info.OngoingIncidentCount++
		}
	}
}

func (m MonitorInfo) URL(cluster string) string {
	if !m.Metric.IsAutoMetric {
		return MetricURL(cluster, m.WorkspaceID, m.Metric.SourceUUID, m.MetricUUID)
	}
	return ExplorerURL(cluster, m.WorkspaceID, m.Metric.SourceUUID, m.Metric.SchemaUUID, m.Metric.TableUUID, m.Metric.ColumnUUID)
}

// TableInfoMap groups monitors by object key. Every monitor yields exactly one
// entry; entries of a key are ordered by monitor uuid.
func TableInfoMap(monitorInfos map[string]*MonitorInfo, cluster string) map[ObjectKey][]TableInfo {
	uuids := lo.Keys(monitorInfos)
	sort.Strings(uuids)

	tables := map[ObjectKey][]TableInfo{}
	for _, id := range uuids {
		info := monitorInfos[id]
		tables[info.Key] = append(tables[info.Key], TableInfo{
			WorkspaceID:          info.WorkspaceID,
			WorkspaceName:        info.WorkspaceName,
			MonitorName:          info.MonitorName,
			MonitorUUID:          info.MonitorUUID,
			MetricName:           info.Metric.MetricName,
			IncidentCount:        info.IncidentCount,
			OngoingIncidentCount: info.OngoingIncidentCount,
			URL:                  info.URL(cluster),
		})
	}
	return tables
}

// SortedKeys orders keys by their segments.
func SortedKeys(tables map[ObjectKey][]TableInfo) []ObjectKey {
	keys := lo.Keys(tables)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Fetcher reads the monitored state of a workspace from Lightup.
type Fetcher struct {
	lightup  client.LightupServiceClient
	logger   *zap.Logger
	tracer   trace.Tracer
	lookback time.Duration
	now      func() time.Time
}

func NewFetcher(lightup client.LightupServiceClient, logger *zap.Logger, tracer trace.Tracer, lookback time.Duration, now func() time.Time) *Fetcher {
	return &Fetcher{lightup: lightup, logger: logger, tracer: tracer, lookback: lookback, now: now}
}

// LightupState returns what the monitors on sourceIDs of a workspace publish,
// keyed by catalog data object. Incidents are counted over the lookback window
// ending now.
func (f *Fetcher) LightupState(ctx context.Context, workspaceID string, sourceIDs []string, catalogSourceID string) (map[ObjectKey][]TableInfo, error) {
	ctx, span := f.tracer.Start(ctx, "LightupState", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
		attribute.String("collibra_source_id", catalogSourceID),
	))
	defer span.End()

	workspaces, err := f.lightup.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	workspace, ok := lo.Find(workspaces, func(ws api.Workspace) bool { return ws.UUID == workspaceID })
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceID)
	}

	sources, err := f.lightup.ListSources(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	metrics, err := f.lightup.ListMetrics(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	monitors, err := f.lightup.ListMonitors(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}

	sources = lo.Filter(sources, func(s api.Source, _ int) bool { return lo.Contains(sourceIDs, s.Metadata.UUID) })
	metrics = lo.Filter(metrics, func(m api.Metric, _ int) bool { return lo.Contains(sourceIDs, m.Config.SourceUUID()) })

	metricInfos := MetricInfoMap(sources, metrics)
	monitorInfos := MonitorInfoMap(monitors, metricInfos, workspace, catalogSourceID)

	end := f.now()
	incidents, err := f.lightup.ListIncidents(ctx, workspaceID, end.Add(-f.lookback), end, "")
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	CountIncidents(monitorInfos, incidents)

	f.logger.Info("fetched lightup state",
		zap.String("workspace_id", workspaceID),
		zap.String("workspace_name", workspace.Name),
		zap.Int("metrics", len(metricInfos)),
		zap.Int("monitors", len(monitorInfos)),
		zap.Int("incidents", len(incidents)),
	)
	return TableInfoMap(monitorInfos, f.lightup.URLBase()), nil
}
