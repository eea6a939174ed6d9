package collibrasync

import (
	"context"
	"fmt"
	"strings"

	"github.com/lightup-data/lightup-tools/services/collibra/api"
	"github.com/lightup-data/lightup-tools/services/collibra/client"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CatalogTable is a table asset of a catalog source. Schema is the lower
// cased name of the table's domain.
type CatalogTable struct {
	ID       string
	Name     string
	SchemaID string
	Schema   string
}

// PublishedAsset is a monitor asset written for one object key.
type PublishedAsset struct {
	AssetID string
	Key     ObjectKey
}

// SyncResult counts what a run changed in the catalog.
type SyncResult struct {
	AssetsCreated    int
	AssetsSkipped    int
	AttributesFailed int
	RelationsDeleted int
	// OrphansDeleted counts monitor assets left unlinked by an interrupted run.
	OrphansDeleted int
	TablesLinked   int
}

func (r *SyncResult) Add(o SyncResult) {
	r.AssetsCreated += o.AssetsCreated
	r.AssetsSkipped += o.AssetsSkipped
	r.AttributesFailed += o.AttributesFailed
	r.RelationsDeleted += o.RelationsDeleted
	r.OrphansDeleted += o.OrphansDeleted
	r.TablesLinked += o.TablesLinked
}

// Writer applies Lightup state to the catalog. In dry-run mode mutating calls
// are logged instead of issued.
type Writer struct {
	collibra client.CollibraServiceClient
	logger   *zap.Logger
	tracer   trace.Tracer
	dryRun   bool
	result   SyncResult

	// existing holds the ids of the monitor assets in the Lightup domain,
	// loaded on first use.
	existing map[string]bool
	// cleared holds the ids of the assets ClearPrevious found related to a table.
	cleared map[string]bool
}

func NewWriter(collibra client.CollibraServiceClient, logger *zap.Logger, tracer trace.Tracer, dryRun bool) *Writer {
	return &Writer{collibra: collibra, logger: logger, tracer: tracer, dryRun: dryRun, cleared: map[string]bool{}}
}

func (w *Writer) Result() SyncResult {
	return w.result
}

// ClearPrevious deletes the monitor assets related to every table of the
// catalog source by an earlier run and returns the tables.
func (w *Writer) ClearPrevious(ctx context.Context, catalogSourceID string) ([]CatalogTable, error) {
	ctx, span := w.tracer.Start(ctx, "ClearPrevious", trace.WithAttributes(attribute.String("collibra_source_id", catalogSourceID)))
	defer span.End()

	assets, err := w.collibra.ListAssets(ctx, TableAssetTypeID, catalogSourceID)
	if err != nil {
		return nil, fmt.Errorf("list table assets of %s: %w", catalogSourceID, err)
	}

	tables := make([]CatalogTable, 0, len(assets))
	for _, asset := range assets {
		relations, err := w.collibra.ListRelations(ctx, asset.ID, RelationTypeID)
		if err != nil {
			return nil, fmt.Errorf("list relations of table %s: %w", asset.ID, err)
		}
		for _, r := range relations {
			w.cleared[r.Source.ID] = true
			if w.dryRun {
				w.logger.Info("dry run: would delete asset", zap.String("asset_id", r.Source.ID), zap.String("table", asset.Name))
				continue
			}
			if err := w.collibra.DeleteAsset(ctx, r.Source.ID); err != nil {
				return nil, fmt.Errorf("delete asset %s: %w", r.Source.ID, err)
			}
			w.result.RelationsDeleted++
		}

		tables = append(tables, CatalogTable{
			ID:       asset.ID,
			Name:     asset.Name,
			SchemaID: asset.Domain.ID,
			Schema:   strings.ToLower(asset.Domain.Name),
		})
	}
	return tables, nil
}

// RemoveOrphans deletes the monitor assets of the state that still exist in
// the Lightup domain although no table relates to them, so that Publish can
// write them again.
func (w *Writer) RemoveOrphans(ctx context.Context, tables map[ObjectKey][]TableInfo) error {
	ctx, span := w.tracer.Start(ctx, "RemoveOrphans")
	defer span.End()

	if w.existing == nil {
		assets, err := w.collibra.ListAssets(ctx, AssetTypeID, LightupDomainID)
		if err != nil {
			return fmt.Errorf("list monitor assets: %w", err)
		}
		w.existing = make(map[string]bool, len(assets))
		for _, a := range assets {
			w.existing[a.ID] = true
		}
	}

	for _, key := range SortedKeys(tables) {
		for _, info := range tables[key] {
			if !w.existing[info.MonitorUUID] || w.cleared[info.MonitorUUID] {
				continue
			}
			logger := w.logger.With(zap.String("asset_id", info.MonitorUUID), zap.String("object_key", key.String()))
			if w.dryRun {
				logger.Info("dry run: would delete orphaned asset")
				continue
			}
			if err := w.collibra.DeleteAsset(ctx, info.MonitorUUID); err != nil {
				return fmt.Errorf("delete orphaned asset %s: %w", info.MonitorUUID, err)
			}
			delete(w.existing, info.MonitorUUID)
			w.result.OrphansDeleted++
			logger.Info("deleted orphaned asset")
		}
	}
	return nil
}

// Publish creates one asset per monitor with its attributes. A monitor whose
// asset cannot be created is logged and skipped.
func (w *Writer) Publish(ctx context.Context, tables map[ObjectKey][]TableInfo) []PublishedAsset {
	ctx, span := w.tracer.Start(ctx, "Publish")
	defer span.End()

	var published []PublishedAsset
	for _, key := range SortedKeys(tables) {
		for _, info := range tables[key] {
			logger := w.logger.With(
				zap.String("object_key", key.String()),
				zap.String("monitor_name", info.MonitorName),
				zap.String("monitor_uuid", info.MonitorUUID),
			)

			req := api.AddAssetRequest{
				ID:          info.MonitorUUID,
				Name:        info.MonitorUUID,
				DisplayName: info.MonitorUUID,
				DomainID:    LightupDomainID,
				TypeID:      AssetTypeID,
			}
			if w.dryRun {
				logger.Info("dry run: would create asset", zap.String("status", string(StatusOf(info.IncidentCount, info.OngoingIncidentCount))))
				published = append(published, PublishedAsset{AssetID: req.ID, Key: key})
				continue
			}

			asset, err := w.collibra.CreateAsset(ctx, req)
			if err != nil {
				logger.Error("failed to create asset, skipping monitor", zap.Error(err))
				w.result.AssetsSkipped++
				continue
			}
			w.result.AssetsCreated++

			for _, attr := range attributes(key, info) {
				attr.AssetID = asset.ID
				if _, err := w.collibra.CreateAttribute(ctx, attr); err != nil {
					logger.Error("failed to set attribute", zap.String("type_id", attr.TypeID), zap.Error(err))
					w.result.AttributesFailed++
				}
			}
			published = append(published, PublishedAsset{AssetID: asset.ID, Key: key})
		}
	}
	return published
}

func attributes(key ObjectKey, info TableInfo) []api.AddAttributeRequest {
	values := []struct {
		typeID string
		value  any
	}{
		{AttrWorkspaceName, info.WorkspaceName},
		{AttrMonitorName, info.MonitorName},
		{AttrMetricName, info.MetricName},
		{AttrIncidentCount, info.IncidentCount},
		{AttrStatus, StatusOf(info.IncidentCount, info.OngoingIncidentCount).Badge()},
		{AttrMetricsURL, viewLink(info.URL)},
		{AttrDatabaseName, key.Database},
		{AttrSchemaName, key.Schema},
		{AttrTableName, key.Table},
		{AttrFieldName, key.Column},
	}
	reqs := make([]api.AddAttributeRequest, 0, len(values))
	for _, v := range values {
		reqs = append(reqs, api.AddAttributeRequest{TypeID: v.typeID, Value: v.value})
	}
	return reqs
}

// Link replaces the Lightup relations of every catalog table with the assets
// published on the same schema and table.
func (w *Writer) Link(ctx context.Context, tables []CatalogTable, published []PublishedAsset) error {
	ctx, span := w.tracer.Start(ctx, "Link")
	defer span.End()

	for _, table := range tables {
		ids := []string{}
		for _, p := range published {
			if p.Key.Table == table.Name && strings.EqualFold(p.Key.Schema, table.Schema) {
				ids = append(ids, p.AssetID)
			}
		}

		logger := w.logger.With(zap.String("table_id", table.ID), zap.String("table", table.Schema+"."+table.Name), zap.Int("assets", len(ids)))
		if w.dryRun {
			logger.Info("dry run: would set relations")
			continue
		}
		err := w.collibra.SetRelations(ctx, table.ID, api.SetRelationsRequest{
			TypeID:            RelationTypeID,
			RelatedAssetIDs:   ids,
			RelationDirection: api.RelationDirectionToSource,
		})
		if err != nil {
			return fmt.Errorf("set relations of table %s: %w", table.ID, err)
		}
		if len(ids) > 0 {
			w.result.TablesLinked++
		}
		logger.Info("updated table relations")
	}
	return nil
}
