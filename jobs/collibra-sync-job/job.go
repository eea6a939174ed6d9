package collibrasync

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/lightup-data/lightup-tools/jobs/collibra-sync-job/config"
	collibra "github.com/lightup-data/lightup-tools/services/collibra/client"
	lightup "github.com/lightup-data/lightup-tools/services/lightup/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Job struct {
	SourceMap config.SourceMap
	Lookback  time.Duration
	DryRun    bool
	Now       func() time.Time
}

// Do syncs every catalog source of the source map. A workspace whose state
// cannot be read is skipped and reported in the returned error; a workspace
// missing from Lightup or a failure to clear catalog relations aborts the run.
func (j Job) Do(ctx context.Context, lightupClient lightup.LightupServiceClient, collibraClient collibra.CollibraServiceClient, logger *zap.Logger) (result SyncResult, err error) {
	startTime := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("paniced", zap.Any("error", r), zap.String("stack", goerrors.Wrap(r, 2).ErrorStack()))
			err = fmt.Errorf("paniced: %v", r)
		}
		status := "successful"
		if err != nil {
			status = "failure"
		}
		SyncRunsCount.WithLabelValues(status).Inc()
		SyncRunsDuration.WithLabelValues(status).Observe(time.Since(startTime).Seconds())
	}()

	lookback := j.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	now := j.Now
	if now == nil {
		now = time.Now
	}

	tracer := otel.Tracer("collibra-sync")
	ctx, span := tracer.Start(ctx, "CollibraSync", trace.WithAttributes(attribute.Bool("dry_run", j.DryRun)))
	defer span.End()

	fetcher := NewFetcher(lightupClient, logger, tracer, lookback, now)

	var firstErr error
	fail := func(err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, cs := range j.SourceMap.CatalogSources {
		csLogger := logger.With(zap.String("collibra_source_id", cs.ID))
		writer := NewWriter(collibraClient, csLogger, tracer, j.DryRun)

		tables, err := writer.ClearPrevious(ctx, cs.ID)
		if err != nil {
			fail(err)
			return result, err
		}

		var published []PublishedAsset
		for _, ws := range cs.Workspaces() {
			state, err := fetcher.LightupState(ctx, ws.WorkspaceID, ws.SourceIDs, cs.ID)
			if errors.Is(err, ErrWorkspaceNotFound) {
				fail(err)
				return result, err
			}
			if err != nil {
				csLogger.Error("failed to read lightup state, skipping workspace", zap.String("workspace_id", ws.WorkspaceID), zap.Error(err))
				fail(fmt.Errorf("workspace %s: %w", ws.WorkspaceID, err))
				continue
			}
			if err := writer.RemoveOrphans(ctx, state); err != nil {
				fail(err)
				result.Add(writer.Result())
				return result, err
			}
			published = append(published, writer.Publish(ctx, state)...)
		}

		if err := writer.Link(ctx, tables, published); err != nil {
			fail(err)
			result.Add(writer.Result())
			return result, err
		}

		r := writer.Result()
		observe(cs.ID, r)
		result.Add(r)
		csLogger.Info("synced collibra source",
			zap.Int("tables", len(tables)),
			zap.Int("assets_created", r.AssetsCreated),
			zap.Int("assets_skipped", r.AssetsSkipped),
			zap.Int("relations_deleted", r.RelationsDeleted),
			zap.Int("orphans_deleted", r.OrphansDeleted),
			zap.Int("tables_linked", r.TablesLinked),
		)
	}
	return result, firstErr
}
