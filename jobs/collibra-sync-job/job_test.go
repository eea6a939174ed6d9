package collibrasync

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lightup-data/lightup-tools/jobs/collibra-sync-job/config"
	"github.com/lightup-data/lightup-tools/services/collibra/client"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func TestJobSuite(t *testing.T) {
	suite.Run(t, &jobSuite{})
}

type jobSuite struct {
	suite.Suite

	fakes fakes
	job   Job
}

func (s *jobSuite) SetupTest() {
	s.fakes = newFakes(s.T())
	seedWorkspace(s.fakes)

	s.Require().NoError(Prepare(context.Background(), s.fakes.collibraClient, zap.NewNop()))
	s.fakes.collibra.AddTable("tbl-orders", "orders", catalogSourceID, "PUBLIC", TableAssetTypeID)
	s.fakes.collibra.AddTable("tbl-accounts", "accounts", catalogSourceID, "public", TableAssetTypeID)

	s.job = Job{
		SourceMap: config.SourceMap{CatalogSources: []config.CatalogSource{{
			ID:             catalogSourceID,
			LightupSources: []config.LightupSource{{WorkspaceID: workspaceID, SourceID: sourceID}},
		}}},
		Now: func() time.Time { return now },
	}
}

func (s *jobSuite) run() (SyncResult, error) {
	return s.job.Do(context.Background(), s.fakes.lightupClient, s.fakes.collibraClient, zap.NewNop())
}

func (s *jobSuite) TestPublishesMonitorsOnTables() {
	result, err := s.run()
	s.Require().NoError(err)

	s.Equal(2, result.AssetsCreated)
	s.Equal(0, result.AssetsSkipped)
	s.Equal(1, result.TablesLinked)
	s.ElementsMatch([]string{"mon-a", "mon-b"}, s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
	s.Empty(s.fakes.collibra.RelatedSources("tbl-accounts", RelationTypeID))

	attrs := s.fakes.collibra.AttributesOf("mon-a")
	s.Len(attrs, 10)
	s.Equal("Analytics", attrs[AttrWorkspaceName])
	s.Equal("nulls monitor", attrs[AttrMonitorName])
	s.Equal("amount nulls", attrs[AttrMetricName])
	s.Equal(float64(1), attrs[AttrIncidentCount])
	s.Equal(StatusIssue.Badge(), attrs[AttrStatus])
	s.Contains(attrs[AttrMetricsURL], "metricUuid=m-nulls")
	s.Equal("sales", attrs[AttrDatabaseName])
	s.Equal("public", attrs[AttrSchemaName])
	s.Equal("orders", attrs[AttrTableName])
	s.Equal("amount", attrs[AttrFieldName])

	s.Equal(StatusHealthy.Badge(), s.fakes.collibra.AttributesOf("mon-b")[AttrStatus])
}

func (s *jobSuite) TestRunTwiceConverges() {
	_, err := s.run()
	s.Require().NoError(err)
	first := s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID)

	result, err := s.run()
	s.Require().NoError(err)

	s.Equal(2, result.RelationsDeleted)
	s.Equal(2, result.AssetsCreated)
	s.Zero(result.OrphansDeleted)
	s.ElementsMatch(first, s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
	s.Len(s.fakes.collibra.AssetsOfType(AssetTypeID), 2)
}

func (s *jobSuite) TestSkipsAssetsThatCannotBeCreated() {
	s.fakes.collibra.FailAssetIDs["mon-b"] = true

	result, err := s.run()
	s.Require().NoError(err)

	s.Equal(1, result.AssetsCreated)
	s.Equal(1, result.AssetsSkipped)
	s.Equal([]string{"mon-a"}, s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
	s.Empty(s.fakes.collibra.AttributesOf("mon-b"))
}

func (s *jobSuite) TestDryRunChangesNothing() {
	_, err := s.run()
	s.Require().NoError(err)
	before := len(s.fakes.collibra.RequestLog())

	s.job.DryRun = true
	result, err := s.run()
	s.Require().NoError(err)

	s.Equal(SyncResult{}, result)
	for _, req := range s.fakes.collibra.RequestLog()[before:] {
		s.True(strings.HasPrefix(req, http.MethodGet+" "), req)
	}
	s.ElementsMatch([]string{"mon-a", "mon-b"}, s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
}

func (s *jobSuite) TestMissingWorkspaceAborts() {
	s.job.SourceMap.CatalogSources[0].LightupSources[0].WorkspaceID = "c9effbee-69cb-45d5-9a29-9e1a0d6462bc"

	_, err := s.run()
	s.ErrorIs(err, ErrWorkspaceNotFound)
	s.Empty(s.fakes.collibra.AssetsOfType(AssetTypeID))
}

func (s *jobSuite) TestIncidentFailureFailsWorkspace() {
	s.fakes.lightup.FailPaths["/api/v1/ws/"+workspaceID+"/incidents"] = http.StatusBadGateway

	result, err := s.run()
	s.Require().Error(err)
	s.Contains(err.Error(), workspaceID)
	s.Zero(result.AssetsCreated)
	s.Empty(s.fakes.collibra.AssetsOfType(AssetTypeID))
}

func (s *jobSuite) TestPrepareIsIdempotentAndClearRemovesSchema() {
	ctx := context.Background()
	s.Require().NoError(Prepare(ctx, s.fakes.collibraClient, zap.NewNop()))
	s.True(s.fakes.collibra.HasSchema(string(client.ResourceDomains), LightupDomainID))
	s.True(s.fakes.collibra.HasSchema(string(client.ResourceAttributeTypes), AttrFieldName))

	s.Require().NoError(Clear(ctx, s.fakes.collibraClient, zap.NewNop()))
	s.False(s.fakes.collibra.HasSchema(string(client.ResourceDomains), LightupDomainID))
	s.False(s.fakes.collibra.HasSchema(string(client.ResourceAssignments), AssignmentID))
	s.False(s.fakes.collibra.HasSchema(string(client.ResourceAttributeTypes), AttrWorkspaceName))

	s.Require().NoError(Clear(ctx, s.fakes.collibraClient, zap.NewNop()))
}

func (s *jobSuite) TestAssetTypeRequiresPrepare() {
	s.Require().NoError(Clear(context.Background(), s.fakes.collibraClient, zap.NewNop()))

	result, err := s.run()
	s.Require().NoError(err)
	s.Equal(2, result.AssetsSkipped)
	s.Empty(s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
}

func (s *jobSuite) TestRerunRelinksAssetsPublishedWithoutLink() {
	ctx := context.Background()
	tracer := otel.Tracer("collibra-sync")
	fetcher := NewFetcher(s.fakes.lightupClient, zap.NewNop(), tracer, DefaultLookback, func() time.Time { return now })
	state, err := fetcher.LightupState(ctx, workspaceID, []string{sourceID}, catalogSourceID)
	s.Require().NoError(err)
	s.Len(NewWriter(s.fakes.collibraClient, zap.NewNop(), tracer, false).Publish(ctx, state), 2)
	s.Empty(s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))

	result, err := s.run()
	s.Require().NoError(err)

	s.Equal(2, result.OrphansDeleted)
	s.Equal(2, result.AssetsCreated)
	s.Zero(result.AssetsSkipped)
	s.ElementsMatch([]string{"mon-a", "mon-b"}, s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
	s.Len(s.fakes.collibra.AttributesOf("mon-a"), 10)
	s.Len(s.fakes.collibra.AssetsOfType(AssetTypeID), 2)
}

func (s *jobSuite) TestDryRunKeepsUnlinkedAssets() {
	_, err := s.run()
	s.Require().NoError(err)
	s.fakes.collibra.FailPaths["/rest/2.0/assets/tbl-orders/relations"] = http.StatusInternalServerError
	_, err = s.run()
	s.Require().Error(err)
	delete(s.fakes.collibra.FailPaths, "/rest/2.0/assets/tbl-orders/relations")
	before := len(s.fakes.collibra.RequestLog())

	s.job.DryRun = true
	result, err := s.run()
	s.Require().NoError(err)

	s.Zero(result.OrphansDeleted)
	for _, req := range s.fakes.collibra.RequestLog()[before:] {
		s.True(strings.HasPrefix(req, http.MethodGet+" "), req)
	}
	s.Len(s.fakes.collibra.AssetsOfType(AssetTypeID), 2)
}

func (s *jobSuite) TestRelationListingFailureAborts() {
	s.fakes.collibra.FailPaths["/rest/2.0/relations"] = http.StatusBadGateway

	result, err := s.run()
	s.Require().Error(err)
	s.Contains(err.Error(), "list relations")

	s.Zero(result.AssetsCreated)
	s.NotContains(s.fakes.collibra.RequestLog(), http.MethodPost+" /rest/2.0/assets")
	s.Empty(s.fakes.collibra.AssetsOfType(AssetTypeID))
}

func (s *jobSuite) TestAssetDeleteFailureAborts() {
	_, err := s.run()
	s.Require().NoError(err)
	before := len(s.fakes.collibra.RequestLog())
	s.fakes.collibra.FailPaths["/rest/2.0/assets/mon-a"] = http.StatusInternalServerError

	result, err := s.run()
	s.Require().Error(err)
	s.Contains(err.Error(), "delete asset mon-a")

	s.Zero(result.AssetsCreated)
	s.NotContains(s.fakes.collibra.RequestLog()[before:], http.MethodPost+" /rest/2.0/assets")
	s.Contains(s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID), "mon-a")
}

func (s *jobSuite) TestRelationReplaceFailureThenRerunRecovers() {
	s.fakes.collibra.FailPaths["/rest/2.0/assets/tbl-orders/relations"] = http.StatusInternalServerError

	result, err := s.run()
	s.Require().Error(err)
	s.Contains(err.Error(), "tbl-orders")
	s.Equal(2, result.AssetsCreated)
	s.Empty(s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))

	delete(s.fakes.collibra.FailPaths, "/rest/2.0/assets/tbl-orders/relations")
	result, err = s.run()
	s.Require().NoError(err)

	s.Equal(2, result.OrphansDeleted)
	s.Equal(2, result.AssetsCreated)
	s.Equal(1, result.TablesLinked)
	s.ElementsMatch([]string{"mon-a", "mon-b"}, s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
	s.Len(s.fakes.collibra.AttributesOf("mon-a"), 10)
	s.Len(s.fakes.collibra.AssetsOfType(AssetTypeID), 2)
}

func (s *jobSuite) TestAttributeFailureIsCountedAndStillLinked() {
	s.fakes.collibra.FailPaths["/rest/2.0/attributes"] = http.StatusInternalServerError

	result, err := s.run()
	s.Require().NoError(err)

	s.Equal(2, result.AssetsCreated)
	s.Equal(20, result.AttributesFailed)
	s.Equal(1, result.TablesLinked)
	s.ElementsMatch([]string{"mon-a", "mon-b"}, s.fakes.collibra.RelatedSources("tbl-orders", RelationTypeID))
	s.Empty(s.fakes.collibra.AttributesOf("mon-a"))
}
