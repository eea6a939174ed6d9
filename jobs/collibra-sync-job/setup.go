package collibrasync

import (
	"context"
	"fmt"

	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	"github.com/lightup-data/lightup-tools/services/collibra/api"
	"github.com/lightup-data/lightup-tools/services/collibra/client"
	"go.uber.org/zap"
)

func assetType() api.AddAssetTypeRequest {
	return api.AddAssetTypeRequest{
		ID:          AssetTypeID,
		Name:        "Lightup Incident",
		Description: "Lightup monitor published on a data asset",
		ParentID:    AssetParentID,
		SymbolType:  "NONE",
		Color:       "#9FD193",
	}
}

func domain() api.AddDomainRequest {
	return api.AddDomainRequest{
		ID:                           LightupDomainID,
		Name:                         "Lightup Incident Domain",
		CommunityID:                  CommunityID,
		TypeID:                       DomainTypeID,
		Description:                  "Lightup Incident Domain",
		ExcludedFromAutoHyperlinking: true,
	}
}

func relationType() api.AddRelationTypeRequest {
	return api.AddRelationTypeRequest{
		ID:           RelationTypeID,
		SourceTypeID: AssetTypeID,
		Role:         "has",
		TargetTypeID: AssetMainID,
		CoRole:       "metrics in",
		Description:  "Asset Has Metrics In",
	}
}

func assignment() api.AddAssignmentRequest {
	var characteristics []api.CharacteristicType
	for _, attr := range AttributeTypes() {
		characteristics = append(characteristics, api.CharacteristicType{
			ID: attr.ID, Min: 0, Max: 250, Type: api.CharacteristicStringAttributeType,
		})
	}
	characteristics = append(characteristics,
		api.CharacteristicType{
			ID: DataElementRelID, Min: 0, Max: 250, Type: api.CharacteristicRelationType,
			RelationTypeDirection: api.RelationDirectionToSource, RelationTypeRestriction: AssetMainID,
		},
		api.CharacteristicType{
			ID: RelationTypeID, Min: 0, Max: 250, Type: api.CharacteristicRelationType,
			RelationTypeDirection: api.RelationDirectionToSource, RelationTypeRestriction: AssetTypeID,
		},
	)
	return api.AddAssignmentRequest{
		ID:                  AssignmentID,
		AssetTypeID:         AssetTypeID,
		StatusIDs:           []string{StatusID},
		CharacteristicTypes: characteristics,
		DomainTypeIDs:       []string{DomainTypeID},
		DefaultStatusID:     StatusID,
	}
}

// Prepare creates the catalog objects the sync writes to. Attribute types that
// already exist are updated, other existing objects are left as they are.
func Prepare(ctx context.Context, collibra client.CollibraServiceClient, logger *zap.Logger) error {
	for _, attr := range AttributeTypes() {
		exists, err := collibra.Exists(ctx, client.ResourceAttributeTypes, attr.ID)
		if err != nil {
			return fmt.Errorf("get attribute type %s: %w", attr.Name, err)
		}
		if exists {
			err = collibra.Patch(ctx, client.ResourceAttributeTypes, attr.ID, attr)
		} else {
			err = collibra.Create(ctx, client.ResourceAttributeTypes, attr)
		}
		if err != nil {
			return fmt.Errorf("write attribute type %s: %w", attr.Name, err)
		}
		logger.Info("attribute type ready", zap.String("id", attr.ID), zap.String("name", attr.Name), zap.Bool("updated", exists))
	}

	for _, obj := range []struct {
		resource client.Resource
		id       string
		req      any
	}{
		{client.ResourceAssetTypes, AssetTypeID, assetType()},
		{client.ResourceDomains, LightupDomainID, domain()},
		{client.ResourceRelationTypes, RelationTypeID, relationType()},
		{client.ResourceAssignments, AssignmentID, assignment()},
	} {
		exists, err := collibra.Exists(ctx, obj.resource, obj.id)
		if err != nil {
			return fmt.Errorf("get %s %s: %w", obj.resource, obj.id, err)
		}
		if exists {
			logger.Info("already exists", zap.String("resource", string(obj.resource)), zap.String("id", obj.id))
			continue
		}
		if err := collibra.Create(ctx, obj.resource, obj.req); err != nil {
			return fmt.Errorf("create %s %s: %w", obj.resource, obj.id, err)
		}
	}
	logger.Info("created all Lightup collibra objects")
	return nil
}

// Clear deletes every catalog object Prepare creates. Objects that are
// already gone are skipped.
func Clear(ctx context.Context, collibra client.CollibraServiceClient, logger *zap.Logger) error {
	type ref struct {
		resource client.Resource
		id       string
	}
	refs := []ref{
		{client.ResourceAssignments, AssignmentID},
		{client.ResourceRelationTypes, RelationTypeID},
		{client.ResourceAssetTypes, AssetTypeID},
		{client.ResourceDomains, LightupDomainID},
	}
	for _, attr := range AttributeTypes() {
		refs = append(refs, ref{client.ResourceAttributeTypes, attr.ID})
	}

	for _, r := range refs {
		err := collibra.Delete(ctx, r.resource, r.id)
		if httpclient.IsNotFound(err) {
			logger.Info("already deleted", zap.String("resource", string(r.resource)), zap.String("id", r.id))
			continue
		}
		if err != nil {
			return fmt.Errorf("delete %s %s: %w", r.resource, r.id, err)
		}
	}
	logger.Info("deleted all Lightup collibra objects")
	return nil
}
