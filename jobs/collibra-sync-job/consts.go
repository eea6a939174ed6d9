package collibrasync

import (
	"time"

	"github.com/lightup-data/lightup-tools/services/collibra/api"
)

const DefaultLookback = 7 * 24 * time.Hour

// Built-in catalog objects.
const (
	CommunityID      = "00000000-0000-0000-0001-000100000001"
	DomainTypeID     = "00000000-0000-0000-0000-000000030023"
	AssetParentID    = "00000000-0000-0000-0000-000000031203"
	AssetMainID      = "00000000-0000-0000-0000-000000031000"
	StatusID         = "00000000-0000-0000-0000-000000005020"
	TableAssetTypeID = "00000000-0000-0000-0000-000000031007"
	DataElementRelID = "00000000-0000-0000-0000-000000007018"
)

// Catalog objects owned by the integration. They are created by prepare and
// removed by clear.
const (
	LightupDomainID = "b4316413-0101-0101-0102-dab063b4c111"
	AssetTypeID     = "b4316413-0101-0101-0102-dab063b4c112"
	RelationTypeID  = "b4316413-0101-0101-0102-dab063b4c114"
	AssignmentID    = "3320dcb0-3b2d-4453-ade6-cde32045c618"
)

const (
	AttrWorkspaceName = "b4316413-0101-0101-0101-dab063b4c100"
	AttrMonitorName   = "b4316413-0101-0101-0101-dab063b4c101"
	AttrMetricName    = "b4316413-0101-0101-0101-dab063b4c102"
	AttrIncidentCount = "b4316413-0101-0101-0101-dab063b4c103"
	AttrStatus        = "b4316413-0101-0101-0101-dab063b4c104"
	AttrMetricsURL    = "b4316413-0101-0101-0101-dab063b4c105"
	AttrDatabaseName  = "b4316413-0101-0101-0101-dab063b4c106"
	AttrSchemaName    = "b4316413-0101-0101-0101-dab063b4c107"
	AttrTableName     = "b4316413-0101-0101-0101-dab063b4c108"
	AttrFieldName     = "b4316413-0101-0101-0101-dab063b4c109"
)

func boolPtr(b bool) *bool { return &b }

func plainText(id, name, description string) api.AttributeType {
	return api.AttributeType{ID: id, Name: name, Description: description, Kind: api.AttributeKindString, StringType: api.StringTypePlainText}
}

func richText(id, name, description string) api.AttributeType {
	return api.AttributeType{ID: id, Name: name, Description: description, Kind: api.AttributeKindString, StringType: api.StringTypeRichText}
}

func AttributeTypes() []api.AttributeType {
	return []api.AttributeType{
		plainText(AttrWorkspaceName, "Lightup Workspace Name", "Lightup Attributes"),
		plainText(AttrMonitorName, "Lightup Monitor Name", "Lightup Attributes"),
		plainText(AttrMetricName, "Lightup Metric Name", "Lightup Attributes"),
		{
			ID:                AttrIncidentCount,
			Name:              "Lightup Incident Count",
			Description:       "Lightup Attributes",
			Kind:              api.AttributeKindNumeric,
			StatisticsEnabled: boolPtr(false),
			IsInteger:         boolPtr(true),
		},
		richText(AttrStatus, "Lightup Status", "Lightup Attributes - Ongoing Incident Count"),
		richText(AttrMetricsURL, "Lightup Metrics URL", "Lightup Attributes"),
		plainText(AttrDatabaseName, "Lightup Database Name", "Lightup Database Name"),
		plainText(AttrSchemaName, "Lightup Schema Name", "Lightup Schema Name"),
		plainText(AttrTableName, "Lightup Table Name", "Lightup Table Name"),
		plainText(AttrFieldName, "Lightup Field Name", "Lightup Field Name"),
	}
}
