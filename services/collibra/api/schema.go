package api

type AttributeKind string

const (
	AttributeKindString  AttributeKind = "STRING"
	AttributeKindNumeric AttributeKind = "NUMERIC"
)

type StringType string

const (
	StringTypePlainText StringType = "PLAIN_TEXT"
	StringTypeRichText  StringType = "RICH_TEXT"
)

type AttributeType struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	Kind              AttributeKind `json:"kind"`
	StringType        StringType    `json:"stringType,omitempty"`
	StatisticsEnabled *bool         `json:"statisticsEnabled,omitempty"`
	IsInteger         *bool         `json:"isInteger,omitempty"`
}

type AddAssetTypeRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	ParentID           string `json:"parentId"`
	SymbolType         string `json:"symbolType"`
	Color              string `json:"color"`
	DisplayNameEnabled bool   `json:"displayNameEnabled"`
	RatingEnabled      bool   `json:"ratingEnabled"`
}

type AddDomainRequest struct {
	ID                           string `json:"id"`
	Name                         string `json:"name"`
	CommunityID                  string `json:"communityId"`
	TypeID                       string `json:"typeId"`
	Description                  string `json:"description,omitempty"`
	ExcludedFromAutoHyperlinking bool   `json:"excludedFromAutoHyperlinking"`
}

type AddRelationTypeRequest struct {
	ID           string `json:"id"`
	SourceTypeID string `json:"sourceTypeId"`
	Role         string `json:"role"`
	TargetTypeID string `json:"targetTypeId"`
	CoRole       string `json:"coRole"`
	Description  string `json:"description,omitempty"`
}

type CharacteristicKind string

const (
	CharacteristicStringAttributeType CharacteristicKind = "StringAttributeType"
	CharacteristicRelationType        CharacteristicKind = "RelationType"
)

type CharacteristicType struct {
	ID                      string             `json:"id"`
	Min                     int                `json:"min"`
	Max                     int                `json:"max"`
	Type                    CharacteristicKind `json:"type"`
	RelationTypeDirection   RelationDirection  `json:"relationTypeDirection,omitempty"`
	RelationTypeRestriction string             `json:"relationTypeRestriction,omitempty"`
}

type AddAssignmentRequest struct {
	ID                  string               `json:"id"`
	AssetTypeID         string               `json:"assetTypeId"`
	StatusIDs           []string             `json:"statusIds"`
	CharacteristicTypes []CharacteristicType `json:"characteristicTypes"`
	DomainTypeIDs       []string             `json:"domainTypeIds"`
	DefaultStatusID     string               `json:"defaultStatusId"`
}
