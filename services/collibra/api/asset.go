package api

type ResourceReference struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Asset struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName,omitempty"`
	Domain      ResourceReference `json:"domain"`
	Type        ResourceReference `json:"type"`
}

type Relation struct {
	ID     string            `json:"id"`
	Source ResourceReference `json:"source"`
	Target ResourceReference `json:"target"`
	Type   ResourceReference `json:"type"`
}

type Attribute struct {
	ID    string            `json:"id"`
	Asset ResourceReference `json:"asset"`
	Type  ResourceReference `json:"type"`
	Value any               `json:"value"`
}

// PagedResponse is the envelope of every catalog listing.
type PagedResponse[T any] struct {
	Total   int64 `json:"total"`
	Offset  int64 `json:"offset"`
	Limit   int64 `json:"limit"`
	Results []T   `json:"results"`
}

type AddAssetRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	DomainID    string `json:"domainId"`
	TypeID      string `json:"typeId"`
}

type AddAttributeRequest struct {
	AssetID string `json:"assetId"`
	TypeID  string `json:"typeId"`
	Value   any    `json:"value"`
}

type RelationDirection string

const (
	RelationDirectionToSource RelationDirection = "TO_SOURCE"
	RelationDirectionToTarget RelationDirection = "TO_TARGET"
)

// SetRelationsRequest replaces every relation of one type on an asset.
type SetRelationsRequest struct {
	TypeID            string            `json:"typeId"`
	RelatedAssetIDs   []string          `json:"relatedAssetIds"`
	RelationDirection RelationDirection `json:"relationDirection"`
}
