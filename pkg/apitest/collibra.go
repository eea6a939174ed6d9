package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lightup-data/lightup-tools/services/collibra/api"
	"github.com/samber/lo"
)

const (
	CollibraUsername = "admin"
	CollibraPassword = "secret"
)

// Collibra is a fake catalog API mounted under /rest/2.0.
type Collibra struct {
	mu     sync.Mutex
	server *httptest.Server

	Assets     map[string]api.Asset
	Relations  []api.Relation
	Attributes []api.Attribute
	// Schema holds setup resources keyed by resource name and id.
	Schema map[string]map[string]json.RawMessage

	// FailAssetIDs rejects asset creation for these ids.
	FailAssetIDs map[string]bool
	// FailPaths makes matching request paths answer with the given status.
	FailPaths map[string]int
	Requests  []string
}

func NewCollibra(t *testing.T) *Collibra {
	c := &Collibra{
		Assets:       map[string]api.Asset{},
		Schema:       map[string]map[string]json.RawMessage{},
		FailAssetIDs: map[string]bool{},
		FailPaths:    map[string]int{},
	}

	e := echo.New()
	e.HideBanner = true
	g := e.Group("/rest/2.0", c.record, middleware.BasicAuth(func(username, password string, _ echo.Context) (bool, error) {
		return username == CollibraUsername && password == CollibraPassword, nil
	}))
	g.GET("/assets", c.listAssets)
	g.POST("/assets", c.createAsset)
	g.DELETE("/assets/:id", c.deleteAsset)
	g.PUT("/assets/:id/relations", c.setRelations)
	g.POST("/attributes", c.createAttribute)
	g.GET("/relations", c.listRelations)
	for _, resource := range []string{"attributeTypes", "assetTypes", "domains", "relationTypes", "assignments"} {
		resource := resource
		g.GET("/"+resource+"/:id", func(ctx echo.Context) error { return c.getSchema(ctx, resource) })
		g.POST("/"+resource, func(ctx echo.Context) error { return c.createSchema(ctx, resource) })
		g.PATCH("/"+resource+"/:id", func(ctx echo.Context) error { return c.patchSchema(ctx, resource) })
		g.DELETE("/"+resource+"/:id", func(ctx echo.Context) error { return c.deleteSchema(ctx, resource) })
	}

	c.server = httptest.NewServer(e)
	t.Cleanup(c.server.Close)
	return c
}

func (c *Collibra) RestURL() string {
	return c.server.URL + "/rest/2.0"
}

// AddTable registers a catalog table asset. Tables of one catalog source share
// the source's domain id and carry their schema as the domain name.
func (c *Collibra) AddTable(id, name, domainID, schemaName, typeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Assets[id] = api.Asset{
		ID:     id,
		Name:   name,
		Domain: api.ResourceReference{ID: domainID, Name: schemaName},
		Type:   api.ResourceReference{ID: typeID},
	}
}

// RelatedSources returns the source asset ids related to target by typeID.
func (c *Collibra) RelatedSources(target, typeID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, r := range c.Relations {
		if r.Target.ID == target && r.Type.ID == typeID {
			ids = append(ids, r.Source.ID)
		}
	}
	return ids
}

func (c *Collibra) AssetsOfType(typeID string) []api.Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Filter(lo.Values(c.Assets), func(a api.Asset, _ int) bool { return a.Type.ID == typeID })
}

func (c *Collibra) AttributesOf(assetID string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	attrs := map[string]any{}
	for _, a := range c.Attributes {
		if a.Asset.ID == assetID {
			attrs[a.Type.ID] = a.Value
		}
	}
	return attrs
}

func (c *Collibra) HasSchema(resource, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.Schema[resource][id]
	return ok
}

func (c *Collibra) RequestLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Requests...)
}

func (c *Collibra) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		c.mu.Lock()
		c.Requests = append(c.Requests, ctx.Request().Method+" "+ctx.Request().URL.Path)
		status, fail := c.FailPaths[ctx.Request().URL.Path]
		c.mu.Unlock()
		if fail {
			return echo.NewHTTPError(status, "injected failure")
		}
		return next(ctx)
	}
}

func page[T any](ctx echo.Context, items []T) error {
	offset, _ := strconv.Atoi(ctx.QueryParam("offset"))
	limit, err := strconv.Atoi(ctx.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = len(items)
	}
	res := api.PagedResponse[T]{Total: int64(len(items)), Offset: int64(offset), Limit: int64(limit), Results: []T{}}
	if offset < len(items) {
		res.Results = items[offset:min(offset+limit, len(items))]
	}
	return ctx.JSON(http.StatusOK, res)
}

func (c *Collibra) listAssets(ctx echo.Context) error {
	typeID, domainID := ctx.QueryParam("typeId"), ctx.QueryParam("domainId")
	c.mu.Lock()
	defer c.mu.Unlock()
	assets := lo.Filter(lo.Values(c.Assets), func(a api.Asset, _ int) bool {
		return (typeID == "" || a.Type.ID == typeID) && (domainID == "" || a.Domain.ID == domainID)
	})
	sortAssets(assets)
	return page(ctx, assets)
}

func (c *Collibra) createAsset(ctx echo.Context) error {
	var req api.AddAssetRequest
	if err := decode(ctx, &req); err != nil {
		return err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailAssetIDs[req.ID] {
		return echo.NewHTTPError(http.StatusBadRequest, "asset rejected")
	}
	if _, ok := c.Assets[req.ID]; ok {
		return echo.NewHTTPError(http.StatusBadRequest, "asset already exists")
	}
	if _, ok := c.Schema["domains"][req.DomainID]; !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown domain")
	}
	asset := api.Asset{
		ID:          req.ID,
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Domain:      api.ResourceReference{ID: req.DomainID},
		Type:        api.ResourceReference{ID: req.TypeID},
	}
	c.Assets[asset.ID] = asset
	return ctx.JSON(http.StatusCreated, asset)
}

func (c *Collibra) deleteAsset(ctx echo.Context) error {
	id := ctx.Param("id")
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Assets[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	delete(c.Assets, id)
	c.Relations = lo.Reject(c.Relations, func(r api.Relation, _ int) bool { return r.Source.ID == id || r.Target.ID == id })
	c.Attributes = lo.Reject(c.Attributes, func(a api.Attribute, _ int) bool { return a.Asset.ID == id })
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Collibra) setRelations(ctx echo.Context) error {
	var req api.SetRelationsRequest
	if err := decode(ctx, &req); err != nil {
		return err
	}
	id := ctx.Param("id")
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Assets[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found")
	}
	if req.RelationDirection != api.RelationDirectionToSource {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported relation direction")
	}
	c.Relations = lo.Reject(c.Relations, func(r api.Relation, _ int) bool { return r.Target.ID == id && r.Type.ID == req.TypeID })
	for _, source := range req.RelatedAssetIDs {
		if _, ok := c.Assets[source]; !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown related asset "+source)
		}
		c.Relations = append(c.Relations, api.Relation{
			ID:     uuid.NewString(),
			Source: api.ResourceReference{ID: source},
			Target: api.ResourceReference{ID: id},
			Type:   api.ResourceReference{ID: req.TypeID},
		})
	}
	return ctx.JSON(http.StatusOK, lo.Filter(c.Relations, func(r api.Relation, _ int) bool { return r.Target.ID == id }))
}

func (c *Collibra) createAttribute(ctx echo.Context) error {
	var req api.AddAttributeRequest
	if err := decode(ctx, &req); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Assets[req.AssetID]; !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown asset")
	}
	attr := api.Attribute{
		ID:    uuid.NewString(),
		Asset: api.ResourceReference{ID: req.AssetID},
		Type:  api.ResourceReference{ID: req.TypeID},
		Value: req.Value,
	}
	c.Attributes = append(c.Attributes, attr)
	return ctx.JSON(http.StatusCreated, attr)
}

func (c *Collibra) listRelations(ctx echo.Context) error {
	targetID, typeID := ctx.QueryParam("targetId"), ctx.QueryParam("relationTypeId")
	c.mu.Lock()
	defer c.mu.Unlock()
	relations := lo.Filter(c.Relations, func(r api.Relation, _ int) bool {
		return (targetID == "" || r.Target.ID == targetID) && (typeID == "" || r.Type.ID == typeID)
	})
	return page(ctx, relations)
}

func (c *Collibra) getSchema(ctx echo.Context, resource string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.Schema[resource][ctx.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, resource+" not found")
	}
	return ctx.JSONBlob(http.StatusOK, doc)
}

func (c *Collibra) createSchema(ctx echo.Context, resource string) error {
	var doc json.RawMessage
	if err := decode(ctx, &doc); err != nil {
		return err
	}
	var ref api.ResourceReference
	if err := json.Unmarshal(doc, &ref); err != nil || ref.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Schema[resource][ref.ID]; ok {
		return echo.NewHTTPError(http.StatusBadRequest, resource+" already exists")
	}
	if c.Schema[resource] == nil {
		c.Schema[resource] = map[string]json.RawMessage{}
	}
	c.Schema[resource][ref.ID] = doc
	return ctx.JSONBlob(http.StatusCreated, doc)
}

func (c *Collibra) patchSchema(ctx echo.Context, resource string) error {
	var doc json.RawMessage
	if err := decode(ctx, &doc); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Schema[resource][ctx.Param("id")]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, resource+" not found")
	}
	c.Schema[resource][ctx.Param("id")] = doc
	return ctx.JSONBlob(http.StatusOK, doc)
}

func (c *Collibra) deleteSchema(ctx echo.Context, resource string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Schema[resource][ctx.Param("id")]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, resource+" not found")
	}
	delete(c.Schema[resource], ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

func sortAssets(assets []api.Asset) {
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
}
