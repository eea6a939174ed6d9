package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	"github.com/lightup-data/lightup-tools/services/collibra/api"
	"go.uber.org/zap"
)

type Resource string

const (
	ResourceAttributeTypes Resource = "attributeTypes"
	ResourceAssetTypes     Resource = "assetTypes"
	ResourceDomains        Resource = "domains"
	ResourceRelationTypes  Resource = "relationTypes"
	ResourceAssignments    Resource = "assignments"
	ResourceAssets         Resource = "assets"
)

const defaultPageSize = 1000

type CollibraServiceClient interface {
	ListAssets(ctx context.Context, typeID, domainID string) ([]api.Asset, error)
	CreateAsset(ctx context.Context, req api.AddAssetRequest) (*api.Asset, error)
	DeleteAsset(ctx context.Context, assetID string) error
	CreateAttribute(ctx context.Context, req api.AddAttributeRequest) (*api.Attribute, error)

	ListRelations(ctx context.Context, targetID, relationTypeID string) ([]api.Relation, error)
	// SetRelations replaces every relation of req.TypeID on the asset.
	SetRelations(ctx context.Context, assetID string, req api.SetRelationsRequest) error

	// Exists reports whether a resource is present. Only a 404 counts as absent.
	Exists(ctx context.Context, resource Resource, id string) (bool, error)
	Create(ctx context.Context, resource Resource, req any) error
	Patch(ctx context.Context, resource Resource, id string, req any) error
	Delete(ctx context.Context, resource Resource, id string) error
}

type collibraServiceClient struct {
	logger   *zap.Logger
	restURL  string
	auth     string
	pageSize int
	http     *httpclient.Client
}

func NewCollibraServiceClient(logger *zap.Logger, restURL, username, password string, http *httpclient.Client) CollibraServiceClient {
	return &collibraServiceClient{
		logger:   logger.Named("collibra"),
		restURL:  strings.TrimSuffix(restURL, "/"),
		auth:     httpclient.BasicAuth(username, password),
		pageSize: defaultPageSize,
		http:     http,
	}
}

func (c *collibraServiceClient) do(ctx context.Context, method, path string, body any, v any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	c.logger.Debug("request", zap.String("method", method), zap.String("path", path))
	headers := map[string]string{"Authorization": c.auth}
	statusCode, err := c.http.DoRequest(ctx, method, c.restURL+"/"+path, headers, payload, v)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, httpclient.StatusError(statusCode, err))
	}
	return nil
}

func list[T any](ctx context.Context, c *collibraServiceClient, resource Resource, q url.Values) ([]T, error) {
	var items []T
	for offset := 0; ; {
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(c.pageSize))
		var page api.PagedResponse[T]
		if err := c.do(ctx, http.MethodGet, string(resource)+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Results...)
		offset += len(page.Results)
		if len(page.Results) == 0 || int64(offset) >= page.Total {
			return items, nil
		}
	}
}

func (c *collibraServiceClient) ListAssets(ctx context.Context, typeID, domainID string) ([]api.Asset, error) {
	q := url.Values{}
	q.Set("typeId", typeID)
	q.Set("domainId", domainID)
	return list[api.Asset](ctx, c, ResourceAssets, q)
}

func (c *collibraServiceClient) CreateAsset(ctx context.Context, req api.AddAssetRequest) (*api.Asset, error) {
	var asset api.Asset
	if err := c.do(ctx, http.MethodPost, string(ResourceAssets), req, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (c *collibraServiceClient) DeleteAsset(ctx context.Context, assetID string) error {
	return c.Delete(ctx, ResourceAssets, assetID)
}

func (c *collibraServiceClient) CreateAttribute(ctx context.Context, req api.AddAttributeRequest) (*api.Attribute, error) {
	var attr api.Attribute
	if err := c.do(ctx, http.MethodPost, "attributes", req, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}

func (c *collibraServiceClient) ListRelations(ctx context.Context, targetID, relationTypeID string) ([]api.Relation, error) {
	q := url.Values{}
	q.Set("targetId", targetID)
	q.Set("relationTypeId", relationTypeID)
	return list[api.Relation](ctx, c, "relations", q)
}

func (c *collibraServiceClient) SetRelations(ctx context.Context, assetID string, req api.SetRelationsRequest) error {
	if req.RelatedAssetIDs == nil {
		req.RelatedAssetIDs = []string{}
	}
	path := fmt.Sprintf("%s/%s/relations", ResourceAssets, url.PathEscape(assetID))
	return c.do(ctx, http.MethodPut, path, req, nil)
}

func (c *collibraServiceClient) Exists(ctx context.Context, resource Resource, id string) (bool, error) {
	err := c.do(ctx, http.MethodGet, resourcePath(resource, id), nil, nil)
	if httpclient.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *collibraServiceClient) Create(ctx context.Context, resource Resource, req any) error {
	return c.do(ctx, http.MethodPost, string(resource), req, nil)
}

func (c *collibraServiceClient) Patch(ctx context.Context, resource Resource, id string, req any) error {
	return c.do(ctx, http.MethodPatch, resourcePath(resource, id), req, nil)
}

func (c *collibraServiceClient) Delete(ctx context.Context, resource Resource, id string) error {
	return c.do(ctx, http.MethodDelete, resourcePath(resource, id), nil, nil)
}

func resourcePath(resource Resource, id string) string {
	return string(resource) + "/" + url.PathEscape(id)
}
