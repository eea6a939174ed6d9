package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
)

type LightupServiceClient interface {
	// URLBase is the cluster address used to build links into the UI.
	URLBase() string

	ListWorkspaces(ctx context.Context) ([]api.Workspace, error)
	ListSources(ctx context.Context, workspaceID string) ([]api.Source, error)

	ListMetrics(ctx context.Context, workspaceID string) ([]api.Metric, error)
	GetMetric(ctx context.Context, workspaceID, metricUUID string) (*api.Metric, error)
	UpdateMetric(ctx context.Context, workspaceID, metricUUID string, metric api.Metric) (*api.Metric, error)

	ListMonitors(ctx context.Context, workspaceID string) ([]api.Monitor, error)
	GetMonitor(ctx context.Context, workspaceID, monitorUUID string) (*api.Monitor, error)
	CreateMonitor(ctx context.Context, workspaceID string, monitor api.Monitor) (*api.Monitor, error)
	UpdateMonitor(ctx context.Context, workspaceID, monitorUUID string, monitor api.Monitor) (*api.Monitor, error)

	// ListIncidents lists incidents within [start, end]. An empty monitorUUID
	// lists incidents of every monitor in the workspace.
	ListIncidents(ctx context.Context, workspaceID string, start, end time.Time, monitorUUID string) ([]api.Incident, error)
	GetMetricDatapoints(ctx context.Context, workspaceID, metricUUID string, start, end time.Time) ([]api.Datapoint, error)
	GetMonitorDatapoints(ctx context.Context, workspaceID, monitorUUID string, start, end time.Time) ([]api.FilterStat, error)

	ListTables(ctx context.Context, workspaceID, sourceUUID string) ([]api.Table, error)
	ListColumns(ctx context.Context, workspaceID, sourceUUID, tableUUID string) ([]api.Column, error)
	UpdateTableProfilerConfig(ctx context.Context, workspaceID, sourceUUID, tableUUID string, config any) error
}

type lightupClient struct {
	baseURL      string
	refreshToken string
	http         *httpclient.Client

	mu          sync.Mutex
	accessToken string
}

func NewLightupServiceClient(baseURL, refreshToken string, http *httpclient.Client) LightupServiceClient {
	return &lightupClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		refreshToken: refreshToken,
		http:         http,
	}
}

func (s *lightupClient) URLBase() string {
	return s.baseURL
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// token returns the current access token, refreshing it when there is none
// or when it is still the stale one.
func (s *lightupClient) token(ctx context.Context, stale string) (string, error) {
	if s.refreshToken == "" {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken != "" && s.accessToken != stale {
		return s.accessToken, nil
	}
	if err := s.refresh(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

func (s *lightupClient) refresh(ctx context.Context) error {
	payload, err := json.Marshal(refreshRequest{Refresh: s.refreshToken})
	if err != nil {
		return err
	}
	var res refreshResponse
	statusCode, err := s.http.DoRequest(ctx, http.MethodPost, s.baseURL+"/api/v0/token/refresh/", nil, payload, &res)
	if err != nil {
		return fmt.Errorf("refresh access token: %w", httpclient.StatusError(statusCode, err))
	}
	if res.Access == "" {
		return fmt.Errorf("refresh access token: empty access token")
	}
	s.accessToken = res.Access
	return nil
}

func (s *lightupClient) do(ctx context.Context, method, path string, body any, v any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	token, err := s.token(ctx, "")
	if err != nil {
		return err
	}
	statusCode, err := s.http.DoRequest(ctx, method, s.baseURL+path, headers(token), payload, v)
	if statusCode == http.StatusUnauthorized && s.refreshToken != "" {
		if token, err = s.token(ctx, token); err != nil {
			return err
		}
		statusCode, err = s.http.DoRequest(ctx, method, s.baseURL+path, headers(token), payload, v)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, httpclient.StatusError(statusCode, err))
	}
	return nil
}

func headers(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": httpclient.BearerAuth(token)}
}

func wsPath(workspaceID string, parts ...string) string {
	p := "/api/v1/ws/" + url.PathEscape(workspaceID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func window(start, end time.Time) url.Values {
	q := url.Values{}
	q.Set("start_ts", strconv.FormatInt(start.Unix(), 10))
	q.Set("end_ts", strconv.FormatInt(end.Unix(), 10))
	return q
}

func (s *lightupClient) ListWorkspaces(ctx context.Context) ([]api.Workspace, error) {
	var res api.ListWorkspacesResponse
	if err := s.do(ctx, http.MethodGet, "/api/v1/workspaces", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *lightupClient) ListSources(ctx context.Context, workspaceID string) ([]api.Source, error) {
	var res []api.Source
	if err := s.do(ctx, http.MethodGet, wsPath(workspaceID, "sources"), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *lightupClient) ListMetrics(ctx context.Context, workspaceID string) ([]api.Metric, error) {
	var res []api.Metric
	if err := s.do(ctx, http.MethodGet, wsPath(workspaceID, "metrics"), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *lightupClient) GetMetric(ctx context.Context, workspaceID, metricUUID string) (*api.Metric, error) {
	var res api.Metric
	if err := s.do(ctx, http.MethodGet, wsPath(workspaceID, "metrics", metricUUID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *lightupClient) UpdateMetric(ctx context.Context, workspaceID, metricUUID string, metric api.Metric) (*api.Metric, error) {
	var res api.Metric
	if err := s.do(ctx, http.MethodPut, wsPath(workspaceID, "metrics", metricUUID), metric, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *lightupClient) ListMonitors(ctx context.Context, workspaceID string) ([]api.Monitor, error) {
	var res []api.Monitor
	if err := s.do(ctx, http.MethodGet, wsPath(workspaceID, "monitors"), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *lightupClient) GetMonitor(ctx context.Context, workspaceID, monitorUUID string) (*api.Monitor, error) {
	var res api.Monitor
	if err := s.do(ctx, http.MethodGet, wsPath(workspaceID, "monitors", monitorUUID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *lightupClient) CreateMonitor(ctx context.Context, workspaceID string, monitor api.Monitor) (*api.Monitor, error) {
	var res api.Monitor
	if err := s.do(ctx, http.MethodPost, wsPath(workspaceID, "monitors"), monitor, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *lightupClient) UpdateMonitor(ctx context.Context, workspaceID, monitorUUID string, monitor api.Monitor) (*api.Monitor, error) {
	var res api.Monitor
	if err := s.do(ctx, http.MethodPut, wsPath(workspaceID, "monitors", monitorUUID), monitor, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *lightupClient) ListIncidents(ctx context.Context, workspaceID string, start, end time.Time, monitorUUID string) ([]api.Incident, error) {
	q := window(start, end)
	if monitorUUID != "" {
		q.Set("filter_uuid", monitorUUID)
	}
	var res []api.Incident
	if err := s.do(ctx, http.MethodGet, wsPath(workspaceID, "incidents")+"?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *lightupClient) GetMetricDatapoints(ctx context.Context, workspaceID, metricUUID string, start, end time.Time) ([]api.Datapoint, error) {
	var res []api.Datapoint
	path := wsPath(workspaceID, "metrics", metricUUID, "data") + "?" + window(start, end).Encode()
	if err := s.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *lightupClient) GetMonitorDatapoints(ctx context.Context, workspaceID, monitorUUID string, start, end time.Time) ([]api.FilterStat, error) {
	var res []api.FilterStat
	path := wsPath(workspaceID, "monitors", monitorUUID, "data") + "?" + window(start, end).Encode()
	if err := s.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *lightupClient) ListTables(ctx context.Context, workspaceID, sourceUUID string) ([]api.Table, error) {
	var res api.ListTablesResponse
	if err := s.do(ctx, http.MethodGet, wsPath(workspaceID, "sources", sourceUUID, "profile", "tables"), nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *lightupClient) ListColumns(ctx context.Context, workspaceID, sourceUUID, tableUUID string) ([]api.Column, error) {
	var res []api.Column
	path := wsPath(workspaceID, "sources", sourceUUID, "profile", "tables", tableUUID, "columns")
	if err := s.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *lightupClient) UpdateTableProfilerConfig(ctx context.Context, workspaceID, sourceUUID, tableUUID string, config any) error {
	path := wsPath(workspaceID, "sources", sourceUUID, "profile", "tables", tableUUID, "profile-config")
	return s.do(ctx, http.MethodPut, path, config, nil)
}
