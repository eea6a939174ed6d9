// Package apitest runs in-process fakes of the Lightup and Collibra REST APIs.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/samber/lo"
)

// Lightup is a fake observability API. Tests seed the exported maps before
// issuing requests and inspect them afterwards.
type Lightup struct {
	mu     sync.Mutex
	server *httptest.Server

	RefreshToken string
	accessToken  string
	tokens       int

	Workspaces      []api.Workspace
	Sources         map[string][]api.Source
	Metrics         map[string][]api.Metric
	Monitors        map[string][]api.Monitor
	Incidents       map[string][]api.Incident
	MetricData      map[string][]api.Datapoint
	MonitorData     map[string][]api.FilterStat
	Tables          map[string][]api.Table
	Columns         map[string][]api.Column
	ProfilerConfigs map[string]json.RawMessage

	// FailPaths makes matching request paths answer with the given status.
	FailPaths map[string]int
	Requests  []string
}

func NewLightup(t *testing.T) *Lightup {
	l := &Lightup{
		RefreshToken:    "refresh-token",
		Sources:         map[string][]api.Source{},
		Metrics:         map[string][]api.Metric{},
		Monitors:        map[string][]api.Monitor{},
		Incidents:       map[string][]api.Incident{},
		MetricData:      map[string][]api.Datapoint{},
		MonitorData:     map[string][]api.FilterStat{},
		Tables:          map[string][]api.Table{},
		Columns:         map[string][]api.Column{},
		ProfilerConfigs: map[string]json.RawMessage{},
		FailPaths:       map[string]int{},
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(l.record, l.authenticate)
	e.POST("/api/v0/token/refresh/", l.refresh)
	e.GET("/api/v1/workspaces", l.listWorkspaces)

	ws := e.Group("/api/v1/ws/:ws")
	ws.GET("/sources", l.listSources)
	ws.GET("/metrics", l.listMetrics)
	ws.GET("/metrics/:uuid", l.getMetric)
	ws.PUT("/metrics/:uuid", l.updateMetric)
	ws.GET("/metrics/:uuid/data", l.metricData)
	ws.GET("/monitors", l.listMonitors)
	ws.POST("/monitors", l.createMonitor)
	ws.GET("/monitors/:uuid", l.getMonitor)
	ws.PUT("/monitors/:uuid", l.updateMonitor)
	ws.GET("/monitors/:uuid/data", l.monitorData)
	ws.GET("/incidents", l.listIncidents)
	ws.GET("/sources/:src/profile/tables", l.listTables)
	ws.GET("/sources/:src/profile/tables/:table/columns", l.listColumns)
	ws.PUT("/sources/:src/profile/tables/:table/profile-config", l.updateProfilerConfig)

	l.server = httptest.NewServer(e)
	t.Cleanup(l.server.Close)
	return l
}

func (l *Lightup) URL() string {
	return l.server.URL
}

// ExpireToken invalidates the issued access token.
func (l *Lightup) ExpireToken() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accessToken = "expired"
}

func (l *Lightup) TokensIssued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens
}

func (l *Lightup) RequestLog() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Requests...)
}

func (l *Lightup) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l.mu.Lock()
		l.Requests = append(l.Requests, c.Request().Method+" "+c.Request().URL.Path)
		status, fail := l.FailPaths[c.Request().URL.Path]
		l.mu.Unlock()
		if fail {
			return echo.NewHTTPError(status, "injected failure")
		}
		return next(c)
	}
}

func (l *Lightup) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/api/v0/token/refresh/" {
			return next(c)
		}
		l.mu.Lock()
		ok := l.RefreshToken == "" || c.Request().Header.Get("Authorization") == "Bearer "+l.accessToken
		l.mu.Unlock()
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
		}
		return next(c)
	}
}

func (l *Lightup) refresh(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if req.Refresh != l.RefreshToken {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	l.tokens++
	l.accessToken = fmt.Sprintf("access-%d", l.tokens)
	return c.JSON(http.StatusOK, map[string]string{"access": l.accessToken})
}

func (l *Lightup) listWorkspaces(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return c.JSON(http.StatusOK, api.ListWorkspacesResponse{Data: l.Workspaces})
}

func (l *Lightup) listSources(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return c.JSON(http.StatusOK, lo.Ternary(l.Sources[c.Param("ws")] == nil, []api.Source{}, l.Sources[c.Param("ws")]))
}

func (l *Lightup) listMetrics(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return c.JSON(http.StatusOK, lo.Ternary(l.Metrics[c.Param("ws")] == nil, []api.Metric{}, l.Metrics[c.Param("ws")]))
}

func (l *Lightup) getMetric(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, i, ok := lo.FindIndexOf(l.Metrics[c.Param("ws")], func(m api.Metric) bool { return m.Metadata.UUID == c.Param("uuid") })
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "metric not found")
	}
	return c.JSON(http.StatusOK, l.Metrics[c.Param("ws")][i])
}

func (l *Lightup) updateMetric(c echo.Context) error {
	var m api.Metric
	if err := decode(c, &m); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ws := c.Param("ws")
	_, i, ok := lo.FindIndexOf(l.Metrics[ws], func(m api.Metric) bool { return m.Metadata.UUID == c.Param("uuid") })
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "metric not found")
	}
	l.Metrics[ws][i] = m
	return c.JSON(http.StatusOK, m)
}

func (l *Lightup) metricData(c echo.Context) error {
	start, end, err := window(c)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	points := lo.Filter(l.MetricData[c.Param("uuid")], func(p api.Datapoint, _ int) bool {
		return start <= p.EventTs && p.EventTs <= end
	})
	return c.JSON(http.StatusOK, points)
}

func (l *Lightup) listMonitors(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return c.JSON(http.StatusOK, lo.Ternary(l.Monitors[c.Param("ws")] == nil, []api.Monitor{}, l.Monitors[c.Param("ws")]))
}

func (l *Lightup) getMonitor(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, i, ok := lo.FindIndexOf(l.Monitors[c.Param("ws")], func(m api.Monitor) bool { return m.Metadata.UUID == c.Param("uuid") })
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "monitor not found")
	}
	return c.JSON(http.StatusOK, l.Monitors[c.Param("ws")][i])
}

func (l *Lightup) createMonitor(c echo.Context) error {
	var m api.Monitor
	if err := decode(c, &m); err != nil {
		return err
	}
	if m.Metadata.UUID == "" {
		if err := m.Set("metadata.uuid", uuid.NewString()); err != nil {
			return err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ws := c.Param("ws")
	if lo.ContainsBy(l.Monitors[ws], func(o api.Monitor) bool { return o.Metadata.UUID == m.Metadata.UUID }) {
		return echo.NewHTTPError(http.StatusConflict, "monitor already exists")
	}
	l.Monitors[ws] = append(l.Monitors[ws], m)
	return c.JSON(http.StatusCreated, m)
}

func (l *Lightup) updateMonitor(c echo.Context) error {
	var m api.Monitor
	if err := decode(c, &m); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ws := c.Param("ws")
	_, i, ok := lo.FindIndexOf(l.Monitors[ws], func(m api.Monitor) bool { return m.Metadata.UUID == c.Param("uuid") })
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "monitor not found")
	}
	l.Monitors[ws][i] = m
	return c.JSON(http.StatusOK, m)
}

func (l *Lightup) monitorData(c echo.Context) error {
	start, end, err := window(c)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	stats := lo.Filter(l.MonitorData[c.Param("uuid")], func(s api.FilterStat, _ int) bool {
		return start <= s.Time && s.Time <= end
	})
	return c.JSON(http.StatusOK, stats)
}

func (l *Lightup) listIncidents(c echo.Context) error {
	start, end, err := window(c)
	if err != nil {
		return err
	}
	monitor := c.QueryParam("filter_uuid")
	l.mu.Lock()
	defer l.mu.Unlock()
	incidents := lo.Filter(l.Incidents[c.Param("ws")], func(i api.Incident, _ int) bool {
		if monitor != "" && i.FilterUUID != monitor {
			return false
		}
		return i.StartTs <= end && i.EndTs >= start
	})
	return c.JSON(http.StatusOK, incidents)
}

func (l *Lightup) listTables(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tables := lo.Ternary(l.Tables[c.Param("src")] == nil, []api.Table{}, l.Tables[c.Param("src")])
	return c.JSON(http.StatusOK, api.ListTablesResponse{Data: tables})
}

func (l *Lightup) listColumns(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return c.JSON(http.StatusOK, lo.Ternary(l.Columns[c.Param("table")] == nil, []api.Column{}, l.Columns[c.Param("table")]))
}

func (l *Lightup) updateProfilerConfig(c echo.Context) error {
	var cfg json.RawMessage
	if err := decode(c, &cfg); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !lo.ContainsBy(l.Tables[c.Param("src")], func(t api.Table) bool { return t.UUID == c.Param("table") }) {
		return echo.NewHTTPError(http.StatusNotFound, "table not found")
	}
	l.ProfilerConfigs[c.Param("table")] = cfg
	return c.JSON(http.StatusOK, cfg)
}

func window(c echo.Context) (float64, float64, error) {
	start, err := strconv.ParseFloat(c.QueryParam("start_ts"), 64)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid start_ts")
	}
	end, err := strconv.ParseFloat(c.QueryParam("end_ts"), 64)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid end_ts")
	}
	return start, end, nil
}

func decode(c echo.Context, v any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
