package httpclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"
	"github.com/lightup-data/lightup-tools/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type EchoError struct {
	Message string `json:"message"`
}

// Client sends JSON requests. Retries only happen when the configured
// RetryMax is above zero.
type Client struct {
	http *retryablehttp.Client
}

func New(cfg config.HttpClient, logger *zap.Logger) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.RetryMax
	c.HTTPClient.Timeout = cfg.Timeout
	c.HTTPClient.Transport = otelhttp.NewTransport(c.HTTPClient.Transport)
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if logger != nil {
		c.Logger = leveledLogger{logger.Named("http").Sugar()}
	} else {
		c.Logger = nil
	}
	return &Client{http: c}
}

// DoRequest returns the response status code alongside any error so that
// callers can tell a missing object from a failed call.
func (c *Client) DoRequest(ctx context.Context, method, url string, headers map[string]string, payload []byte, v interface{}) (int, error) {
	var body interface{}
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	d, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, fmt.Errorf("read body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var echoerr EchoError
		if jserr := json.Unmarshal(d, &echoerr); jserr == nil && echoerr.Message != "" {
			return res.StatusCode, errors.New(echoerr.Message)
		}
		return res.StatusCode, fmt.Errorf("http status: %d: %s", res.StatusCode, d)
	}

	if v == nil || len(bytes.TrimSpace(d)) == 0 {
		return res.StatusCode, nil
	}
	if err := json.Unmarshal(d, v); err != nil {
		return res.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return res.StatusCode, nil
}

// StatusError turns client errors into *echo.HTTPError carrying the status.
func StatusError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	if 400 <= statusCode && statusCode < 500 {
		return echo.NewHTTPError(statusCode, err.Error())
	}
	return err
}

func IsNotFound(err error) bool {
	return HasStatus(err, http.StatusNotFound)
}

func HasStatus(err error, statusCode int) bool {
	var he *echo.HTTPError
	return errors.As(err, &he) && he.Code == statusCode
}

func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func BearerAuth(token string) string {
	return "Bearer " + token
}

type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) { l.s.Errorw(msg, keysAndValues...) }
func (l leveledLogger) Warn(msg string, keysAndValues ...interface{})  { l.s.Warnw(msg, keysAndValues...) }
func (l leveledLogger) Info(msg string, keysAndValues ...interface{})  { l.s.Debugw(msg, keysAndValues...) }
func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) { l.s.Debugw(msg, keysAndValues...) }
