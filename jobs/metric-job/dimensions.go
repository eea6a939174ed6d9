package metric

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	"github.com/lightup-data/lightup-tools/services/lightup/client"
	"go.uber.org/zap"
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// DimensionMap maps lower-cased metric tags to data quality dimensions.
type DimensionMap map[string]string

func DefaultDimensionMap() DimensionMap {
	m := DimensionMap{}
	for _, d := range []string{"accuracy", "completeness", "timeliness", "custom"} {
		m[d] = d
		m["dimension:"+d] = d
	}
	return m
}

func (m DimensionMap) Validate() error {
	return validate.Var(map[string]string(m), "required,min=1,dive,keys,required,endkeys,oneof=accuracy completeness timeliness custom")
}

func LoadDimensionMap(path string) (DimensionMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dimension map: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dimension map %s: %w", path, err)
	}
	m := DimensionMap{}
	for tag, dimension := range raw {
		m[strings.ToLower(tag)] = dimension
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dimension map %s: %w", path, err)
	}
	return m, nil
}

// DimensionFor returns the dimension of the metric's first tag that maps to
// a dimension other than the current one.
func (m DimensionMap) DimensionFor(metric api.Metric) (string, bool) {
	for _, tag := range metric.Metadata.Tags {
		dimension, ok := m[strings.ToLower(tag)]
		if !ok || dimension == metric.Config.Dimension {
			continue
		}
		return dimension, true
	}
	return "", false
}

type DimensionChange struct {
	WorkspaceID string
	MetricUUID  string
	MetricName  string
	From        string
	To          string
}

type TagsJob struct {
	Map    DimensionMap
	DryRun bool
}

// Do sets the dimension of every metric in every workspace from its tags.
// Tags are left in place.
func (j TagsJob) Do(ctx context.Context, lightup client.LightupServiceClient, logger *zap.Logger) ([]DimensionChange, error) {
	workspaces, err := lightup.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	var changes []DimensionChange
	for _, ws := range workspaces {
		metrics, err := lightup.ListMetrics(ctx, ws.UUID)
		if err != nil {
			return changes, fmt.Errorf("list metrics of %s: %w", ws.UUID, err)
		}
		for _, m := range metrics {
			dimension, ok := j.Map.DimensionFor(m)
			if !ok {
				continue
			}
			change := DimensionChange{
				WorkspaceID: ws.UUID,
				MetricUUID:  m.Metadata.UUID,
				MetricName:  m.Metadata.Name,
				From:        m.Config.Dimension,
				To:          dimension,
			}
			logger := logger.With(zap.String("metric_uuid", m.Metadata.UUID), zap.String("metric_name", m.Metadata.Name), zap.String("dimension", dimension))
			if j.DryRun {
				logger.Info("dry run: would update dimension")
				changes = append(changes, change)
				continue
			}
			if err := m.Set("config.dimension", dimension); err != nil {
				return changes, err
			}
			if _, err := lightup.UpdateMetric(ctx, ws.UUID, m.Metadata.UUID, m); err != nil {
				return changes, fmt.Errorf("update metric %s: %w", m.Metadata.UUID, err)
			}
			logger.Info("dimension updated")
			changes = append(changes, change)
		}
	}
	return changes, nil
}
