package collibrasync

import (
	"testing"
	"time"

	"github.com/lightup-data/lightup-tools/pkg/apitest"
	"github.com/lightup-data/lightup-tools/pkg/config"
	"github.com/lightup-data/lightup-tools/pkg/httpclient"
	collibra "github.com/lightup-data/lightup-tools/services/collibra/client"
	"github.com/lightup-data/lightup-tools/services/lightup/api"
	lightup "github.com/lightup-data/lightup-tools/services/lightup/client"
	"go.uber.org/zap"
)

const (
	workspaceID     = "42c046b7-e27c-468f-bb89-fbfdbeaabac3"
	sourceID        = "60c9c81f-02d1-405d-a0c3-7aeb5bae6ace"
	otherSourceID   = "694880c6-9473-4c8a-88b4-0877c600e564"
	catalogSourceID = "83ecd499-ee35-47b1-8333-98d2fc0474cf"
)

var now = time.Unix(1_700_000_000, 0)

func source(uuid, name, dbname string) api.Source {
	return api.Source{
		Metadata: api.SourceMetadata{UUID: uuid, Name: name},
		Config:   api.SourceConfig{Connection: api.SourceConnection{Type: "postgres", DBName: dbname}},
	}
}

func columnMetric(uuid, name, sourceUUID, schema, table, column string) api.Metric {
	return api.Metric{
		Metadata: api.MetricMetadata{UUID: uuid, Name: name, CreationType: api.MetricCreationTypeManual},
		Config: api.MetricConfig{
			ConfigType: api.MetricConfigTypeMetric,
			Sources:    []string{sourceUUID},
			Table: &api.MetricTable{
				Type:       api.TableTypeTable,
				SchemaName: schema,
				SchemaUUID: schema + "-uuid",
				TableName:  table,
				TableUUID:  table + "-uuid",
			},
			ValueColumns: []api.ValueColumn{{ColumnName: column, ColumnUUID: column + "-uuid"}},
			IsLive:       true,
		},
	}
}

func monitor(uuid, name, metricUUID string) api.Monitor {
	return api.Monitor{
		Metadata: api.MonitorMetadata{UUID: uuid, Name: name},
		Config: api.MonitorConfig{
			Metrics: []string{metricUUID},
			IsLive:  true,
			Symptom: api.Symptom{Type: api.SymptomValueOutsideExpectations},
		},
	}
}

func incident(monitorUUID string, start time.Time, ongoing bool) api.Incident {
	return api.Incident{
		FilterUUID: monitorUUID,
		StartTs:    float64(start.Unix()),
		EndTs:      float64(start.Add(time.Hour).Unix()),
		Ongoing:    ongoing,
	}
}

type fakes struct {
	lightup        *apitest.Lightup
	collibra       *apitest.Collibra
	lightupClient  lightup.LightupServiceClient
	collibraClient collibra.CollibraServiceClient
}

func newFakes(t *testing.T) fakes {
	hc := httpclient.New(config.HttpClient{Timeout: 10 * time.Second}, zap.NewNop())
	l := apitest.NewLightup(t)
	c := apitest.NewCollibra(t)
	return fakes{
		lightup:        l,
		collibra:       c,
		lightupClient:  lightup.NewLightupServiceClient(l.URL(), l.RefreshToken, hc),
		collibraClient: collibra.NewCollibraServiceClient(zap.NewNop(), c.RestURL(), apitest.CollibraUsername, apitest.CollibraPassword, hc),
	}
}
