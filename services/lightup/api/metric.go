package api

import (
	"encoding/json"
)

type MetricConfigType string

const (
	MetricConfigTypeMetric    MetricConfigType = "metricConfig"
	MetricConfigTypeFullTable MetricConfigType = "fullTableMetricConfig"
)

type MetricCreationType string

const (
	MetricCreationTypeManual MetricCreationType = "manual"
	MetricCreationTypeAuto   MetricCreationType = "auto"
)

type TableType string

const (
	TableTypeTable     TableType = "table"
	TableTypeCustomSQL TableType = "customSql"
)

const AggregationTypeVolume = "volume"

type Metric struct {
	Metadata MetricMetadata `json:"metadata"`
	Config   MetricConfig   `json:"config"`
	Status   MetricStatus   `json:"status"`

	// Raw is the document as received from the server.
	Raw json.RawMessage `json:"-"`
}

type MetricMetadata struct {
	UUID         string             `json:"uuid"`
	Name         string             `json:"name"`
	WorkspaceID  string             `json:"workspaceId,omitempty"`
	IDSerial     int64              `json:"idSerial"`
	CreationType MetricCreationType `json:"creationType"`
	Description  string             `json:"description,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
}

type MetricConfig struct {
	ConfigType     MetricConfigType `json:"configType"`
	Sources        []string         `json:"sources"`
	Table          *MetricTable     `json:"table,omitempty"`
	ValueColumns   []ValueColumn    `json:"valueColumns,omitempty"`
	Dimension      string           `json:"dimension,omitempty"`
	IsLive         bool             `json:"isLive"`
	Aggregation    *Aggregation     `json:"aggregation,omitempty"`
	CollectionMode *CollectionMode  `json:"collectionMode,omitempty"`
}

type MetricTable struct {
	Type       TableType `json:"type"`
	SchemaName string    `json:"schemaName,omitempty"`
	SchemaUUID string    `json:"schemaUuid,omitempty"`
	TableName  string    `json:"tableName,omitempty"`
	TableUUID  string    `json:"tableUuid,omitempty"`
	ColumnName string    `json:"columnName,omitempty"`
	ColumnUUID string    `json:"columnUuid,omitempty"`
}

type ValueColumn struct {
	ColumnName string `json:"columnName"`
	ColumnUUID string `json:"columnUuid,omitempty"`
}

type Aggregation struct {
	Type string `json:"type"`
}

type CollectionMode struct {
	Type string `json:"type"`
}

type MetricStatus struct {
	LastSampleTs    *float64 `json:"lastSampleTs,omitempty"`
	ConfigUpdatedTs *float64 `json:"configUpdatedTs,omitempty"`
	RunStatus       string   `json:"runStatus,omitempty"`
}

// HasPhysicalLocation is false for compare and derived metrics, which are not
// bound to one table or column.
func (c MetricConfig) HasPhysicalLocation() bool {
	return c.ConfigType == MetricConfigTypeMetric || c.ConfigType == MetricConfigTypeFullTable
}

func (c MetricConfig) SourceUUID() string {
	if len(c.Sources) == 0 {
		return ""
	}
	return c.Sources[0]
}

func (c MetricConfig) TableOrEmpty() MetricTable {
	if c.Table == nil {
		return MetricTable{}
	}
	return *c.Table
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	type metric Metric
	var v metric
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric(v)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type metric Metric
	return json.Marshal(metric(m))
}

// Set updates one field of the raw document and re-reads the typed view.
func (m *Metric) Set(path string, value any) error {
	raw, err := m.document()
	if err != nil {
		return err
	}
	raw, err = setPath(raw, path, value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, m)
}

func (m *Metric) document() (json.RawMessage, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return json.Marshal(m)
}
