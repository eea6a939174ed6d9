package api

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

type Table struct {
	UUID           string         `json:"uuid"`
	SchemaName     string         `json:"schemaName"`
	TableName      string         `json:"tableName"`
	ProfilerConfig ProfilerConfig `json:"profilerConfig"`

	Raw json.RawMessage `json:"-"`
}

type ProfilerConfig struct {
	Enabled         bool   `json:"enabled"`
	Timezone        string `json:"timezone,omitempty"`
	DataTimezone    string `json:"dataTimezone,omitempty"`
	TimestampColumn string `json:"timestampColumn,omitempty"`
	Window          string `json:"window,omitempty"`
}

type ListTablesResponse struct {
	Data []Table `json:"data"`
}

type Column struct {
	UUID       string `json:"uuid"`
	ColumnName string `json:"columnName"`
	ColumnType string `json:"columnType"`
}

type Toggle struct {
	Enabled bool `json:"enabled"`
}

// TableProfilerConfig is the profiler configuration written when profiling
// is switched on for a table.
type TableProfilerConfig struct {
	Enabled           bool   `json:"enabled"`
	TimestampColumn   string `json:"timestampColumn"`
	Window            string `json:"window"`
	TableSchemaChange Toggle `json:"tableSchemaChange"`
	DataDelay         Toggle `json:"dataDelay"`
	Volume            Toggle `json:"volume"`
}

func NewTableProfilerConfig(timestampColumn, window string) TableProfilerConfig {
	return TableProfilerConfig{
		Enabled:           true,
		TimestampColumn:   timestampColumn,
		Window:            window,
		TableSchemaChange: Toggle{Enabled: false},
		DataDelay:         Toggle{Enabled: true},
		Volume:            Toggle{Enabled: true},
	}
}

func (t *Table) UnmarshalJSON(data []byte) error {
	type table Table
	var v table
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Table(v)
	t.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (t Table) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	type table Table
	return json.Marshal(table(t))
}

// RawProfilerConfig is the table's profiler configuration as sent by the
// server, with every field it carries.
func (t Table) RawProfilerConfig() (json.RawMessage, error) {
	if len(t.Raw) == 0 {
		return json.Marshal(t.ProfilerConfig)
	}
	res := gjson.GetBytes(t.Raw, "profilerConfig")
	if !res.Exists() {
		return nil, fmt.Errorf("table %s has no profiler config", t.UUID)
	}
	return json.RawMessage(res.Raw), nil
}

// ProfilerConfigWith returns the raw profiler configuration with one field
// replaced.
func (t Table) ProfilerConfigWith(path string, value any) (json.RawMessage, error) {
	raw, err := t.RawProfilerConfig()
	if err != nil {
		return nil, err
	}
	return setPath(raw, path, value)
}
