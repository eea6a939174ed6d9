package api

import (
	"encoding/json"
	"fmt"
)

type SymptomType string

const (
	SymptomValueOutsideExpectations          SymptomType = "valueOutsideExpectations"
	SymptomValueOutsideExpectationsWithTrend SymptomType = "valueOutsideExpectationsWithTrend"
)

type Monitor struct {
	Metadata MonitorMetadata `json:"metadata"`
	Config   MonitorConfig   `json:"config"`
	Status   MonitorStatus   `json:"status"`

	Raw json.RawMessage `json:"-"`
}

type MonitorMetadata struct {
	UUID        string   `json:"uuid,omitempty"`
	Name        string   `json:"name"`
	WorkspaceID string   `json:"workspaceId,omitempty"`
	IDSerial    int64    `json:"idSerial,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type MonitorConfig struct {
	Metrics     []string `json:"metrics"`
	IsLive      bool     `json:"isLive"`
	LiveStartTs *float64 `json:"liveStartTs,omitempty"`
	Symptom     Symptom  `json:"symptom"`
}

type Symptom struct {
	Type           SymptomType     `json:"type"`
	Aggressiveness *Aggressiveness `json:"aggressiveness,omitempty"`
}

type Aggressiveness struct {
	Level int `json:"level"`
}

type MonitorStatus struct {
	LastSampleTs    *float64 `json:"lastSampleTs,omitempty"`
	ConfigUpdatedTs *float64 `json:"configUpdatedTs,omitempty"`
	RunStatus       string   `json:"runStatus,omitempty"`
}

func (m Monitor) MetricUUID() string {
	if len(m.Config.Metrics) == 0 {
		return ""
	}
	return m.Config.Metrics[0]
}

func (m Monitor) String() string {
	return fmt.Sprintf("%s (%s)", m.Metadata.Name, m.Metadata.UUID)
}

func (m *Monitor) UnmarshalJSON(data []byte) error {
	type monitor Monitor
	var v monitor
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Monitor(v)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (m Monitor) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type monitor Monitor
	return json.Marshal(monitor(m))
}

func (m *Monitor) Set(path string, value any) error {
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

func (m *Monitor) Delete(path string) error {
	raw, err := m.document()
	if err != nil {
		return err
	}
	raw, err = deletePath(raw, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, m)
}

func (m *Monitor) document() (json.RawMessage, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return json.Marshal(m)
}
