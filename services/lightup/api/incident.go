package api

import (
	"encoding/json"
	"reflect"
)

// Slice identifies one series of a sliced metric, e.g. {"region": "us"}.
// Unsliced series have an empty slice.
type Slice map[string]any

func (s Slice) Equal(o Slice) bool {
	if len(s) == 0 && len(o) == 0 {
		return true
	}
	return reflect.DeepEqual(s, o)
}

func (s Slice) String() string {
	if len(s) == 0 {
		return ""
	}
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}

type Incident struct {
	ID         int64   `json:"id,omitempty"`
	FilterUUID string  `json:"filter_uuid"`
	Slice      Slice   `json:"slice,omitempty"`
	StartTs    float64 `json:"start_ts"`
	EndTs      float64 `json:"end_ts"`
	Ongoing    bool    `json:"ongoing"`
}

// Covers reports whether ts falls within the incident, bounds included.
func (i Incident) Covers(ts float64) bool {
	return i.StartTs <= ts && ts <= i.EndTs
}
