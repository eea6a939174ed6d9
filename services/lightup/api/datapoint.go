package api

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a datapoint value. The server may send null or "NaN" for missing
// values; both decode to an invalid Value.
type Value struct {
	Float float64
	Valid bool
}

func NewValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Float: f, Valid: true}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = NewValue(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*v = NewValue(f)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// Ptr returns nil for missing values.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float
	return &f
}

type Datapoint struct {
	EventTs    float64  `json:"eventTs"`
	Slice      Slice    `json:"slice,omitempty"`
	Value      Value    `json:"value"`
	RecordedTs *float64 `json:"recordedTs,omitempty"`
}

// FilterStat is one monitor evaluation of a datapoint.
type FilterStat struct {
	FilterUUID     string  `json:"filter_uuid"`
	Slice          Slice   `json:"slice,omitempty"`
	Time           float64 `json:"time"`
	FilteredObsVal Value   `json:"filtered_obs_val"`
	LowerExpLimit  Value   `json:"lower_exp_limit"`
	UpperExpLimit  Value   `json:"upper_exp_limit"`
}
