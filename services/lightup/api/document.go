package api

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"
)

// setPath writes value at a gjson path of a raw document. Objects returned by
// the API are updated this way so that PUT requests carry every field the
// server sent, including ones these types do not model.
func setPath(raw json.RawMessage, path string, value any) (json.RawMessage, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	out, err := sjson.SetBytes(raw, path, value)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return out, nil
}

func deletePath(raw json.RawMessage, path string) (json.RawMessage, error) {
	out, err := sjson.DeleteBytes(raw, path)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", path, err)
	}
	return out, nil
}
