package verification

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a set of field values. In JSON each value may be a plain string,
// a number, or an extracted field object of the form {"value": ..., "confidence": ...}.
type Record map[string]string

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*r = nil
		return nil
	}

	out := make(Record, len(raw))
	for field, value := range raw {
		s, err := recordValue(value)
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		out[field] = s
	}
	*r = out
	return nil
}

func recordValue(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String(), nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return strconv.FormatBool(b), nil
	}

	var field struct {
		Value *json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &field); err == nil {
		if field.Value == nil {
			return "", nil
		}
		return recordValue(*field.Value)
	}

	return "", fmt.Errorf("unsupported value %s", string(data))
}
