package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is free-form wizard data stored as jsonb. Values written as
// numbers, booleans or nested JSON by other clients are kept as their JSON text.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	*m = metadataFromMap(raw)
	return nil
}

// metadataFromMap flattens loosely typed values to strings. Nulls are dropped.
func metadataFromMap(raw map[string]any) Metadata {
	out := make(Metadata, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		default:
			if b, err := json.Marshal(val); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}
