package dialect

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strata-db/strata/schema"
)

// convertBool normalizes the values drivers hand back for boolean columns.
// SQLite stores 0/1, MySQL TINYINT, PostgreSQL native bools; some drivers
// also surface []byte.
func convertBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int32:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return parseBoolText(string(v))
	case string:
		return parseBoolText(v)
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", raw)
	}
}

func parseBoolText(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true":
		return true, nil
	case "0", "f", "false":
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert %q to boolean", s)
	}
}

// serializeJSON encodes a value as JSON text unless it already is text.
func serializeJSON(v any) (any, error) {
	switch j := v.(type) {
	case string:
		return j, nil
	case []byte:
		return string(j), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding json value: %w", err)
		}
		return string(data), nil
	}
}

// serializeUUID normalizes UUID values to their canonical string form.
func serializeUUID(v any) (any, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u.String(), nil
	case string:
		parsed, err := uuid.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid value: %w", err)
		}
		return parsed.String(), nil
	case []byte:
		parsed, err := uuid.ParseBytes(u)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid value: %w", err)
		}
		return parsed.String(), nil
	default:
		return nil, fmt.Errorf("cannot serialize %T as uuid", v)
	}
}

// serializeDate converts a date value to the dialect's wire format via
// format, passing strings through untouched.
func serializeDate(v any, format func(time.Time) string) (any, error) {
	switch d := v.(type) {
	case time.Time:
		return format(d), nil
	case string:
		return d, nil
	default:
		return nil, fmt.Errorf("cannot serialize %T as date", v)
	}
}

// serializeCommon handles the kinds whose driver representation does not
// differ between dialects.
func serializeCommon(k schema.Kind, v any) (any, bool, error) {
	switch k {
	case schema.KindNumber, schema.KindString:
		return v, true, nil
	case schema.KindJSON, schema.KindJSONB:
		out, err := serializeJSON(v)
		return out, true, err
	case schema.KindUUID:
		out, err := serializeUUID(v)
		return out, true, err
	default:
		return nil, false, nil
	}
}
