package conv

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RequestID decodes a raw JSON-RPC id. Integral numbers come back as int64,
// other numbers as json.Number so they re-encode verbatim, strings as string
// and null or absent ids as nil.
func RequestID(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	switch actual := value.(type) {
	case json.Number:
		if i, err := actual.Int64(); err == nil {
			return i, nil
		}
		return actual, nil
	case string:
		return actual, nil
	}
	return nil, fmt.Errorf("invalid id: %s", raw)
}

// AsInt attempts to coerce various numeric id representations into int.
func AsInt(value any) (int, bool) {
	switch actual := value.(type) {
	case int:
		return actual, true
	case int64:
		return int(actual), true
	case int32:
		return int(actual), true
	case uint64:
		return int(actual), true
	case float64:
		if actual == float64(int(actual)) {
			return int(actual), true
		}
	case json.Number:
		if i, err := actual.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}
