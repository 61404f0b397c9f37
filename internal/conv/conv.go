package conv

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// AsFloat coerces a numeric value into float64; strings and booleans are rejected.
func AsFloat(value interface{}) (float64, bool) {
	switch value.(type) {
	case nil, string, bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(value)
	return f, err == nil
}

// AsInt coerces a numeric value or numeric string into int.
func AsInt(value interface{}) (int, bool) {
	if text, ok := value.(string); ok {
		value = strings.TrimSpace(text)
	}
	if _, ok := value.(bool); ok {
		return 0, false
	}
	i, err := cast.ToIntE(value)
	return i, err == nil
}

// AsUint64 parses a raw JSON value holding a non negative integer.
func AsUint64(raw json.RawMessage) (uint64, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || strings.HasPrefix(text, "-") {
		return 0, false
	}
	i, err := strconv.ParseUint(text, 10, 64)
	return i, err == nil
}
