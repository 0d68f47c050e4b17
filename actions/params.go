package actions

import (
	"strconv"
	"strings"
)

func requireString(params map[string]any, key string) (string, error) {
	value := optionalString(params, key)
	if value == "" {
		return "", actionBadInput("parameter %q is required", key)
	}
	return value, nil
}

func optionalString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if raw, ok := params[key]; ok {
		if text, ok := raw.(string); ok {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

// optionalNumber accepts the numeric shapes JSON decoding and CLI parsing
// produce for the same parameter.
func optionalNumber(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch value := params[key].(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func optionalInt(params map[string]any, key string) (int, bool) {
	value, ok := optionalNumber(params, key)
	if !ok {
		return 0, false
	}
	return int(value), true
}
