// Package values converts loosely typed configuration values.
//
// Values reach the config stores from TOML (int64, bool, []any), from
// environment variables (always strings) and from CLI "config set"
// (strings), so every accessor accepts the string form as well.
package values

import (
	"strconv"
	"strings"
)

// String returns v as a string. Numbers and booleans are formatted;
// anything else yields "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// Int returns v as an int, or 0 if it cannot be converted.
func Int(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Bool returns v as a bool. Strings accept the forms strconv.ParseBool does.
func Bool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	default:
		return false
	}
}

// StringSlice returns v as a string slice. A string is split on commas.
func StringSlice(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		result := make([]string, 0, len(x))
		for _, item := range x {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		parts := strings.Split(x, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		return result
	default:
		return nil
	}
}
