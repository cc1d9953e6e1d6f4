package expr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Resolve turns an operand into a value: a quoted string, a boolean, null,
// a number, a (possibly dotted) variable from vars, or the bare text.
func Resolve(s string, vars map[string]any) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}

	var num json.Number
	if err := json.Unmarshal([]byte(s), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	if v, ok := Lookup(vars, s); ok {
		return v
	}
	return s
}

// Lookup finds a variable by name. Dotted names descend into nested
// map[string]any values; an exact top-level key wins over descent.
func Lookup(vars map[string]any, name string) (any, bool) {
	if vars == nil {
		return nil, false
	}
	if v, ok := vars[name]; ok {
		return v, true
	}

	head, rest, found := strings.Cut(name, ".")
	if !found {
		return nil, false
	}
	nested, ok := vars[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return Lookup(nested, rest)
}

// IsTruthy reports whether v counts as true: nil, false, "", and numeric
// zero are false; everything else is true.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case int32:
		return val != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	default:
		return true
	}
}

// ToFloat64 converts a value for numeric comparison.
// The second result is false when v is not numeric.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(val, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
