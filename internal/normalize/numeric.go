package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Coerce converts a raw fact value to a float64. Strings are cleaned of
// thousands separators, currency symbols, and percent signs first;
// parenthesized amounts are treated as negative. A value that cannot be
// coerced reports ok=false and the fact is skipped, never an error.
func Coerce(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		return coerceString(val)
	default:
		return 0, false
	}
}

func coerceString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	cleaner := strings.NewReplacer(",", "", "$", "", "%", "", " ", "")
	s = cleaner.Replace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}
