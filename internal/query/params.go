package query

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Values returns every value of a repeatable parameter, accepting both
// "key" and "key[]" spellings.
func Values(p url.Values, key string) []string {
	out := append([]string{}, p[key]...)
	return append(out, p[key+"[]"]...)
}

// First returns the first non-blank value of key.
func First(p url.Values, key string) string {
	for _, v := range Values(p, key) {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NormalizeList раскладывает значение параметра по колонкам.
//
// raw may be a bare scalar or a URL-escaped JSON array. A non-list value is
// fanned out to every name and false is returned. A list assigns its i-th
// truthy element to names[i] and true is returned.
func NormalizeList(raw string, names []string, set func(name string, value any)) bool {
	decoded := raw
	if u, err := url.PathUnescape(raw); err == nil {
		decoded = u
	}
	var list []any
	if err := json.Unmarshal([]byte(decoded), &list); err != nil || list == nil {
		for _, name := range names {
			set(name, raw)
		}
		return false
	}
	for i, name := range names {
		if i < len(list) && truthy(list[i]) {
			set(name, list[i])
		}
	}
	return true
}

// SetDotted assigns value under key, nesting "relation.column" keys one level.
// Repeated prefixes merge into the same sub-mapping.
func SetDotted(target map[string]any, key string, value any) {
	prefix, suffix, dotted := strings.Cut(key, ".")
	if !dotted {
		target[key] = value
		return
	}
	sub, ok := target[prefix].(map[string]any)
	if !ok {
		sub = map[string]any{}
		target[prefix] = sub
	}
	sub[suffix] = value
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// formatValue renders a decoded search value as the text used in patterns.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func isTruthyToken(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
