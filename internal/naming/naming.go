// Package naming implements the camelCase/snake_case boundary between the
// Sync Hub's wire protocol and the Persistence Adapter's schema (spec.md
// §4.3). Typed structs carry this boundary via parallel json/db tags; this
// package exists for the schema-less corners — JSONMap settings payloads —
// where keys cross the boundary without a struct to tag.
package naming

import "strings"

// ToSnakeCase converts a camelCase or PascalCase identifier to snake_case.
func ToSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamelCase converts a snake_case identifier to camelCase.
func ToCamelCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// MapToSnakeCase returns a shallow copy of m with every top-level key
// converted to snake_case, used when persisting a wire-shaped JSONMap.
func MapToSnakeCase(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[ToSnakeCase(k)] = v
	}
	return out
}

// MapToCamelCase returns a shallow copy of m with every top-level key
// converted to camelCase, used when serving a persisted JSONMap over the
// wire protocol.
func MapToCamelCase(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[ToCamelCase(k)] = v
	}
	return out
}
