package strings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts CamelCase to snake_case
// Handles acronyms properly (HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					result.WriteRune('_')
				} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ToCamelCase converts snake_case, kebab-case or space separated words to
// CamelCase (blog_comments -> BlogComments).
func ToCamelCase(s string) string {
	var result strings.Builder
	upper := true

	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ':
			upper = true
		case upper:
			result.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// TableName derives a table name from a fixture or model name. Namespace
// segments separated by '/' are dropped (Blog/Comments -> comments).
func TableName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return ToSnakeCase(name)
}
