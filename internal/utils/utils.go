package utils

import "strings"

var readOnlyVerbs = map[string]bool{
	"select":   true,
	"with":     true,
	"show":     true,
	"describe": true,
	"desc":     true,
	"explain":  true,
	"values":   true,
	"table":    true,
}

// IsReadOnlyQuery checks if a SQL query is read-only (safe to execute
// without confirmation). It looks at the first keyword after any leading
// comments or parentheses.
func IsReadOnlyQuery(query string) bool {
	return readOnlyVerbs[FirstKeyword(query)]
}

// FirstKeyword returns the first word of a statement in lower case, skipping
// whitespace, comments and opening parentheses.
func FirstKeyword(query string) string {
	s := skipLeading(query)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToLower(s[:end])
}

func skipLeading(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return ""
			}
			s = s[i+4:]
		default:
			return s
		}
	}
}
