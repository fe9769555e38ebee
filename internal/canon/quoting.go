package canon

import (
	"regexp"
	"strings"
)

// AliasMapping records the quoted form chosen for each alias during one
// canonicalization pass.
type AliasMapping map[string]string

// quote returns the canonical quoted form of name. A name seen earlier in the
// pass keeps the form it was first given.
func (m AliasMapping) quote(name string, delim byte) string {
	if form, ok := m[name]; ok {
		return form
	}
	var form string
	switch delim {
	case '\'', '`':
		form = string(delim) + name + string(delim)
	default:
		form = `"` + name + `"`
	}
	m[name] = form
	return form
}

var aliasExpr = regexp.MustCompile(`(?i)(\S+)\s+AS\s+(?:([\p{L}\p{N}_]+)|'([^']+)'|` + "`([^`]+)`" + `|"([^"]+)")`)

// castFuncs take "expr AS type" arguments where AS introduces a type.
var castFuncs = map[string]bool{"CAST": true, "CONVERT": true}

// trimQuotedTokens strips whitespace just inside every quoted token.
func trimQuotedTokens(s string) string {
	segs := splitSegments(s)
	for i, seg := range segs {
		if seg.kind != quotedText {
			continue
		}
		q := seg.text[:1]
		segs[i].text = q + strings.TrimSpace(seg.text[1:len(seg.text)-1]) + q
	}
	return joinSegments(segs)
}

// normalizeAliases rewrites "expr AS alias" with the alias quoted, recording
// each choice in aliases.
func normalizeAliases(s string, aliases AliasMapping) string {
	matches := aliasExpr.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}
	mask := plainMask(s)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		exprEnd := m[3]
		asPos := exprEnd + strings.Index(strings.ToUpper(s[exprEnd:m[1]]), "AS")
		if !mask[asPos] || castFuncs[enclosingCall(s, mask, asPos)] {
			continue
		}

		var name string
		var delim byte
		switch {
		case m[4] >= 0:
			name = s[m[4]:m[5]]
		case m[6] >= 0:
			name, delim = s[m[6]:m[7]], '\''
		case m[8] >= 0:
			name, delim = s[m[8]:m[9]], '`'
		default:
			name, delim = s[m[10]:m[11]], '"'
		}

		b.WriteString(s[last:m[0]])
		b.WriteString(s[m[2]:m[3]])
		b.WriteString(" AS ")
		b.WriteString(aliases.quote(strings.TrimSpace(name), delim))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// enclosingCall returns the upper-cased name of the function whose argument
// list contains pos, or "" when pos is not inside a call.
func enclosingCall(s string, mask []bool, pos int) string {
	depth := 0
	for i := pos - 1; i >= 0; i-- {
		if !mask[i] {
			continue
		}
		switch s[i] {
		case ')':
			depth++
		case '(':
			if depth > 0 {
				depth--
				continue
			}
			j := i
			for j > 0 && isSpace(s[j-1]) {
				j--
			}
			k := j
			for k > 0 && isIdentByte(s[k-1]) {
				k--
			}
			return strings.ToUpper(s[k:j])
		}
	}
	return ""
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
