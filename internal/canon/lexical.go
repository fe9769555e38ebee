package canon

import (
	"regexp"
	"strings"
)

// statementEscapes are the escapes that survive inside the statement itself
// after the markdown-level pass.
var statementEscapes = []struct {
	seq, repl string
}{
	{"\\\n", "\n"},
	{`\ `, " "},
	{`\*`, "*"},
	{`\_`, "_"},
	{"\\`", "`"},
}

var (
	escapedDoubleQuoted = regexp.MustCompile(`\\"([^"]*)\\"`)
	escapedSingleQuoted = regexp.MustCompile(`\\'([^']*)\\'`)

	commaSpacing = regexp.MustCompile(`\s*,\s*`)

	dateFormatPercent = regexp.MustCompile(`(?i)(DATE_FORMAT\([^,]+,\s*)'([^']*%%[^']*)'`)
	dateFormatCall    = regexp.MustCompile(`(?i)DATE_FORMAT\s*\(\s*([^,]+)\s*,\s*'([^']+)'\s*\)`)

	// Multi-word phrases come first so they win over their own words.
	keywords = regexp.MustCompile(`(?i)\b(GROUP BY|ORDER BY|PARTITION BY|LEFT JOIN|RIGHT JOIN|INNER JOIN|` +
		`SELECT|FROM|WHERE|HAVING|JOIN|WITH|AS|ON|AND|OR|IN|NOT|NULL|IS|OVER)\b`)

	whitespaceRun = regexp.MustCompile(`\s+`)
	openParen     = regexp.MustCompile(`\(\s+`)
	closeParen    = regexp.MustCompile(`\s+\)`)
	qualifiedDot  = regexp.MustCompile(`\s*\.\s*`)
)

// Longest first, so "<=" is never split into "<" and "=" and the JSON
// arrows stay whole.
var operators = []string{"->>", "->", "<=", ">=", "<>", "!=", "=", "<", ">", "+", "-", "*", "/"}

func unescapeStatement(s string) string {
	for _, e := range statementEscapes {
		s = strings.ReplaceAll(s, e.seq, e.repl)
	}
	return s
}

func unescapeQuotes(s string) string {
	s = escapedDoubleQuoted.ReplaceAllString(s, `"${1}"`)
	s = escapedSingleQuoted.ReplaceAllString(s, `'${1}'`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\'`, `'`)
}

// blockLineComments rewrites "-- text" comments as "/* text */" so that
// collapsing newlines cannot swallow the rest of the statement.
func blockLineComments(s string) string {
	segs := splitSegments(s)
	for i := range segs {
		if segs[i].kind != lineComment {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(segs[i].text, "--"))
		body = strings.ReplaceAll(body, "*/", "* /")
		segs[i] = segment{text: "/* " + body + " */", kind: blockComment}
	}
	return joinSegments(segs)
}

func spaceCommas(s string) string {
	return mapPlain(s, func(p string) string {
		return commaSpacing.ReplaceAllString(p, ", ")
	})
}

// fixDateFormatPercent undoes the percent doubling some transports apply to
// the format argument of DATE_FORMAT.
func fixDateFormatPercent(s string) string {
	return dateFormatPercent.ReplaceAllStringFunc(s, func(call string) string {
		m := dateFormatPercent.FindStringSubmatch(call)
		return m[1] + "'" + strings.ReplaceAll(m[2], "%%", "%") + "'"
	})
}

func tightenDateFormat(s string) string {
	return dateFormatCall.ReplaceAllStringFunc(s, func(call string) string {
		m := dateFormatCall.FindStringSubmatch(call)
		return "DATE_FORMAT(" + strings.TrimSpace(m[1]) + ",'" + strings.TrimSpace(m[2]) + "')"
	})
}

func spaceKeywords(s string) string {
	return mapPlain(s, func(p string) string {
		return keywords.ReplaceAllString(p, " ${1} ")
	})
}

func spaceOperators(s string) string {
	return mapPlain(s, spaceOperatorsPlain)
}

// spaceOperatorsPlain puts a space on each side of an operator that lacks
// one. Segment edges count as unspaced since a quote or comment sits there.
func spaceOperatorsPlain(p string) string {
	var b strings.Builder
	b.Grow(len(p) + 8)
	for i := 0; i < len(p); {
		op := operatorAt(p, i)
		if op == "" || isExponentSign(p, i) {
			b.WriteByte(p[i])
			i++
			continue
		}
		if i == 0 || !isSpace(p[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteString(op)
		i += len(op)
		if i >= len(p) || !isSpace(p[i]) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func operatorAt(p string, i int) string {
	for _, op := range operators {
		if strings.HasPrefix(p[i:], op) {
			return op
		}
	}
	return ""
}

// isExponentSign reports whether the sign at i belongs to a numeric literal
// such as 1e-5 or 2.5E+3.
func isExponentSign(p string, i int) bool {
	if p[i] != '-' && p[i] != '+' {
		return false
	}
	if i < 2 || i+1 >= len(p) || !isDigit(p[i+1]) || (p[i-1] != 'e' && p[i-1] != 'E') {
		return false
	}
	j := i - 2
	if !isDigit(p[j]) && p[j] != '.' {
		return false
	}
	for j >= 0 && (isDigit(p[j]) || p[j] == '.') {
		j--
	}
	return j < 0 || !isIdentByte(p[j])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(mapPlain(s, func(p string) string {
		return whitespaceRun.ReplaceAllString(p, " ")
	}))
}

func tightenParens(s string) string {
	return mapPlain(s, func(p string) string {
		p = openParen.ReplaceAllString(p, "(")
		return closeParen.ReplaceAllString(p, ")")
	})
}

func tightenDots(s string) string {
	return mapPlain(s, func(p string) string {
		return qualifiedDot.ReplaceAllString(p, ".")
	})
}
