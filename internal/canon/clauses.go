package canon

import (
	"regexp"
	"strings"
)

var (
	groupByKeyword = regexp.MustCompile(`(?i)\bGROUP BY\s+`)
	orderByKeyword = regexp.MustCompile(`(?i)\bORDER BY\s+`)
	havingKeyword  = regexp.MustCompile(`(?i)\s*\bHAVING\b\s*`)
)

var (
	groupByEnds = []string{"HAVING", "ORDER BY", "LIMIT"}
	orderByEnds = []string{"LIMIT"}
)

func reformatGroupBy(s string) string {
	return reformatByClause(s, groupByKeyword, groupByEnds)
}

func reformatOrderBy(s string) string {
	return reformatByClause(s, orderByKeyword, orderByEnds)
}

// reformatByClause rewrites the column list following every match of kw,
// up to the first of ends, the end of an enclosing subquery or the end of
// the statement.
func reformatByClause(s string, kw *regexp.Regexp, ends []string) string {
	mask := plainMask(s)
	var b strings.Builder
	last := 0
	for _, m := range kw.FindAllStringIndex(s, -1) {
		if m[0] < last || !mask[m[0]] {
			continue
		}
		end := clauseEnd(s, mask, m[1], ends)
		b.WriteString(s[last:m[0]])
		b.WriteString(strings.TrimSpace(s[m[0]:m[1]]))
		b.WriteByte(' ')
		b.WriteString(formatColumnList(s[m[1]:end]))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func clauseEnd(s string, mask []bool, from int, ends []string) int {
	depth := 0
	for i := from; i < len(s); i++ {
		if !mask[i] {
			continue
		}
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				return trimRightSpace(s, from, i)
			}
			depth--
		case c == ';' && depth == 0:
			return trimRightSpace(s, from, i)
		case isSpace(c) && depth == 0:
			if startsWithWord(s[i:], ends) {
				return i
			}
		}
	}
	return trimRightSpace(s, from, len(s))
}

func trimRightSpace(s string, from, end int) int {
	for end > from && isSpace(s[end-1]) {
		end--
	}
	return end
}

// startsWithWord reports whether s, after leading whitespace, starts with one
// of the words as a whole word, ignoring case.
func startsWithWord(s string, words []string) bool {
	s = strings.TrimLeft(s, " \t\n\r")
	for _, w := range words {
		if len(s) < len(w) || !strings.EqualFold(s[:len(w)], w) {
			continue
		}
		if len(s) == len(w) || !isIdentByte(s[len(w)]) {
			return true
		}
	}
	return false
}

func formatColumnList(list string) string {
	cols := splitTopLevel(list)
	for i, col := range cols {
		cols[i] = formatColumn(strings.TrimSpace(col))
	}
	return strings.Join(cols, ", ")
}

// formatColumn re-wraps a bare quoted identifier around its trimmed interior.
// Expressions with parentheses are returned unchanged.
func formatColumn(col string) string {
	if strings.ContainsAny(col, "()") || len(col) < 2 {
		return col
	}
	q := col[0]
	if isQuote(q) && col[len(col)-1] == q {
		return string(q) + strings.TrimSpace(col[1:len(col)-1]) + string(q)
	}
	return col
}

func spaceHaving(s string) string {
	mask := plainMask(s)
	return replaceMatchesIfPlain(s, mask, havingKeyword, " HAVING ")
}

// replaceMatchesIfPlain substitutes repl for every match of re whose keyword
// text starts outside quotes and comments.
func replaceMatchesIfPlain(s string, mask []bool, re *regexp.Regexp, repl string) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(s, -1) {
		k := m[0]
		for k < m[1] && isSpace(s[k]) {
			k++
		}
		if k < len(mask) && !mask[k] {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(repl)
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
