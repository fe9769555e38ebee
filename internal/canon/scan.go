package canon

import "strings"

type segmentKind int

const (
	plainText segmentKind = iota
	quotedText
	blockComment
	lineComment
)

// segment is a run of statement text that is entirely inside one quoted
// region or comment, or entirely outside any.
type segment struct {
	text string
	kind segmentKind
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"' || c == '`'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// splitSegments cuts s into plain, quoted and comment segments. A quote that
// is never closed is treated as an ordinary character.
func splitSegments(s string) []segment {
	var segs []segment
	start := 0
	flush := func(end int) {
		if end > start {
			segs = append(segs, segment{text: s[start:end], kind: plainText})
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isQuote(c):
			end := closingQuote(s, i)
			if end < 0 {
				i++
				continue
			}
			flush(i)
			segs = append(segs, segment{text: s[i : end+1], kind: quotedText})
			i = end + 1
			start = i
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i++
				continue
			}
			end += i + 4
			flush(i)
			segs = append(segs, segment{text: s[i:end], kind: blockComment})
			i = end
			start = i
		case c == '-' && i+1 < len(s) && s[i+1] == '-' && (i+2 == len(s) || isSpace(s[i+2])):
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				end = len(s)
			} else {
				end += i
			}
			flush(i)
			segs = append(segs, segment{text: s[i:end], kind: lineComment})
			i = end
			start = i
		default:
			i++
		}
	}
	flush(len(s))
	return segs
}

// closingQuote returns the index of the quote closing the one at open, or -1.
// Backslash escapes are honoured inside single and double quotes, and a
// doubled delimiter never closes the region.
func closingQuote(s string, open int) int {
	q := s[open]
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if q != '`' {
				j++
			}
		case q:
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			return j
		}
	}
	return -1
}

func joinSegments(segs []segment) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.text)
	}
	return b.String()
}

// mapPlain applies fn to every segment outside quotes and comments.
func mapPlain(s string, fn func(string) string) string {
	segs := splitSegments(s)
	for i := range segs {
		if segs[i].kind == plainText {
			segs[i].text = fn(segs[i].text)
		}
	}
	return joinSegments(segs)
}

// plainMask reports, per byte of s, whether it lies outside quotes and comments.
func plainMask(s string) []bool {
	mask := make([]bool, len(s))
	pos := 0
	for _, seg := range splitSegments(s) {
		if seg.kind == plainText {
			for i := 0; i < len(seg.text); i++ {
				mask[pos+i] = true
			}
		}
		pos += len(seg.text)
	}
	return mask
}

// splitTopLevel splits s on commas that are not nested in parentheses,
// quotes or comments.
func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	for _, seg := range splitSegments(s) {
		if seg.kind != plainText {
			cur.WriteString(seg.text)
			continue
		}
		for i := 0; i < len(seg.text); i++ {
			c := seg.text[i]
			switch {
			case c == '(':
				depth++
			case c == ')' && depth > 0:
				depth--
			case c == ',' && depth == 0:
				parts = append(parts, cur.String())
				cur.Reset()
				continue
			}
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}
