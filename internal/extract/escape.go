// Package extract pulls a single SQL statement out of markdown-flavoured text.
package extract

import "strings"

// markdownEscapes lists the two-character sequences markdown transports leave
// behind. Order matters: the backslash pair must stay last so that the
// sequences before it only ever see the original backslashes.
var markdownEscapes = []struct {
	seq, repl string
}{
	{`\n`, "\n"},
	{`\"`, `"`},
	{`\'`, `'`},
	{"\\`", "`"},
	{`\_`, `_`},
	{`\*`, `*`},
	{`\\`, `\`},
}

// ResolveEscapes undoes the backslash escaping applied to text on its way
// through a markdown renderer. Each sequence is replaced literally over the
// whole string, in order.
func ResolveEscapes(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}
	for _, e := range markdownEscapes {
		text = strings.ReplaceAll(text, e.seq, e.repl)
	}
	return text
}
