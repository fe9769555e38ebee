package extract

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoStatement is returned when the input holds no statement text at all.
var ErrNoStatement = errors.New("no SQL query found in the input")

var (
	sqlFence = regexp.MustCompile("(?is)```sql\\b\\s*(.*?)\\s*```")
	// An optional language tag is only skipped when it sits alone on the
	// opening fence line, so inline fences like ```SELECT 1``` keep their body.
	anyFence = regexp.MustCompile("(?s)```(?:[\\w+#.-]*[ \\t]*\\n)?\\s*(.*?)\\s*```")
)

// Source tells which rule produced an extracted statement.
type Source int

const (
	SourceSQLFence Source = iota
	SourceFence
	SourceRaw
)

func (s Source) String() string {
	switch s {
	case SourceSQLFence:
		return "sql-fence"
	case SourceFence:
		return "fence"
	default:
		return "raw"
	}
}

// Fenced returns the body of the first fenced code block in text, preferring
// blocks tagged as SQL, and falls back to the whole trimmed text. Unclosed or
// malformed fences are not an error: the text is simply taken as is.
func Fenced(text string) (string, Source) {
	if m := sqlFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), SourceSQLFence
	}
	if m := anyFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), SourceFence
	}
	return strings.TrimSpace(text), SourceRaw
}

// Statement resolves markdown escapes in raw and extracts the statement it
// carries. ErrNoStatement is returned when nothing but whitespace is left.
func Statement(raw string) (string, error) {
	stmt, _, err := StatementWithSource(raw)
	return stmt, err
}

// StatementWithSource is Statement that also reports which rule matched.
func StatementWithSource(raw string) (string, Source, error) {
	stmt, src := Fenced(ResolveEscapes(raw))
	if stmt == "" {
		return "", src, ErrNoStatement
	}
	return stmt, src, nil
}
