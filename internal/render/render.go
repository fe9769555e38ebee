// Package render turns a result set into one of the response formats: JSON
// values, a markdown table or CSV text.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format names an output representation.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat maps a user supplied format name onto a Format. The empty
// string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported response format %q", s)
}

// Render converts rs into the given format. JSON yields the rows themselves
// (never nil), markdown and CSV yield a string.
func Render(rs ResultSet, format Format) (any, error) {
	switch format {
	case FormatJSON, "":
		return JSON(rs), nil
	case FormatMarkdown:
		return Markdown(rs), nil
	case FormatCSV:
		return CSV(rs)
	}
	return nil, fmt.Errorf("unsupported response format %q", format)
}

// JSON returns the rows as they are, replacing a nil set with an empty one so
// it encodes as [].
func JSON(rs ResultSet) ResultSet {
	if rs == nil {
		return ResultSet{}
	}
	return rs
}

// Markdown renders a pipe table. The header comes from the first row; a
// column missing from a later row gives an empty cell and NULL prints as NULL.
func Markdown(rs ResultSet) string {
	if len(rs) == 0 {
		return ""
	}
	cols := rs.Columns()

	var b strings.Builder
	writeLine := func(cells []string) {
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	header := make([]string, len(cols))
	sep := make([]string, len(cols))
	for i, c := range cols {
		header[i] = markdownCell(c)
		sep[i] = "---"
	}
	writeLine(header)
	writeLine(sep)

	cells := make([]string, len(cols))
	for _, row := range rs {
		for i, c := range cols {
			v, ok := row.Get(c)
			switch {
			case !ok:
				cells[i] = ""
			case v == nil:
				cells[i] = "NULL"
			default:
				cells[i] = markdownCell(Text(v))
			}
		}
		writeLine(cells)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func markdownCell(s string) string {
	return markdownEscaper.Replace(s)
}

// CSV renders RFC 4180 text with CRLF line endings. NULL and missing values
// are empty fields.
func CSV(rs ResultSet) (string, error) {
	if len(rs) == 0 {
		return "", nil
	}
	cols := rs.Columns()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write(cols); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, row := range rs {
		for i, c := range cols {
			v, ok := row.Get(c)
			if !ok || v == nil {
				record[i] = ""
				continue
			}
			record[i] = Text(v)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// Text formats a single non-NULL value for the text renderers.
func Text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format("2006-01-02T15:04:05.999999")
	case fmt.Stringer:
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
