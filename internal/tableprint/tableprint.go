package tableprint

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tomventa/mdsql/internal/render"
)

// PrintTable writes rs as a boxed table followed by a row count. Columns come
// from the first row.
func PrintTable(w io.Writer, rs render.ResultSet) {
	if len(rs) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	cols := rs.Columns()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rs {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = cell(r, c)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs))
}

func cell(r render.Row, col string) string {
	v, ok := r.Get(col)
	switch {
	case !ok:
		return ""
	case v == nil:
		return "NULL"
	}
	return render.Text(v)
}
