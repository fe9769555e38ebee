package tableprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomventa/mdsql/internal/render"
)

func TestPrintTable(t *testing.T) {
	rs := render.ResultSet{
		render.NewRow([]string{"id", "name"}, []any{int64(1), "alice"}),
		render.NewRow([]string{"id", "name"}, []any{int64(2), nil}),
	}

	var buf bytes.Buffer
	PrintTable(&buf, rs)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "NULL")
	assert.True(t, strings.HasSuffix(out, "(2 rows)\n"))
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, nil)
	assert.Equal(t, "(0 rows)\n", buf.String())
}
