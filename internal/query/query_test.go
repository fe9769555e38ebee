package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomventa/mdsql/internal/database"
	"github.com/tomventa/mdsql/internal/extract"
	"github.com/tomventa/mdsql/internal/render"
)

type fakeExecutor struct {
	rows render.ResultSet
	err  error
	got  []string
}

func (f *fakeExecutor) Execute(_ context.Context, stmt string) (render.ResultSet, error) {
	f.got = append(f.got, stmt)
	return f.rows, f.err
}

func TestPrepare(t *testing.T) {
	p, err := Prepare("Here you go:\n```sql\nSELECT a,b FROM t\n```")
	require.NoError(t, err)

	assert.Equal(t, "SELECT a,b FROM t", p.Extracted)
	assert.Equal(t, extract.SourceSQLFence, p.Source)
	assert.Equal(t, "SELECT a, b FROM t", p.Statement)
	assert.Empty(t, p.Aliases)
}

func TestPrepare_EscapedTransport(t *testing.T) {
	p, err := Prepare(`\n` + "```sql" + `\nSELECT col AS alias FROM t WHERE name = \"x\"\n` + "```")
	require.NoError(t, err)

	assert.Equal(t, `SELECT col AS "alias" FROM t WHERE name = "x"`, p.Statement)
	assert.Equal(t, `"alias"`, p.Aliases["alias"])
}

func TestPrepare_NoStatement(t *testing.T) {
	for _, raw := range []string{"", "   ", "```sql\n```"} {
		_, err := Prepare(raw)
		assert.ErrorIs(t, err, extract.ErrNoStatement, "raw %q", raw)
	}
}

func TestService_Run(t *testing.T) {
	exec := &fakeExecutor{rows: render.ResultSet{
		render.NewRow([]string{"a", "b"}, []any{int64(1), "x"}),
	}}
	svc := NewService(exec)

	tests := []struct {
		format render.Format
		want   any
	}{
		{format: render.FormatJSON, want: exec.rows},
		{format: render.FormatMarkdown, want: "| a | b |\n| --- | --- |\n| 1 | x |\n"},
		{format: render.FormatCSV, want: "a,b\r\n1,x\r\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			res, err := svc.Run(context.Background(), "```\nSELECT a,b FROM t\n```", tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Data)
			assert.Equal(t, "SELECT a, b FROM t", res.Statement)
		})
	}
	assert.Equal(t, []string{"SELECT a, b FROM t", "SELECT a, b FROM t", "SELECT a, b FROM t"}, exec.got)
}

func TestService_RunErrors(t *testing.T) {
	t.Run("no statement skips execution", func(t *testing.T) {
		exec := &fakeExecutor{}
		_, err := NewService(exec).Run(context.Background(), "```\n\n```", render.FormatJSON)
		assert.ErrorIs(t, err, extract.ErrNoStatement)
		assert.Empty(t, exec.got)
	})

	t.Run("execution error passes through", func(t *testing.T) {
		execErr := &database.ExecutionError{Message: "boom", Code: 1064, Statement: "SELECT 1"}
		_, err := NewService(&fakeExecutor{err: execErr}).Run(context.Background(), "SELECT 1", render.FormatJSON)

		var got *database.ExecutionError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, 1064, got.Code)
	})

	t.Run("connection error passes through", func(t *testing.T) {
		connErr := &database.ConnectionError{Err: errors.New("refused")}
		_, err := NewService(&fakeExecutor{err: connErr}).Run(context.Background(), "SELECT 1", render.FormatCSV)

		var got *database.ConnectionError
		assert.True(t, errors.As(err, &got))
	})

	t.Run("empty result renders empty", func(t *testing.T) {
		res, err := NewService(&fakeExecutor{rows: render.ResultSet{}}).Run(context.Background(), "SELECT 1", render.FormatMarkdown)
		require.NoError(t, err)
		assert.Equal(t, "", res.Data)
	})
}
