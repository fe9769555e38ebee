package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no escapes", in: "SELECT * FROM t", want: "SELECT * FROM t"},
		{name: "newline", in: `SELECT 1\nFROM t`, want: "SELECT 1\nFROM t"},
		{name: "quotes", in: `WHERE a = \'x\' AND b = \"y\"`, want: `WHERE a = 'x' AND b = "y"`},
		{name: "markdown emphasis", in: `SELECT \* FROM order\_items`, want: "SELECT * FROM order_items"},
		{name: "backtick", in: "SELECT \\`name\\` FROM t", want: "SELECT `name` FROM t"},
		{name: "backslash pair last", in: `a\\b`, want: `a\b`},
		{name: "escaped backslash before n", in: `\\n`, want: "\\\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveEscapes(tt.in))
		})
	}
}

func TestResolveEscapes_Idempotent(t *testing.T) {
	in := "SELECT `a`, 'b', \"c\" FROM t_1 WHERE x * 2 > 1\n"
	out := ResolveEscapes(in)
	assert.Equal(t, in, out)
	assert.Equal(t, out, ResolveEscapes(out))
}

func TestResolveEscapes_RemovesRecognizedPairs(t *testing.T) {
	pairs := []string{`\n`, `\"`, `\'`, "\\`", `\_`, `\*`}
	words := []string{"SELECT", " col", "FROM ", "t", "1"}

	for i, p := range pairs {
		for j, w := range words {
			in := w + p + words[(i+j)%len(words)] + p
			out := ResolveEscapes(in)
			for _, seq := range pairs {
				assert.NotContains(t, out, seq, "input %q", in)
			}
		}
	}
}

func TestFenced(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantSrc Source
	}{
		{
			name:    "sql fence",
			in:      "Here you go:\n```sql\nSELECT a,b FROM t\n```\nEnjoy.",
			want:    "SELECT a,b FROM t",
			wantSrc: SourceSQLFence,
		},
		{
			name:    "sql fence upper case tag",
			in:      "```SQL\n  SELECT 1\n```",
			want:    "SELECT 1",
			wantSrc: SourceSQLFence,
		},
		{
			name:    "generic fence",
			in:      "```\nSELECT 2\n```",
			want:    "SELECT 2",
			wantSrc: SourceFence,
		},
		{
			name:    "generic fence skips other language tag",
			in:      "```mysql\nSELECT 3\n```",
			want:    "SELECT 3",
			wantSrc: SourceFence,
		},
		{
			name:    "inline fence keeps body",
			in:      "```SELECT 4```",
			want:    "SELECT 4",
			wantSrc: SourceFence,
		},
		{
			name:    "raw text",
			in:      "  SELECT 1  \n",
			want:    "SELECT 1",
			wantSrc: SourceRaw,
		},
		{
			name:    "unclosed fence degrades to raw text",
			in:      "```sql\nSELECT 5",
			want:    "```sql\nSELECT 5",
			wantSrc: SourceRaw,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src := Fenced(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSrc, src)
		})
	}
}

func TestFenced_PrefersSQLFence(t *testing.T) {
	in := "First:\n```\nls -la\n```\nThen:\n```sql\nSELECT name FROM users\n```"
	got, src := Fenced(in)
	assert.Equal(t, "SELECT name FROM users", got)
	assert.Equal(t, SourceSQLFence, src)
}

func TestStatement(t *testing.T) {
	t.Run("escaped markdown", func(t *testing.T) {
		got, err := Statement("```sql\\nSELECT \\* FROM order\\_items\\n```")
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM order_items", got)
	})

	t.Run("raw statement verbatim", func(t *testing.T) {
		got, err := Statement("SELECT 1")
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1", got)
	})

	t.Run("empty fence", func(t *testing.T) {
		_, err := Statement("``` ```")
		assert.ErrorIs(t, err, ErrNoStatement)
	})

	t.Run("blank input", func(t *testing.T) {
		_, err := Statement(" \n\t ")
		assert.ErrorIs(t, err, ErrNoStatement)
	})

	t.Run("source reported", func(t *testing.T) {
		_, src, err := StatementWithSource(strings.Repeat(" ", 3) + "```\nSELECT 1\n```")
		require.NoError(t, err)
		assert.Equal(t, "fence", src.String())
	})
}
