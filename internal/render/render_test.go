package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() ResultSet {
	return ResultSet{
		NewRow([]string{"id", "name", "amount"}, []any{int64(1), "alice", 12.5}),
		NewRow([]string{"id", "name", "amount"}, []any{int64(2), nil, float64(3)}),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: "Markdown", want: FormatMarkdown},
		{in: "md", want: FormatMarkdown},
		{in: "csv", want: FormatCSV},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRow_MarshalJSONKeepsColumnOrder(t *testing.T) {
	row := NewRow([]string{"z", "a", "m"}, []any{1, "x", nil})

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","m":null}`, string(b))
}

func TestNewRow_RepeatedColumn(t *testing.T) {
	row := NewRow([]string{"a", "b", "a"}, []any{1, 2, 3})

	assert.Equal(t, []string{"a", "b"}, row.Keys())
	v, ok := row.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(JSON(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = json.Marshal(JSON(sample()))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"alice","amount":12.5},{"id":2,"name":null,"amount":3}]`, string(b))
}

func TestMarkdown(t *testing.T) {
	want := "| id | name | amount |\n" +
		"| --- | --- | --- |\n" +
		"| 1 | alice | 12.5 |\n" +
		"| 2 | NULL | 3 |\n"
	assert.Equal(t, want, Markdown(sample()))
}

func TestMarkdown_HeaderFromFirstRow(t *testing.T) {
	rs := ResultSet{
		NewRow([]string{"a", "b"}, []any{"x|y", "line\nbreak"}),
		NewRow([]string{"a", "c"}, []any{"z", "ignored"}),
	}
	want := "| a | b |\n" +
		"| --- | --- |\n" +
		"| x\\|y | line break |\n" +
		"| z |  |\n"
	assert.Equal(t, want, Markdown(rs))
}

func TestCSV(t *testing.T) {
	got, err := CSV(sample())
	require.NoError(t, err)
	assert.Equal(t, "id,name,amount\r\n1,alice,12.5\r\n2,,3\r\n", got)
}

func TestCSV_Quoting(t *testing.T) {
	rs := ResultSet{NewRow([]string{"note"}, []any{`say "hi", bye`})}

	got, err := CSV(rs)
	require.NoError(t, err)
	assert.Equal(t, "note\r\n\"say \"\"hi\"\", bye\"\r\n", got)
}

func TestRender_Empty(t *testing.T) {
	for _, f := range []Format{FormatMarkdown, FormatCSV} {
		got, err := Render(nil, f)
		require.NoError(t, err)
		assert.Equal(t, "", got, "format %s", f)
	}

	got, err := Render(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, ResultSet{}, got)
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(sample(), Format("yaml"))
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "1000000", Text(float64(1e6)))
	assert.Equal(t, "0.1", Text(0.1))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "-7", Text(int64(-7)))
	assert.Equal(t, `{"base64":"/w=="}`, Text(map[string]any{"base64": "/w=="}))
}
