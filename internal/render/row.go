package render

import (
	"bytes"
	"encoding/json"
)

// Row is one result row. It keeps the column order reported by the engine,
// which a plain map would lose.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a row from parallel column and value slices. A repeated
// column name keeps its first position and its last value.
func NewRow(cols []string, vals []any) Row {
	r := Row{keys: make([]string, 0, len(cols)), values: make(map[string]any, len(cols))}
	for i, c := range cols {
		var v any
		if i < len(vals) {
			v = vals[i]
		}
		if _, ok := r.values[c]; !ok {
			r.keys = append(r.keys, c)
		}
		r.values[c] = v
	}
	return r
}

// Keys returns the column names in order.
func (r Row) Keys() []string {
	return r.keys
}

// Get returns the value stored under key and whether the column exists.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResultSet is the ordered list of rows produced by one statement.
type ResultSet []Row

// Columns returns the header used by the tabular renderers: the keys of the
// first row.
func (rs ResultSet) Columns() []string {
	if len(rs) == 0 {
		return nil
	}
	return rs[0].Keys()
}
