package database

import (
	"context"
	"database/sql"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tomventa/mdsql/internal/render"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05.999999"
)

// textTimeLayouts are the layouts a driver may hand back as text for
// DATETIME and TIMESTAMP columns.
var textTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// Execute runs stmt on a dedicated connection and returns its rows. The
// connection goes back to the pool on every path.
func (d *Database) Execute(ctx context.Context, stmt string) (render.ResultSet, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		if isConnectionFailure(err) {
			return nil, &ConnectionError{Err: err}
		}
		return nil, newExecutionError(stmt, err)
	}
	defer rows.Close()

	rs, err := scanRows(rows)
	if err != nil {
		return nil, newExecutionError(stmt, err)
	}
	return rs, nil
}

func scanRows(rows *sql.Rows) (render.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cols))
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			types[i] = baseType(ct.DatabaseTypeName())
		}
	}

	rs := render.ResultSet{}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		vals := make([]any, len(cols))
		for i, v := range values {
			vals[i] = normalize(v, types[i])
		}
		rs = append(rs, render.NewRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// baseType strips length, precision and signedness from a column type name:
// "UNSIGNED BIGINT" -> "BIGINT", "DECIMAL(10,2)" -> "DECIMAL".
func baseType(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "UNSIGNED ")
	return strings.TrimSpace(strings.TrimSuffix(name, " UNSIGNED"))
}

func isDecimal(t string) bool {
	return t == "DECIMAL" || t == "NUMERIC" || t == "NEWDECIMAL"
}

func isInteger(t string) bool {
	switch t {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		return true
	}
	return false
}

func isFloat(t string) bool {
	return t == "FLOAT" || t == "DOUBLE" || t == "REAL"
}

func isDateTime(t string) bool {
	return t == "DATETIME" || t == "TIMESTAMP"
}

// normalize converts a scanned value into one of the scalar kinds a result
// row may hold: nil, bool, int64, float64 or string.
func normalize(v any, dbType string) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalizeText(x, dbType)
	case string:
		return normalizeText([]byte(x), dbType)
	case int64:
		if isDecimal(dbType) {
			return float64(x)
		}
		return x
	case time.Time:
		if dbType == "DATE" {
			return x.Format(dateLayout)
		}
		return x.Format(dateTimeLayout)
	}
	return v
}

func normalizeText(b []byte, dbType string) any {
	s := string(b)
	switch {
	case isDecimal(dbType) || isFloat(dbType):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case isInteger(dbType):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case isDateTime(dbType):
		for _, layout := range textTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(dateTimeLayout)
			}
		}
	}
	if !utf8.Valid(b) {
		return map[string]any{"base64": base64.StdEncoding.EncodeToString(b)}
	}
	return s
}
