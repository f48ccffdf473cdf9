package querybuilder

import (
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// Row is one record keyed by column name.
type Row map[string]any

type InsertBuilder struct {
	table   string
	columns []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// ToSQL renders a single-row statement template with one positional
// placeholder per column, in column order.
func (b *InsertBuilder) ToSQL() (string, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", crerr.New("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", crerr.New("insert columns are required")
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES (")
	for i := range b.columns {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(placeholder(i + 1))
	}
	buf.WriteString(")")

	return buf.String(), nil
}

// Tuples orders each row's values by the builder's columns. Values are looked up
// by name, so the map iteration order of a row never matters.
func (b *InsertBuilder) Tuples(rows []Row) ([][]any, error) {
	out := make([][]any, 0, len(rows))
	for rowIdx, row := range rows {
		tuple := make([]any, 0, len(b.columns))
		for _, column := range b.columns {
			value, ok := row[column]
			if !ok {
				return nil, crerr.Newf("insert row %d has no value for column %q", rowIdx, column)
			}
			tuple = append(tuple, value)
		}
		out = append(out, tuple)
	}
	return out, nil
}

// BuildBatchInsert returns one parameterized INSERT statement for table and the
// value tuples to execute it with, one per row.
func BuildBatchInsert(table string, rows []Row, columns []string) (string, [][]any, error) {
	builder := InsertInto(table).Columns(columns...)
	query, err := builder.ToSQL()
	if err != nil {
		return "", nil, err
	}
	values, err := builder.Tuples(rows)
	if err != nil {
		return "", nil, crerr.Wrapf(err, "build %s values", table)
	}
	return query, values, nil
}

func placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}
