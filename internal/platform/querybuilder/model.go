package querybuilder

import (
	"reflect"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// ColumnsOf lists the db-tagged columns of a struct type in field order.
func ColumnsOf(model any) ([]string, error) {
	typ := reflect.TypeOf(model)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, crerr.New("model must be struct")
	}

	cols := make([]string, 0, typ.NumField())
	for _, field := range reflect.VisibleFields(typ) {
		if col, ok := columnName(field); ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return nil, crerr.New("model has no db columns")
	}
	return cols, nil
}

// RowFromModel maps a struct's db-tagged fields to a Row.
func RowFromModel(model any) (Row, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, crerr.New("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, crerr.New("model must be struct")
	}

	row := make(Row, value.NumField())
	for _, field := range reflect.VisibleFields(value.Type()) {
		col, ok := columnName(field)
		if !ok {
			continue
		}
		row[col] = value.FieldByIndex(field.Index).Interface()
	}
	if len(row) == 0 {
		return nil, crerr.New("model has no db columns")
	}
	return row, nil
}

// RowsFromModels converts records to rows and reports the columns of T, which
// hold even when items is empty.
func RowsFromModels[T any](items []T) ([]Row, []string, error) {
	var zero T
	columns, err := ColumnsOf(zero)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]Row, 0, len(items))
	for i, item := range items {
		row, err := RowFromModel(item)
		if err != nil {
			return nil, nil, crerr.Wrapf(err, "map row %d", i)
		}
		rows = append(rows, row)
	}
	return rows, columns, nil
}

func columnName(field reflect.StructField) (string, bool) {
	if !field.IsExported() || field.Anonymous {
		return "", false
	}
	tag := strings.TrimSpace(field.Tag.Get("db"))
	if tag == "" || tag == "-" {
		return "", false
	}
	col := strings.TrimSpace(strings.Split(tag, ",")[0])
	if col == "" || col == "-" {
		return "", false
	}
	return col, true
}
