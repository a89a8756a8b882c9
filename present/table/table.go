// Package table provides a presenter that renders rows as an ASCII table.
package table

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// Presenter renders the first slice field of a struct as a table. Each element
// of the slice is a row of struct type, and each of its fields is a column.
//
// The header of a column is the "table" tag of the field, or the lower-cased
// field name. Fields tagged with "-" and unexported fields are skipped.
// Slice cells are joined with ", " and nil pointers are empty.
type Presenter struct{}

type column struct {
	header string
	index  int
}

func (p *Presenter) Format(v interface{}) (string, error) {
	rv := deref(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return "", errors.New("v should be a struct type")
	}

	rows, ok := firstSlice(rv)
	if !ok {
		return "", errors.New("the struct should have a slice field")
	}
	rowType := rows.Type().Elem()
	for rowType.Kind() == reflect.Ptr {
		rowType = rowType.Elem()
	}
	if rowType.Kind() != reflect.Struct {
		return "", errors.New("v should have a slice of a struct")
	}

	cols := columns(rowType)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	cells := make([][]string, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		cells = append(cells, record(deref(rows.Index(i)), cols))
	}

	var buf bytes.Buffer
	w := tablewriter.NewWriter(&buf)
	w.SetHeader(headers)
	w.AppendBulk(cells)
	w.Render()
	return buf.String(), nil
}

func firstSlice(rv reflect.Value) (reflect.Value, bool) {
	for i := 0; i < rv.NumField(); i++ {
		if rv.Field(i).Kind() == reflect.Slice {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func columns(rt reflect.Type) []column {
	cols := make([]column, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		h := sf.Tag.Get("table")
		switch h {
		case "-":
			continue
		case "":
			h = strings.ToLower(sf.Name)
		}
		cols = append(cols, column{header: h, index: i})
	}
	return cols
}

func record(row reflect.Value, cols []column) []string {
	r := make([]string, len(cols))
	if !row.IsValid() {
		return r
	}
	for i, c := range cols {
		r[i] = cell(row.Field(c.index))
	}
	return r
}

func cell(f reflect.Value) string {
	switch f.Kind() {
	case reflect.Ptr, reflect.Interface:
		if f.IsNil() {
			return ""
		}
	case reflect.Slice:
		s := make([]string, f.Len())
		for i := range s {
			s[i] = fmt.Sprint(f.Index(i).Interface())
		}
		return strings.Join(s, ", ")
	}
	return fmt.Sprint(f.Interface())
}

func deref(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		rv = rv.Elem()
	}
	return rv
}

func NewPresenter() *Presenter {
	return &Presenter{}
}
