// Package name provides a presenter that lists one name per line.
package name

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Presenter formats the rows of v into lines. v must be a struct that has a
// slice field. A row that is a struct is printed by its first field, and any
// other row is printed as is.
type Presenter struct{}

func (p *Presenter) Format(v interface{}) (string, error) {
	rv := deref(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return "", errors.New("v should be a struct type")
	}

	var rows reflect.Value
	for i := 0; i < rv.NumField(); i++ {
		if rv.Field(i).Kind() == reflect.Slice {
			rows = rv.Field(i)
			break
		}
	}
	if !rows.IsValid() {
		return "", errors.New("the struct should have a slice field")
	}

	lines := make([]string, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		s, err := line(deref(rows.Index(i)))
		if err != nil {
			return "", errors.Wrapf(err, "row %d", i)
		}
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n"), nil
}

func line(row reflect.Value) (string, error) {
	switch {
	case !row.IsValid():
		return "", nil
	case row.Kind() != reflect.Struct:
		return fmt.Sprint(row.Interface()), nil
	case row.NumField() == 0:
		return "", errors.New("struct should have at least 1 field")
	}
	return fmt.Sprint(row.Field(0)), nil
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
