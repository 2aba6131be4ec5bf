package dbfactory

import (
	"fmt"
	"reflect"
	"strings"
)

// fieldBinder resolves the column bound to each field declared directly on a struct type
//
// embedded (promoted) and unexported fields are never bound
type fieldBinder struct {
	namers []FieldColumnNamer
}

func newFieldBinder(options []any) (*fieldBinder, error) {
	tagName := sqlTag
	result := &fieldBinder{}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case UseTagName:
				if option != "" {
					tagName = string(option)
				}
			case FieldColumnNamer:
				result.namers = append(result.namers, option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	result.namers = append(result.namers, &defaultFieldColumnNamer{tagName: tagName})
	return result, nil
}

// fieldMap returns the field index by column name
func (b *fieldBinder) fieldMap(rt reflect.Type) (map[string][]int, error) {
	result := make(map[string][]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		col := b.columnName(rt, f)
		if col == "-" || col == "" {
			continue
		}
		if _, exists := result[col]; exists {
			return nil, fmt.Errorf("duplicate column mapping %q", col)
		}
		result[col] = f.Index
	}
	return result, nil
}

func (b *fieldBinder) columnName(rt reflect.Type, f reflect.StructField) string {
	for _, namer := range b.namers {
		if name, ok := namer.ColumnName(rt, f); ok {
			return name
		}
	}
	return ""
}

type defaultFieldColumnNamer struct {
	tagName string
}

var _ FieldColumnNamer = &defaultFieldColumnNamer{}

func (d *defaultFieldColumnNamer) ColumnName(structType reflect.Type, fld reflect.StructField) (string, bool) {
	if tag, ok := fld.Tag.Lookup(d.tagName); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name, true
		}
	}
	return fld.Name, true
}
