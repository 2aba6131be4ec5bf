package dbfactory

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// Row is a result row - the column values by column name
//
// text columns are read as string, DECIMAL/NUMERIC columns as decimal.Decimal, all other values are as returned by
// the driver
type Row map[string]any

// Rows reads all rows of the query into a slice of Row
//
// options can be any of Limiter, ErrorTranslator, ColumnScanners or RowPostProcessor
func (ex *Executor) Rows(ctx context.Context, query string, args []any, options ...any) ([]Row, error) {
	opts, err := ex.rowOptions(options)
	if err != nil {
		return nil, err
	}
	result := make([]Row, 0)
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		cols, err := readerFor(rows, query, opts.scanners)
		if err != nil {
			return err
		}
		rowCount := 0
		for rows.Next() {
			rowCount++
			if opts.limiter.LimitReached(rowCount) {
				break
			}
			if err = rows.Scan(cols.scanArgs...); err != nil {
				return dataAccessError("scan", query, err)
			}
			result = append(result, cols.row())
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, opts.errTranslator)
	}
	if err = postProcessRows(ctx, ex.sqli, result, opts.postProcessors); err != nil {
		return nil, err
	}
	return result, nil
}

// FirstRow reads just the first row of the query
//
// if there are no rows, returns nil
//
// options can be any of ErrorTranslator, ColumnScanners or RowPostProcessor
func (ex *Executor) FirstRow(ctx context.Context, query string, args []any, options ...any) (Row, error) {
	opts, err := ex.rowOptions(options)
	if err != nil {
		return nil, err
	}
	var result Row
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		if !rows.Next() {
			return nil
		}
		cols, err := readerFor(rows, query, opts.scanners)
		if err != nil {
			return err
		}
		if err = rows.Scan(cols.scanArgs...); err != nil {
			return dataAccessError("scan", query, err)
		}
		result = cols.row()
		return nil
	})
	if err != nil {
		return nil, translateError(err, opts.errTranslator)
	}
	if result != nil {
		if err = postProcessRows(ctx, ex.sqli, []Row{result}, opts.postProcessors); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type rowOptions struct {
	limiter        Limiter
	errTranslator  ErrorTranslator
	scanners       ColumnScanners
	postProcessors []RowPostProcessor
}

func (ex *Executor) rowOptions(options []any) (*rowOptions, error) {
	result := &rowOptions{}
	callOpts := make([]any, 0, len(options))
	for _, o := range options {
		switch option := o.(type) {
		case ColumnScanners:
			if result.scanners == nil {
				result.scanners = make(ColumnScanners, len(option))
			}
			for col, scanner := range option {
				result.scanners[col] = scanner
			}
		case RowPostProcessor:
			result.postProcessors = append(result.postProcessors, option)
		default:
			callOpts = append(callOpts, o)
		}
	}
	var err error
	result.limiter, result.errTranslator, err = ex.callOptions(callOpts)
	return result, err
}

func readerFor(rows *sql.Rows, query string, scanners ColumnScanners) (*columnsReader, error) {
	ci, err := newColumnsInfo(rows)
	if err != nil {
		return nil, dataAccessError("scan", query, err)
	}
	return ci.reader(scanners), nil
}

// MapRow copies the values of row into the fields of dst (which must be a non-nil pointer to a struct)
//
// each field bound to a column (see Shape, FieldColumnNamer and the "sql" tag) that is present in the row is
// set to the column value - fields without a column are left untouched and columns without a field are ignored
//
// values are not converted: a nil value sets the field zero value, a field implementing sql.Scanner is scanned,
// otherwise the value must be assignable to the field. If any column fails, dst is left unchanged
//
// options can be any of UseTagName or FieldColumnNamer
func MapRow(row Row, dst any, options ...any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("MapRow requires a non-nil pointer to a struct, got %T", dst)
	}
	rt := rv.Elem().Type()
	tmp := reflect.New(rt)
	tmp.Elem().Set(rv.Elem())
	if shape, ok := tmp.Interface().(Shape); ok {
		for col, ptr := range shape.Columns() {
			value, ok := row[col]
			if !ok || ptr == nil {
				continue
			}
			pv := reflect.ValueOf(ptr)
			if pv.Kind() != reflect.Pointer || pv.IsNil() {
				return &MappingError{Type: rt, Column: col, Err: fmt.Errorf("binding is not a pointer (%T)", ptr)}
			}
			if err := assignValue(pv.Elem(), value); err != nil {
				return &MappingError{Type: rt, Column: col, Err: err}
			}
		}
	} else {
		binder, err := newFieldBinder(options)
		if err != nil {
			return err
		}
		fields, err := binder.fieldMap(rt)
		if err != nil {
			return err
		}
		for col, index := range fields {
			if value, ok := row[col]; ok {
				if err = assignValue(tmp.Elem().FieldByIndex(index), value); err != nil {
					return &MappingError{Type: rt, Column: col, Err: err}
				}
			}
		}
	}
	rv.Elem().Set(tmp.Elem())
	return nil
}

func assignValue(field reflect.Value, value any) error {
	if field.CanAddr() && field.Addr().Type().Implements(scannerType) {
		return field.Addr().Interface().(sql.Scanner).Scan(value)
	}
	if value == nil {
		field.SetZero()
		return nil
	}
	v := reflect.ValueOf(value)
	ft := field.Type()
	switch {
	case v.Type().AssignableTo(ft):
		field.Set(v)
	case ft.Kind() == reflect.Pointer && v.Type().AssignableTo(ft.Elem()):
		p := reflect.New(ft.Elem())
		p.Elem().Set(v)
		field.Set(p)
	default:
		return fmt.Errorf("value of type %T is not assignable to %s", value, ft)
	}
	return nil
}
