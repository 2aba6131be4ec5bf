package dbfactory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

const sqlTag = "sql"

// UseTagName is a type that can be passed as an option to NewStructMapper (or MapRow)
// and determines the field tag name to use for field column mappings
//
// If this option is not passed, then the default "sql" tag is used
type UseTagName string

// FieldColumnNamer is an interface that can be passed as an option to NewStructMapper (or MapRow)
// and is used to derive the column name to use for a given field
//
// If this option is not specified (or none are satisfied), the name is taken from the "sql" tag for the field - and
// if the field has no tag, the field name itself is used (exact match)
type FieldColumnNamer interface {
	// ColumnName returns the column name to use for the given struct field
	//
	// The returned name is only used if second return arg is true (a name of "-" means the field is not mapped)
	ColumnName(structType reflect.Type, fld reflect.StructField) (string, bool)
}

// ErrorOnUnknownColumns is a type that can be passed as an option to NewStructMapper
// and determines whether an error is raised when a field is mapped to a column the query does not return
type ErrorOnUnknownColumns bool

// ErrorOnUnMappedColumns is a type that can be passed as an option to NewStructMapper
// and determines whether an error is raised when the query returns columns that are not mapped to fields
type ErrorOnUnMappedColumns bool

// Shape is implemented by types that declare their own column to field bindings
//
// Columns (implemented with a pointer receiver) returns, by column name, pointers to the fields the columns are to
// be scanned into
//
// When a type implements Shape, struct tags and FieldColumnNamer(s) are not used
type Shape interface {
	Columns() map[string]any
}

// StructMapper is the interface returned by NewStructMapper / MustNewStructMapper
type StructMapper[T any] interface {
	// All reads all rows and maps them into a slice of `T`
	//
	// options can be any of Limiter or ErrorTranslator
	All(ctx context.Context, ex *Executor, query string, args []any, options ...any) ([]T, error)
	// Iterate iterates over the rows and calls the supplied handler with each row
	//
	// iteration stops at the end of rows - or an error is encountered - or the supplied handler returns false for `cont` (continue)
	//
	// options can be any of Limiter or ErrorTranslator
	Iterate(ctx context.Context, ex *Executor, query string, args []any, handler func(row T) (cont bool, err error), options ...any) error
	// First reads just the first row and maps it into a `T`
	//
	// if there are no rows, returns nil
	//
	// options can be ErrorTranslator
	First(ctx context.Context, ex *Executor, query string, args []any, options ...any) (*T, error)
	// One reads the first row and maps it into a `T`
	//
	// if there are no rows, returns error ErrNotFound
	//
	// options can be ErrorTranslator
	One(ctx context.Context, ex *Executor, query string, args []any, options ...any) (T, error)
}

type structMapper[T any] struct {
	binder                 *fieldBinder
	isShape                bool
	fields                 map[string][]int
	errorOnUnknownColumns  bool
	errorOnUnMappedColumns bool
	mu                     sync.RWMutex
	fieldMappers           map[string]func(*T) []any
}

// NewStructMapper creates a new struct mapper for reading structs from query rows
//
// options can be any of UseTagName, FieldColumnNamer, ErrorOnUnknownColumns or ErrorOnUnMappedColumns
func NewStructMapper[T any](options ...any) (StructMapper[T], error) {
	return newStructMapper[T](options)
}

// MustNewStructMapper is the same as NewStructMapper except that it panics on error
func MustNewStructMapper[T any](options ...any) StructMapper[T] {
	result, err := NewStructMapper[T](options...)
	if err != nil {
		panic(err)
	}
	return result
}

func newStructMapper[T any](options []any) (*structMapper[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, errors.New("StructMapper can only be used with struct types")
	}
	m := &structMapper[T]{
		fieldMappers: make(map[string]func(*T) []any),
	}
	var binderOpts []any
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case ErrorOnUnknownColumns:
				m.errorOnUnknownColumns = bool(option)
			case ErrorOnUnMappedColumns:
				m.errorOnUnMappedColumns = bool(option)
			default:
				binderOpts = append(binderOpts, o)
			}
		}
	}
	var err error
	if m.binder, err = newFieldBinder(binderOpts); err != nil {
		return nil, err
	}
	if _, m.isShape = any((*T)(nil)).(Shape); !m.isShape {
		if m.fields, err = m.binder.fieldMap(rt); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *structMapper[T]) All(ctx context.Context, ex *Executor, query string, args []any, options ...any) ([]T, error) {
	limiter, errTranslator, err := ex.callOptions(options)
	if err != nil {
		return nil, err
	}
	result := make([]T, 0)
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		fieldPtrs, err := m.getFieldMappers(rows)
		if err != nil {
			return err
		}
		rowCount := 0
		for rows.Next() {
			rowCount++
			if limiter.LimitReached(rowCount) {
				break
			}
			var item T
			if err = rows.Scan(fieldPtrs(&item)...); err != nil {
				return m.mappingError(err)
			}
			result = append(result, item)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return result, nil
}

func (m *structMapper[T]) Iterate(ctx context.Context, ex *Executor, query string, args []any, handler func(row T) (cont bool, err error), options ...any) error {
	limiter, errTranslator, err := ex.callOptions(options)
	if err != nil {
		return err
	}
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		fieldPtrs, err := m.getFieldMappers(rows)
		if err != nil {
			return err
		}
		rowCount := 0
		cont := true
		for cont && rows.Next() {
			rowCount++
			if limiter.LimitReached(rowCount) {
				break
			}
			var item T
			if err = rows.Scan(fieldPtrs(&item)...); err != nil {
				return m.mappingError(err)
			}
			if cont, err = handler(item); err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err, errTranslator)
}

func (m *structMapper[T]) First(ctx context.Context, ex *Executor, query string, args []any, options ...any) (*T, error) {
	_, errTranslator, err := ex.callOptions(options)
	if err != nil {
		return nil, err
	}
	var result *T
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		fieldPtrs, err := m.getFieldMappers(rows)
		if err != nil {
			return err
		}
		if rows.Next() {
			var item T
			if err = rows.Scan(fieldPtrs(&item)...); err != nil {
				return m.mappingError(err)
			}
			result = &item
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return result, nil
}

func (m *structMapper[T]) One(ctx context.Context, ex *Executor, query string, args []any, options ...any) (T, error) {
	var zero T
	_, errTranslator, err := ex.callOptions(options)
	if err != nil {
		return zero, err
	}
	var result T
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		fieldPtrs, err := m.getFieldMappers(rows)
		if err != nil {
			return err
		}
		if !rows.Next() {
			if err = rows.Err(); err != nil {
				return dataAccessError("query", query, err)
			}
			return ErrNotFound
		}
		if err = rows.Scan(fieldPtrs(&result)...); err != nil {
			return m.mappingError(err)
		}
		return nil
	})
	if err != nil {
		return zero, translateError(err, errTranslator)
	}
	return result, nil
}

func (m *structMapper[T]) mappingError(err error) error {
	return &MappingError{Type: reflect.TypeOf((*T)(nil)).Elem(), Err: err}
}

func (m *structMapper[T]) getFieldMappers(rows *sql.Rows) (func(*T) []any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	key := strings.Join(columns, "\x00")
	m.mu.RLock()
	fieldPtrs, ok := m.fieldMappers[key]
	m.mu.RUnlock()
	if ok {
		return fieldPtrs, nil
	}
	if err = m.checkColumns(columns); err != nil {
		return nil, err
	}
	if m.isShape {
		fieldPtrs = func(t *T) []any {
			bound := any(t).(Shape).Columns()
			ptrs := make([]any, len(columns))
			for i, col := range columns {
				if ptr, ok := bound[col]; ok && ptr != nil {
					ptrs[i] = ptr
				} else {
					ptrs[i] = new(any)
				}
			}
			return ptrs
		}
	} else {
		fields := m.fields
		fieldPtrs = func(t *T) []any {
			rv := reflect.ValueOf(t).Elem()
			ptrs := make([]any, len(columns))
			for i, col := range columns {
				if index, ok := fields[col]; ok {
					ptrs[i] = rv.FieldByIndex(index).Addr().Interface()
				} else {
					ptrs[i] = new(any)
				}
			}
			return ptrs
		}
	}
	m.mu.Lock()
	m.fieldMappers[key] = fieldPtrs
	m.mu.Unlock()
	return fieldPtrs, nil
}

func (m *structMapper[T]) boundColumns() map[string]bool {
	result := make(map[string]bool)
	if m.isShape {
		for col := range any(new(T)).(Shape).Columns() {
			result[col] = true
		}
	} else {
		for col := range m.fields {
			result[col] = true
		}
	}
	return result
}

func (m *structMapper[T]) checkColumns(columns []string) error {
	if !m.errorOnUnknownColumns && !m.errorOnUnMappedColumns {
		return nil
	}
	bound := m.boundColumns()
	returned := make(map[string]bool, len(columns))
	for _, col := range columns {
		returned[col] = true
	}
	if m.errorOnUnMappedColumns {
		unmapped := make([]string, 0)
		for col := range returned {
			if !bound[col] {
				unmapped = append(unmapped, col)
			}
		}
		if len(unmapped) > 0 {
			sort.Strings(unmapped)
			return m.mappingError(fmt.Errorf("unmapped column(s): %s", `"`+strings.Join(unmapped, `","`)+`"`))
		}
	}
	if m.errorOnUnknownColumns {
		unknown := make([]string, 0)
		for col := range bound {
			if !returned[col] {
				unknown = append(unknown, col)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return m.mappingError(fmt.Errorf("unknown column(s): %s", `"`+strings.Join(unknown, `","`)+`"`))
		}
	}
	return nil
}
