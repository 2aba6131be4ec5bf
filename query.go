package dbfactory

import (
	"context"
	"database/sql"
)

// QueryAll reads all rows of the query and maps each into a `T`
//
// options can be any of UseTagName, FieldColumnNamer, ErrorOnUnknownColumns, ErrorOnUnMappedColumns, Limiter
// or ErrorTranslator
func QueryAll[T any](ctx context.Context, ex *Executor, query string, args []any, options ...any) ([]T, error) {
	m, callOpts, err := mapperFor[T](options)
	if err != nil {
		return nil, err
	}
	return m.All(ctx, ex, query, args, callOpts...)
}

// QueryFirst reads just the first row of the query and maps it into a `T`
//
// if there are no rows, returns nil - any rows after the first are not read
func QueryFirst[T any](ctx context.Context, ex *Executor, query string, args []any, options ...any) (*T, error) {
	m, callOpts, err := mapperFor[T](options)
	if err != nil {
		return nil, err
	}
	return m.First(ctx, ex, query, args, callOpts...)
}

// QueryOne reads the first row of the query and maps it into a `T`
//
// if there are no rows, returns ErrNotFound
func QueryOne[T any](ctx context.Context, ex *Executor, query string, args []any, options ...any) (T, error) {
	m, callOpts, err := mapperFor[T](options)
	if err != nil {
		var zero T
		return zero, err
	}
	return m.One(ctx, ex, query, args, callOpts...)
}

// Iterate calls handler with each row of the query mapped into a `T`
//
// iteration stops at the end of rows - or an error is encountered - or the handler returns false for `cont`
func Iterate[T any](ctx context.Context, ex *Executor, query string, args []any, handler func(row T) (cont bool, err error), options ...any) error {
	m, callOpts, err := mapperFor[T](options)
	if err != nil {
		return err
	}
	return m.Iterate(ctx, ex, query, args, handler, callOpts...)
}

// Scalar reads the first column of the first row of the query into a `T`
//
// found is false when there are no rows
func Scalar[T any](ctx context.Context, ex *Executor, query string, args ...any) (result T, found bool, err error) {
	if ex == nil {
		return result, false, ErrNoSource
	}
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		if rows.Next() {
			found = true
			return scanFirstColumn(rows, query, &result)
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, translateError(err, ex.errorTranslator)
	}
	return result, found, nil
}

// mapperFor splits options into those for the struct mapper and those for the call
func mapperFor[T any](options []any) (*structMapper[T], []any, error) {
	var mapperOpts, callOpts []any
	for _, o := range options {
		switch o.(type) {
		case UseTagName, FieldColumnNamer, ErrorOnUnknownColumns, ErrorOnUnMappedColumns:
			mapperOpts = append(mapperOpts, o)
		default:
			callOpts = append(callOpts, o)
		}
	}
	m, err := newStructMapper[T](mapperOpts)
	return m, callOpts, err
}
