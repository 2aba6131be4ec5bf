package dbfactory

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotFound is returned by QueryOne (and StructMapper.One) when the query yields no rows
	//
	// it also matches sql.ErrNoRows with errors.Is
	ErrNotFound = fmt.Errorf("not found: %w", sql.ErrNoRows)
	// ErrNoSource is returned when an Executor is created without a SqlInterface
	ErrNoSource = errors.New("no connection source")
)

// DataAccessError is returned when obtaining a connection, preparing or executing a statement fails
type DataAccessError struct {
	// Op is the failed step - one of "connect", "acquire", "prepare", "exec", "query" or "scan"
	Op    string
	Query string
	Err   error
}

func (e *DataAccessError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed for %q: %v", e.Op, e.Query, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// MappingError is returned when a row cannot be mapped onto the target type
//
// nothing of the failed row is stored into the target
type MappingError struct {
	Type   reflect.Type
	Column string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("cannot map row to %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("cannot map column %q to %s: %v", e.Column, e.Type, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func dataAccessError(op string, query string, err error) error {
	if err == nil {
		return nil
	}
	return &DataAccessError{Op: op, Query: query, Err: err}
}
