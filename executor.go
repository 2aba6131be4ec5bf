package dbfactory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Executor executes parameterized sql against a SqlInterface
//
// every call acquires its own connection (when the SqlInterface is a pool) and prepared statement, and
// releases both before returning - whatever the outcome
type Executor struct {
	sqli            SqlInterface
	logger          Logger
	errorTranslator ErrorTranslator
}

// NewExecutor creates a new Executor
//
// options can be any of: Logger or ErrorTranslator
//
// when sqli is a *Source and no Logger option is passed, the source's logger is used
func NewExecutor(sqli SqlInterface, options ...any) (*Executor, error) {
	if sqli == nil {
		return nil, ErrNoSource
	}
	result := &Executor{
		sqli:            sqli,
		logger:          NopLogger,
		errorTranslator: defaultErrorTranslator,
	}
	switch src := sqli.(type) {
	case *Source:
		if src == nil || src.DB == nil {
			return nil, ErrNoSource
		}
		result.logger = src.logger
	case *sql.DB:
		if src == nil {
			return nil, ErrNoSource
		}
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Logger:
				result.logger = option
			case ErrorTranslator:
				result.errorTranslator = option
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return result, nil
}

// MustNewExecutor is the same as NewExecutor, except it panics on error
func MustNewExecutor(sqli SqlInterface, options ...any) *Executor {
	ex, err := NewExecutor(sqli, options...)
	if err != nil {
		panic(err)
	}
	return ex
}

// Execute executes a statement that is not expected to return rows
//
// returns true when the statement was executed
func (ex *Executor) Execute(ctx context.Context, query string, args ...any) (bool, error) {
	_, err := ex.Exec(ctx, query, args...)
	return err == nil, err
}

// Exec is the same as Execute, except that it returns the driver's sql.Result
func (ex *Executor) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if ex == nil {
		return nil, ErrNoSource
	}
	start := time.Now()
	result, err := ex.exec(ctx, query, args)
	ex.logger.SQL(query, time.Since(start), err, args...)
	return result, translateError(err, ex.errorTranslator)
}

// ExecuteScalar executes a query and returns the value of the first column of the first row
//
// if there are no rows, returns nil (and no error) - any rows after the first are not read
func (ex *Executor) ExecuteScalar(ctx context.Context, query string, args ...any) (result any, err error) {
	if ex == nil {
		return nil, ErrNoSource
	}
	err = ex.query(ctx, query, args, func(rows *sql.Rows) error {
		if rows.Next() {
			return scanFirstColumn(rows, query, &result)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, ex.errorTranslator)
	}
	return result, nil
}

func (ex *Executor) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	stmt, release, err := ex.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	defer release()
	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, dataAccessError("exec", query, err)
	}
	return result, nil
}

// query runs the query and hands the rows to fn - rows, statement and connection are all closed on return
func (ex *Executor) query(ctx context.Context, query string, args []any, fn func(rows *sql.Rows) error) (err error) {
	start := time.Now()
	defer func() {
		logErr := err
		if errors.Is(err, ErrNotFound) {
			logErr = nil
		}
		ex.logger.SQL(query, time.Since(start), logErr, args...)
	}()
	stmt, release, err := ex.prepare(ctx, query)
	if err != nil {
		return err
	}
	defer release()
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return dataAccessError("query", query, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	if err = fn(rows); err == nil {
		err = dataAccessError("query", query, rows.Err())
	}
	return err
}

func (ex *Executor) prepare(ctx context.Context, query string) (*sql.Stmt, func(), error) {
	db, releaseConn, err := ex.acquire(ctx)
	if err != nil {
		return nil, nil, dataAccessError("acquire", query, err)
	}
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		releaseConn()
		return nil, nil, dataAccessError("prepare", query, err)
	}
	return stmt, func() {
		_ = stmt.Close()
		releaseConn()
	}, nil
}

func (ex *Executor) acquire(ctx context.Context) (SqlInterface, func(), error) {
	if c, ok := ex.sqli.(connector); ok {
		conn, err := c.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		return conn, func() {
			_ = conn.Close()
		}, nil
	}
	return ex.sqli, func() {}, nil
}

// callOptions resolves the per call options - any of Limiter or ErrorTranslator
func (ex *Executor) callOptions(options []any) (limiter Limiter, translator ErrorTranslator, err error) {
	if ex == nil {
		return nil, nil, ErrNoSource
	}
	limiter = defaultLimiter
	translator = ex.errorTranslator
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Limiter:
				limiter = option
			case ErrorTranslator:
				translator = option
			default:
				return nil, nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return limiter, translator, nil
}

var errNoColumns = errors.New("query returned no columns")

func scanFirstColumn(rows *sql.Rows, query string, dest any) error {
	cols, err := rows.Columns()
	if err != nil {
		return dataAccessError("scan", query, err)
	}
	if len(cols) == 0 {
		return dataAccessError("scan", query, errNoColumns)
	}
	args := make([]any, len(cols))
	args[0] = dest
	for i := 1; i < len(args); i++ {
		args[i] = new(any)
	}
	return dataAccessError("scan", query, rows.Scan(args...))
}
