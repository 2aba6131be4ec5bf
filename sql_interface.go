package dbfactory

import (
	"context"
	"database/sql"
)

// SqlInterface is the connection abstraction used by Executor
//
// it is satisfied by *sql.DB, *sql.Conn, *sql.Tx and *Source
type SqlInterface interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// connector is implemented by pools that can hand out a dedicated connection (*sql.DB, *Source)
type connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

var (
	_ SqlInterface = (*sql.DB)(nil)
	_ SqlInterface = (*sql.Conn)(nil)
	_ SqlInterface = (*sql.Tx)(nil)
	_ connector    = (*sql.DB)(nil)
)
