package dbfactory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Source is a pooled connection source
//
// a Source is created once (by Open or NewSource), shared by any number of Executor(s) and closed explicitly
type Source struct {
	*sql.DB
	driver string
	logger Logger
	closed atomic.Bool
}

var _ SqlInterface = (*Source)(nil)

// Open opens the pooled connection source described by conf and checks it is reachable
//
// options can be any of: Logger
//
// a failure is logged and returned - there is no retry
func Open(ctx context.Context, conf *Conf, options ...any) (*Source, error) {
	if conf == nil {
		return nil, errors.New("no conf")
	}
	logger, err := sourceOptions(options)
	if err != nil {
		return nil, err
	}
	opener, err := lookupDriver(conf.Driver)
	if err != nil {
		logger.Error("open source: %v", err)
		return nil, err
	}
	db, err := opener(conf)
	if err != nil {
		logger.Error("open %s source: %v", conf.Driver, err)
		return nil, dataAccessError("connect", "", err)
	}
	if conf.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.MaxOpenConns)
	}
	if conf.MaxIdleConns > 0 {
		db.SetMaxIdleConns(conf.MaxIdleConns)
	}
	if conf.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(conf.ConnMaxLifetime))
	}
	pingCtx, cancel := context.WithTimeout(ctx, conf.connectTimeout())
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		logger.Error("%s source unreachable: %v", conf.Driver, err)
		return nil, dataAccessError("connect", "", err)
	}
	logger.Info("%s source opened", conf.Driver)
	return &Source{
		DB:     db,
		driver: conf.Driver,
		logger: logger,
	}, nil
}

// MustOpen is the same as Open, except it panics on error
func MustOpen(ctx context.Context, conf *Conf, options ...any) *Source {
	src, err := Open(ctx, conf, options...)
	if err != nil {
		panic(err)
	}
	return src
}

// NewSource wraps an already opened *sql.DB
//
// options can be any of: Logger
func NewSource(db *sql.DB, options ...any) (*Source, error) {
	if db == nil {
		return nil, ErrNoSource
	}
	logger, err := sourceOptions(options)
	if err != nil {
		return nil, err
	}
	return &Source{
		DB:     db,
		logger: logger,
	}, nil
}

// Driver returns the Conf.Driver the source was opened with (empty for NewSource)
func (s *Source) Driver() string {
	return s.driver
}

// Close closes the pool - subsequent calls are no-ops
func (s *Source) Close() error {
	if s == nil || s.DB == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.DB.Close()
	if err != nil {
		s.logger.Error("closing source: %v", err)
	} else {
		s.logger.Info("source closed")
	}
	return err
}

func sourceOptions(options []any) (Logger, error) {
	logger := NopLogger
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Logger:
				logger = option
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return logger, nil
}
