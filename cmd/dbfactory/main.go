package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"github.com/go-andiamo/dbfactory"
	"github.com/go-andiamo/dbfactory/sha"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage:
  dbfactory digest <text>
  dbfactory [flags] exec <sql> [args...]
  dbfactory [flags] scalar <sql> [args...]
  dbfactory [flags] query <sql> [args...]

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, arguments []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("dbfactory", flag.ContinueOnError)
	fs.SetOutput(stderr)
	confPath := fs.String("conf", "", "path of a JSON connection conf file")
	driver := fs.String("driver", "", "database driver (overrides conf) - one of the registered drivers")
	dsn := fs.String("dsn", "", "connection DSN (overrides conf)")
	verbose := fs.Bool("v", false, "log every statement to stderr")
	logFormat := fs.String("log-format", string(dbfactory.LogFormatText), "log format - text or json")
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(arguments); err != nil {
		return 2
	}
	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return 2
	}
	cmd, args := args[0], args[1:]
	if cmd == "digest" {
		return digest(args, stdout, stderr)
	}
	if len(args) == 0 {
		fs.Usage()
		return 2
	}
	switch cmd {
	case "exec", "scalar", "query":
	default:
		_, _ = fmt.Fprintf(stderr, "%v: %q\n", errUnknownCommand, cmd)
		return 2
	}

	level := dbfactory.LogLevelError
	if *verbose {
		level = dbfactory.LogLevelInfo
	}
	logger := dbfactory.NewStdLogger(stderr, level, dbfactory.LogFormat(*logFormat))
	conf := &dbfactory.Conf{}
	if *confPath != "" {
		var err error
		if conf, err = dbfactory.LoadConf(*confPath); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if *driver != "" {
		conf.Driver = *driver
	}
	if *dsn != "" {
		conf.DSN = *dsn
	}

	src, err := dbfactory.Open(ctx, conf, logger)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() {
		_ = src.Close()
	}()
	ex, err := dbfactory.NewExecutor(src)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	if err = execute(ctx, ex, cmd, args[0], params(args[1:]), stdout); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

var errUnknownCommand = errors.New("unknown command")

func execute(ctx context.Context, ex *dbfactory.Executor, cmd string, query string, args []any, stdout io.Writer) error {
	switch cmd {
	case "exec":
		result, err := ex.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%d row(s) affected\n", affected)
		return err
	case "scalar":
		v, err := ex.ExecuteScalar(ctx, query, args...)
		if err != nil {
			return err
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		return writeJSON(stdout, v)
	case "query":
		rows, err := ex.Rows(ctx, query, args)
		if err != nil {
			return err
		}
		return writeJSON(stdout, rows)
	}
	return fmt.Errorf("%w: %q", errUnknownCommand, cmd)
}

func digest(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) != 1 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	d, err := sha.Digest(args[0])
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, d)
	return 0
}

// params passes command line args as positional string parameters
func params(args []string) []any {
	result := make([]any, len(args))
	for i, arg := range args {
		result[i] = arg
	}
	return result
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
