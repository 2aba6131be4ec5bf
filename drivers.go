package dbfactory

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Opener opens a (not yet pinged) connection pool for the given Conf
type Opener func(conf *Conf) (*sql.DB, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]Opener{
		"mysql":    openMySQL,
		"postgres": openPostgres,
		"pgx":      openPgx,
		"sqlite3":  openSQLite,
	}
)

// RegisterDriver registers (or replaces) the Opener used by Open for the named Conf.Driver
func RegisterDriver(name string, opener Opener) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = opener
}

// Drivers returns the sorted names of the registered drivers
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	result := make([]string, 0, len(drivers))
	for name := range drivers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func lookupDriver(name string) (Opener, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	if opener, ok := drivers[name]; ok && opener != nil {
		return opener, nil
	}
	return nil, fmt.Errorf("unsupported driver: %q", name)
}

func openMySQL(conf *Conf) (*sql.DB, error) {
	cfg, err := mysqlConfig(conf)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

func mysqlConfig(conf *Conf) (*mysql.Config, error) {
	if conf.DSN != "" {
		return mysql.ParseDSN(conf.DSN)
	}
	cfg := mysql.NewConfig()
	cfg.User = conf.User
	cfg.Passwd = conf.PW
	cfg.Net = "tcp"
	cfg.Addr = hostPort(conf.Host, conf.Port, 3306)
	cfg.DBName = conf.DB
	cfg.ParseTime = true
	if conf.TZ != "" {
		loc, err := time.LoadLocation(conf.TZ)
		if err != nil {
			return nil, err
		}
		cfg.Loc = loc
	}
	return cfg, nil
}

func openPostgres(conf *Conf) (*sql.DB, error) {
	connector, err := pq.NewConnector(postgresDSN(conf))
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

func openPgx(conf *Conf) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(postgresDSN(conf))
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*cfg), nil
}

// postgresDSN builds a key/value DSN understood by both lib/pq and pgx
func postgresDSN(conf *Conf) string {
	if conf.DSN != "" {
		return conf.DSN
	}
	host := conf.Host
	if host == "" {
		host = "localhost"
	}
	port := conf.Port
	if port == 0 {
		port = 5432
	}
	parts := []string{
		"host=" + quoteDSNValue(host),
		"port=" + strconv.Itoa(port),
	}
	for _, kv := range [][2]string{
		{"user", conf.User},
		{"password", conf.PW},
		{"dbname", conf.DB},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+quoteDSNValue(kv[1]))
		}
	}
	parts = append(parts, "sslmode=disable")
	if conf.TZ != "" {
		parts = append(parts, "TimeZone="+quoteDSNValue(conf.TZ))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

func openSQLite(conf *Conf) (*sql.DB, error) {
	dsn := conf.DSN
	if dsn == "" {
		dsn = conf.DB
	}
	if dsn == "" {
		return nil, errors.New("sqlite3 requires db (file path) or dsn")
	}
	return sql.Open("sqlite3", dsn)
}

func hostPort(host string, port int, defaultPort int) string {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
