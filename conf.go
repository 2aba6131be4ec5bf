package dbfactory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const defaultConnectTimeout = 5 * time.Second

// Conf is the configuration of a connection Source
type Conf struct {
	Driver string `json:"driver"` // mysql, postgres, pgx, sqlite3
	Host   string `json:"host"`
	Port   int    `json:"port"`
	User   string `json:"user"`
	PW     string `json:"pw"`
	DB     string `json:"db"`  // database name (file path for sqlite3)
	TZ     string `json:"tz"`  // connection timezone
	DSN    string `json:"dsn"` // overrides the DSN built from the fields above

	MaxOpenConns    int      `json:"max_open_conns"`
	MaxIdleConns    int      `json:"max_idle_conns"`
	ConnMaxLifetime Duration `json:"conn_max_lifetime"`
	ConnectTimeout  Duration `json:"connect_timeout"` // ping timeout when opening, default 5s
}

// LoadConf reads a Conf from a JSON file
func LoadConf(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := &Conf{}
	if err = json.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("invalid conf %s: %w", path, err)
	}
	return conf, nil
}

func (c *Conf) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return time.Duration(c.ConnectTimeout)
	}
	return defaultConnectTimeout
}

// Duration is a time.Duration that reads from JSON as either a string ("3m") or a number of nanoseconds
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		pd, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(pd)
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration: %s", string(data))
	}
	return nil
}
