package dbfactory

import (
	"bytes"
	"fmt"
	"github.com/shopspring/decimal"
	"strconv"
	"strings"
)

// ColumnScanner is a func that reads the value of a column into a Row
type ColumnScanner func(src any) (value any, err error)

// ColumnScanners is an option that can be passed to Executor.Rows and Executor.FirstRow - ColumnScanner by column name
type ColumnScanners map[string]ColumnScanner

// BoolColumn is a ColumnScanner that converts a column to a bool
//
// Particularly useful for MySql which only supports BOOL columns as TINYINT
func BoolColumn(src any) (any, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	case nil:
		return false, nil
	}
	return nil, fmt.Errorf("type %T is not a bool", src)
}

// StringColumn is a ColumnScanner that reads any non-null column as a string
func StringColumn(src any) (any, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return fmt.Sprint(src), nil
}

// DecimalColumn is a ColumnScanner that reads a column as a decimal.Decimal
//
// DECIMAL, NUMERIC and NUMBER columns are read this way by default (drivers return them as text)
func DecimalColumn(src any) (any, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		return v, nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.New(v, 0), nil
	case []byte:
		return parseDecimal(string(v))
	case string:
		return parseDecimal(v)
	}
	return nil, fmt.Errorf("type %T is not a decimal", src)
}

func parseDecimal(s string) (any, error) {
	if len(s) > 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return d, nil
}

type customColumnScanner struct {
	columns *columnsReader
	index   int
	scanner ColumnScanner
}

func (c *customColumnScanner) Scan(src any) error {
	if b, ok := src.([]byte); ok {
		src = bytes.Clone(b)
	}
	v, err := c.scanner(src)
	if err == nil {
		c.columns.values[c.index] = v
	}
	return err
}
