package dbfactory

import (
	"bytes"
	"database/sql"
	"reflect"
	"strings"
)

type columnsInfo struct {
	count     int
	names     []string
	scanTypes []reflect.Type
	dbTypes   []string
}

type columnsReader struct {
	count    int
	names    []string
	values   []any
	scanArgs []any
}

func newColumnsInfo(rows *sql.Rows) (result *columnsInfo, err error) {
	var cts []*sql.ColumnType
	if cts, err = rows.ColumnTypes(); err == nil {
		count := len(cts)
		result = &columnsInfo{
			count:     count,
			names:     make([]string, count),
			scanTypes: make([]reflect.Type, count),
			dbTypes:   make([]string, count),
		}
		for i, ct := range cts {
			result.names[i] = ct.Name()
			result.scanTypes[i] = ct.ScanType()
			// e.g. "VARCHAR(100)"
			dbType, _, _ := strings.Cut(ct.DatabaseTypeName(), "(")
			result.dbTypes[i] = strings.ToUpper(strings.TrimSpace(dbType))
		}
	}
	return result, err
}

func (ci *columnsInfo) reader(scanners ColumnScanners) *columnsReader {
	r := &columnsReader{
		count:    ci.count,
		values:   make([]any, ci.count),
		scanArgs: make([]any, ci.count),
		names:    ci.names,
	}
	for i := 0; i < ci.count; i++ {
		r.scanArgs[i] = ci.buildScanner(r, i, scanners)
	}
	return r
}

// row copies the values of the last scanned row into a new Row
func (cr *columnsReader) row() Row {
	result := make(Row, cr.count)
	for i, name := range cr.names {
		result[name] = cr.values[i]
	}
	return result
}

func (ci *columnsInfo) buildScanner(cr *columnsReader, index int, scanners ColumnScanners) sql.Scanner {
	if scanner, ok := scanners[ci.names[index]]; ok && scanner != nil {
		return &customColumnScanner{
			columns: cr,
			index:   index,
			scanner: scanner,
		}
	}
	switch ci.dbTypes[index] {
	case "CHAR", "VARCHAR", "TEXT", "NCHAR", "NVARCHAR", "BPCHAR", "CHARACTER", "JSON", "JSONB":
		return &stringColumnScanner{
			columns: cr,
			index:   index,
		}
	case "DECIMAL", "NUMERIC", "NUMBER":
		return &customColumnScanner{
			columns: cr,
			index:   index,
			scanner: DecimalColumn,
		}
	}
	if st := ci.scanTypes[index]; st != nil {
		switch reflect.New(st).Interface().(type) {
		case *string, *sql.NullString:
			return &stringColumnScanner{
				columns: cr,
				index:   index,
			}
		}
	}
	return &rawColumnScanner{
		columns: cr,
		index:   index,
	}
}

type rawColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *rawColumnScanner) Scan(src any) error {
	// drivers may reuse byte buffers between rows
	if b, ok := src.([]byte); ok {
		c.columns.values[c.index] = bytes.Clone(b)
	} else {
		c.columns.values[c.index] = src
	}
	return nil
}

type stringColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *stringColumnScanner) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		c.columns.values[c.index] = string(v)
	default:
		c.columns.values[c.index] = v
	}
	return nil
}
