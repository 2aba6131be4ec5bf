package main

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var ctx = context.Background()

func TestRun_Digest(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"digest", "abc"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad\n", stdout.String())

	stdout.Reset()
	code = run(ctx, []string{"digest", "\xff"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())

	code = run(ctx, []string{"digest"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(ctx, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage:")
	assert.Equal(t, 2, run(ctx, []string{"query"}, &stdout, &stderr))
	assert.Equal(t, 2, run(ctx, []string{"-unknown-flag"}, &stdout, &stderr))
}

func TestRun_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	confPath := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(confPath, []byte(`{"driver": "sqlite3", "db": "`+dbPath+`"}`), 0o600))

	exec := func(args ...string) (int, string, string) {
		var stdout, stderr bytes.Buffer
		code := run(ctx, append([]string{"-conf", confPath}, args...), &stdout, &stderr)
		return code, stdout.String(), stderr.String()
	}

	code, _, stderr := exec("exec", `CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)`)
	require.Equal(t, 0, code, stderr)
	code, out, stderr := exec("exec", `INSERT INTO items (id, name) VALUES (?, ?)`, "1", "first")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "1 row(s) affected\n", out)
	code, _, stderr = exec("exec", `INSERT INTO items (id, name) VALUES (?, ?)`, "2", "second")
	require.Equal(t, 0, code, stderr)

	code, out, stderr = exec("scalar", `SELECT name FROM items WHERE id = ?`, "2")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "\"second\"\n", out)

	code, out, stderr = exec("scalar", `SELECT name FROM items WHERE id = ?`, "3")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "null\n", out)

	code, out, stderr = exec("query", `SELECT id, name FROM items ORDER BY id`)
	require.Equal(t, 0, code, stderr)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []map[string]any{
		{"id": float64(1), "name": "first"},
		{"id": float64(2), "name": "second"},
	}, rows)

	code, out, _ = exec("query", `SELECT id FROM items WHERE id > 10`)
	require.Equal(t, 0, code)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	code, _, stderr = exec("exec", `INSERT INTO missing VALUES (1)`)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "prepare failed")

	code, _, stderr = exec("drop", `SELECT 1`)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestRun_UnknownCommandDoesNotOpen(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-driver", "oracle", "-v", "frob", `SELECT 1`}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), `unknown command: "frob"`)
	assert.NotContains(t, stderr.String(), "unsupported driver")
	assert.NotContains(t, stderr.String(), "source opened")
}

func TestRun_Verbose(t *testing.T) {
	var stdout, stderr bytes.Buffer
	dsn := filepath.Join(t.TempDir(), "v.db")
	code := run(ctx, []string{"-driver", "sqlite3", "-dsn", dsn, "-v", "scalar", `SELECT 1`}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "1\n", stdout.String())
	assert.Contains(t, stderr.String(), "sqlite3 source opened")
	assert.Contains(t, stderr.String(), "SQL: [")
	assert.Contains(t, stderr.String(), "source closed")
}

func TestRun_OpenErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-conf", filepath.Join(t.TempDir(), "missing.json"), "scalar", `SELECT 1`}, &stdout, &stderr)
	assert.Equal(t, 1, code)

	stderr.Reset()
	code = run(ctx, []string{"-driver", "oracle", "scalar", `SELECT 1`}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `unsupported driver: "oracle"`)
}
