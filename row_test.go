package dbfactory

import (
	"database/sql"
	"errors"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestExecutor_Rows(t *testing.T) {
	ex, db, mock := newMockExecutor(t)
	const q = `SELECT id, name FROM users WHERE age > ?`
	mock.ExpectPrepare(q).WillBeClosed().ExpectQuery().WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), nil))

	rows, err := ex.Rows(ctx, q, []any{18})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"id": int64(1), "name": "alice"}, rows[0])
	assert.Equal(t, Row{"id": int64(2), "name": nil}, rows[1])
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestExecutor_Rows_Limiter(t *testing.T) {
	ex, _, mock := newMockExecutor(t)
	mock.ExpectPrepare(`SELECT id FROM users`).ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3)))

	rows, err := ex.Rows(ctx, `SELECT id FROM users`, nil, MaxRows(2))
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestExecutor_Rows_Errors(t *testing.T) {
	ex, _, mock := newMockExecutor(t)
	mock.ExpectPrepare(`SELECT id FROM users`).ExpectQuery().WillReturnError(errors.New("fooey"))

	_, err := ex.Rows(ctx, `SELECT id FROM users`, nil)
	var dae *DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.Equal(t, "query", dae.Op)

	_, err = ex.Rows(ctx, `SELECT id FROM users`, nil, "not a valid option")
	require.Error(t, err)
	assert.Equal(t, "unknown option type: string", err.Error())
}

func TestExecutor_FirstRow(t *testing.T) {
	ex, _, mock := newMockExecutor(t)
	const q = `SELECT id, name FROM users`
	mock.ExpectPrepare(q).ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob"))
	mock.ExpectPrepare(q).ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	row, err := ex.FirstRow(ctx, q, nil)
	require.NoError(t, err)
	assert.Equal(t, Row{"id": int64(1), "name": "alice"}, row)

	row, err = ex.FirstRow(ctx, q, nil)
	require.NoError(t, err)
	assert.Nil(t, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRawColumnScanner_CopiesBytes(t *testing.T) {
	cr := &columnsReader{count: 1, names: []string{"data"}, values: make([]any, 1)}
	sc := &rawColumnScanner{columns: cr, index: 0}
	buf := []byte("abc")
	require.NoError(t, sc.Scan(buf))
	buf[0] = 'x'
	assert.Equal(t, []byte("abc"), cr.row()["data"])

	str := &stringColumnScanner{columns: cr, index: 0}
	require.NoError(t, str.Scan([]byte("text")))
	assert.Equal(t, "text", cr.row()["data"])
	require.NoError(t, str.Scan(int64(1)))
	assert.Equal(t, int64(1), cr.row()["data"])
}

func TestMapRow_MatchedAndUnmatched(t *testing.T) {
	type shape struct {
		F1 string
		F2 int
	}
	dst := shape{}
	err := MapRow(Row{"F1": "one", "F3": "three"}, &dst)
	require.NoError(t, err)
	assert.Equal(t, "one", dst.F1)
	assert.Equal(t, 0, dst.F2)

	// untouched fields keep existing values
	dst = shape{F1: "old", F2: 42}
	require.NoError(t, MapRow(Row{"F1": "new"}, &dst))
	assert.Equal(t, shape{F1: "new", F2: 42}, dst)
}

func TestMapRow_ExactNameMatch(t *testing.T) {
	type shape struct {
		Name string
	}
	dst := shape{}
	require.NoError(t, MapRow(Row{"name": "lower", "NAME": "upper"}, &dst))
	assert.Equal(t, "", dst.Name)
}

func TestMapRow_TagsAndOptions(t *testing.T) {
	dst := testUser{}
	require.NoError(t, MapRow(Row{"id": int64(1), "name": "alice", "Age": 30, "Ignored": "x", "unexported": "x"}, &dst))
	assert.Equal(t, testUser{ID: 1, Name: "alice", Age: 30}, dst)

	product := testProduct{}
	require.NoError(t, MapRow(Row{"name": "widget", "price": "9.99"}, &product, UseTagName("db")))
	assert.Equal(t, "widget", product.Name)
	assert.Equal(t, "9.99", product.Price.String())

	dst = testUser{}
	require.NoError(t, MapRow(Row{"user_age": 40}, &dst, &testColumnNamer{}))
	assert.Equal(t, 40, dst.Age)

	err := MapRow(Row{}, &dst, "not a valid option")
	require.Error(t, err)
	assert.Equal(t, "unknown option type: string", err.Error())
}

func TestMapRow_Embedded(t *testing.T) {
	dst := testEmbedding{}
	require.NoError(t, MapRow(Row{"name": "n", "Created": "c"}, &dst))
	assert.Equal(t, "n", dst.Name)
	assert.Equal(t, "", dst.Created)
}

func TestMapRow_NilsPointersAndScanners(t *testing.T) {
	type shape struct {
		Name    string
		Nick    *string
		Note    sql.NullString
		Price   decimal.Decimal
		Deleted *bool
	}
	dst := shape{Name: "was", Deleted: new(bool)}
	err := MapRow(Row{"Name": nil, "Nick": "bobby", "Note": "hi", "Price": float64(1.5), "Deleted": nil}, &dst)
	require.NoError(t, err)
	assert.Equal(t, "", dst.Name)
	require.NotNil(t, dst.Nick)
	assert.Equal(t, "bobby", *dst.Nick)
	assert.Equal(t, sql.NullString{String: "hi", Valid: true}, dst.Note)
	assert.Equal(t, "1.5", dst.Price.String())
	assert.Nil(t, dst.Deleted)

	require.NoError(t, MapRow(Row{"Note": nil}, &dst))
	assert.False(t, dst.Note.Valid)
}

func TestMapRow_TypeMismatchLeavesTargetUnchanged(t *testing.T) {
	type shape struct {
		A string
		B int
	}
	dst := shape{A: "keep", B: 1}
	err := MapRow(Row{"A": "changed", "B": "not an int"}, &dst)
	require.Error(t, err)
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "B", me.Column)
	assert.Contains(t, err.Error(), "is not assignable to int")
	assert.Equal(t, shape{A: "keep", B: 1}, dst)
}

func TestMapRow_Shape(t *testing.T) {
	dst := testShape{id: 1, label: "one"}
	require.NoError(t, MapRow(Row{"title": "uno", "other": true}, &dst))
	assert.Equal(t, testShape{id: 1, label: "uno"}, dst)

	err := MapRow(Row{"id": "x", "title": "dos"}, &dst)
	require.Error(t, err)
	assert.Equal(t, testShape{id: 1, label: "uno"}, dst)
}

func TestMapRow_InvalidTarget(t *testing.T) {
	type shape struct {
		A string
	}
	var nilShape *shape
	for _, dst := range []any{nil, shape{}, nilShape, new(string)} {
		err := MapRow(Row{"A": "a"}, dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MapRow requires a non-nil pointer to a struct")
	}
}
