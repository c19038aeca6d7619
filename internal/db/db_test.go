package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emissions-cli/internal/config"
	"github.com/sells-group/emissions-cli/internal/db"
	"github.com/sells-group/emissions-cli/internal/db/dbtest"
)

func TestOpen_MissingFile(t *testing.T) {
	_, err := db.Open(context.Background(), config.StoreConfig{
		Driver:      db.DriverSQLite,
		DatabaseURL: filepath.Join(t.TempDir(), "nope.db"),
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, db.ErrUnavailable))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := db.Open(context.Background(), config.StoreConfig{Driver: "mysql", DatabaseURL: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestOpen_NotAnEEADatabase(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{Driver: db.DriverSQLite, DatabaseURL: filepath.Join(t.TempDir(), "other.db")}

	w, err := db.OpenWritable(ctx, cfg)
	require.NoError(t, err)
	_, err = w.ExecContext(ctx, `CREATE TABLE unrelated (id TEXT)`)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = db.Open(ctx, cfg)
	require.Error(t, err)
	assert.True(t, eris.Is(err, db.ErrUnavailable))
	assert.Contains(t, err.Error(), "2_ProductionFacility")
}

func TestOpen_ReadOnly(t *testing.T) {
	h, _ := dbtest.New(t, dbtest.Sample())

	_, err := h.ExecContext(context.Background(), `DELETE FROM "2f_PollutantRelease"`)
	assert.Error(t, err)
}

func TestMissingTables_None(t *testing.T) {
	h, _ := dbtest.New(t, dbtest.Fixture{})

	missing, err := db.MissingTables(context.Background(), h)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestInsertRows(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{Driver: db.DriverSQLite, DatabaseURL: filepath.Join(t.TempDir(), "ins.db")}
	w, err := db.OpenWritable(ctx, cfg)
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	_, err = w.ExecContext(ctx, `CREATE TABLE "t x" (a TEXT, b INTEGER)`)
	require.NoError(t, err)

	rows := make([][]any, 450)
	for i := range rows {
		rows[i] = []any{"v", i}
	}
	n, err := db.InsertRows(ctx, w, "t x", []string{"a", "b"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(450), n)

	var count int
	require.NoError(t, w.GetContext(ctx, &count, `SELECT COUNT(*) FROM "t x"`))
	assert.Equal(t, 450, count)

	n, err = db.InsertRows(ctx, w, "t x", []string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = db.InsertRows(ctx, w, "t x", []string{"a", "b"}, [][]any{{"only-one"}})
	assert.Error(t, err)

	_, err = db.InsertRows(ctx, w, "t x", nil, rows)
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"2f_PollutantRelease"`, db.Quote("2f_PollutantRelease"))
	assert.Equal(t, `"a""b"`, db.Quote(`a"b`))
}
