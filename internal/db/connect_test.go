package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, DriverSQLite, "file::memory:")
	require.NoError(t, err)
	defer conn.Close()

	for _, table := range []string{"users", "classes", "disciplinas_base", "disciplinas", "tests", "submissions", "event_log"} {
		var n int
		err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
		require.NoError(t, err, table)
		assert.Zero(t, n)
	}

	// schema creation is idempotent
	require.NoError(t, ensureSchema(ctx, conn, DriverSQLite))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("mysql"), "")
	assert.ErrorContains(t, err, "unsupported driver")
}
