package syncx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/diagquest/internal/db"
)

func TestEventRepo_AppendSince(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	defer conn.Close()
	repo := NewEventRepo(conn)

	e1, err := NewEvent(EventTestSaved, "t-1", map[string]string{"titulo": "Quest"})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, e1))
	e2, err := NewEvent(EventAnswersSubmitted, "t-1/a-1", map[string]float64{"valor_total": 7.5})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, e2))

	all, err := repo.Since(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, EventTestSaved, all[0].Type)
	assert.JSONEq(t, `{"titulo":"Quest"}`, all[0].DataJSON)
	assert.Equal(t, "local", all[0].SiteID)
	assert.NotZero(t, all[0].CreatedAt)

	rest, err := repo.Since(ctx, all[0].Offset, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "t-1/a-1", rest[0].Key)
}
