package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchday/internal/model"
)

// ============================================================================
// Postgres integration tests. Skipped unless TEST_DATABASE_URL points at a
// reachable database. Each test runs in its own throwaway schema.
// ============================================================================

const testSchemaDDL = `
CREATE TABLE push_tokens (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL,
	token       TEXT NOT NULL,
	device_name TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, token)
);

CREATE TABLE notifications (
	id                  BIGSERIAL PRIMARY KEY,
	user_id             BIGINT NOT NULL,
	notification_type   TEXT NOT NULL,
	title               TEXT NOT NULL,
	message             TEXT NOT NULL,
	related_entity_type TEXT,
	related_entity_id   BIGINT,
	is_read             BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	navigation_data     JSONB
);
`

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	// One connection so search_path sticks for the whole test.
	db.SetMaxOpenConns(1)

	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	_, err = db.Exec(fmt.Sprintf("CREATE SCHEMA %s; SET search_path TO %s;", schema, schema))
	require.NoError(t, err)
	_, err = db.Exec(testSchemaDDL)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
		db.Close()
	})
	return db
}

func TestDeviceTokenRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceTokenRepository(db)
	ctx := context.Background()

	phone := "Pixel"
	id1, err := repo.Upsert(ctx, 1, "ExponentPushToken[a]", &phone)
	require.NoError(t, err)

	// Re-registration keeps the row and the device name
	id2, err := repo.Upsert(ctx, 1, "ExponentPushToken[a]", nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, err = repo.Upsert(ctx, 2, "ExponentPushToken[a]", nil)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, 2, "ExponentPushToken[b]", nil)
	require.NoError(t, err)

	tokens, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.NotNil(t, tokens[0].DeviceName)
	assert.Equal(t, "Pixel", *tokens[0].DeviceName)

	all, err := repo.GetByUserIDs(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pruned, err := repo.DeleteByToken(ctx, "ExponentPushToken[a]")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	removed, err := repo.Delete(ctx, 2, "ExponentPushToken[b]")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, 2, "ExponentPushToken[b]")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestNotificationRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	entity := model.EntityMatch
	matchID := int64(42)
	nav := model.NavigationData{Screen: model.ScreenMatchDetail, Params: map[string]any{"matchId": float64(42)}}

	rows := make([]model.Notification, 0, 5)
	for uid := int64(1); uid <= 5; uid++ {
		rows = append(rows, model.Notification{
			UserID:            uid % 2,
			Type:              model.CategoryMatchStart.String(),
			Title:             "Kick-off",
			Message:           "Arsenal vs Chelsea has started",
			RelatedEntityType: &entity,
			RelatedEntityID:   &matchID,
			NavigationData:    nav,
		})
	}

	n, err := repo.InsertBatch(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	// user 1 owns rows for uid 1, 3, 5
	page, next, err := repo.List(ctx, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, nav, page[0].NavigationData)
	assert.Greater(t, page[0].ID, page[1].ID)

	rest, next, err := repo.List(ctx, 1, next, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Nil(t, next)

	unread, err := repo.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	updated, err := repo.MarkAsRead(ctx, 1, []int64{page[0].ID, rest[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	// Another user's ids are not touched
	updated, err = repo.MarkAsRead(ctx, 0, []int64{page[1].ID})
	require.NoError(t, err)
	assert.Zero(t, updated)

	updated, err = repo.MarkAllAsRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	unread, err = repo.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
