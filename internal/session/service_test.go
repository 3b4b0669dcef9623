package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/models"
)

func setupSessionTest(t *testing.T) (*Service, *db.Repositories, *db.DB) {
	t.Helper()

	// Initialize logger for tests
	logger.Init("error", false)

	// Create temporary database
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	// Run migrations
	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	err = db.RunMigrations(sqlDB, "file://../../migrations")
	require.NoError(t, err)

	repos := db.NewRepositories(database)
	return NewService(database, repos), repos, database
}

func createItem(t *testing.T, repos *db.Repositories, sessionID uuid.UUID, id string, position int) {
	t.Helper()

	item := &models.QueueItem{
		ID:        id,
		SessionID: sessionID,
		ItemType:  models.ItemTypeQueue,
		VideoID:   "vid-" + id,
		Title:     "Song " + id,
		Position:  position,
	}
	err := repos.QueueItems.Create(context.Background(), item)
	require.NoError(t, err)
}

func TestStart_CreatesActiveSession(t *testing.T) {
	svc, _, _ := setupSessionTest(t)

	session, err := svc.Start(context.Background(), "Friday Night")
	require.NoError(t, err)
	assert.Equal(t, "Friday Night", session.Name)
	assert.True(t, session.IsActive)
	assert.Equal(t, -1, session.HistoryIndex)

	active, err := svc.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.ID, active.ID)
}

func TestStart_TrimsName(t *testing.T) {
	svc, _, _ := setupSessionTest(t)

	session, err := svc.Start(context.Background(), "  Saturday  ")
	require.NoError(t, err)
	assert.Equal(t, "Saturday", session.Name)
}

func TestStart_RejectsEmptyName(t *testing.T) {
	svc, _, _ := setupSessionTest(t)

	_, err := svc.Start(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, IsInvalidName(err))
}

func TestStart_MigratesItemsFromPriorActiveSession(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, "First")
	require.NoError(t, err)
	createItem(t, repos, first.ID, "q1", 0)
	createItem(t, repos, first.ID, "q2", 1)

	second, err := svc.Start(ctx, "Second")
	require.NoError(t, err)

	// Exactly one active session remains
	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	prior, err := repos.Sessions.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, prior.IsActive)

	// Items followed the new session
	moved, err := repos.QueueItems.ListByPartition(ctx, second.ID, models.ItemTypeQueue)
	require.NoError(t, err)
	require.Len(t, moved, 2)
	assert.Equal(t, "q1", moved[0].ID)

	left, err := repos.QueueItems.CountBySession(ctx, first.ID)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestEnd_EmptySessionIsDeleted(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Empty")
	require.NoError(t, err)

	err = svc.End(ctx, session.ID)
	require.NoError(t, err)

	_, err = repos.Sessions.GetByID(ctx, session.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestEnd_NonEmptySessionIsArchived(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "With Songs")
	require.NoError(t, err)
	createItem(t, repos, session.ID, "q1", 0)

	err = svc.End(ctx, session.ID)
	require.NoError(t, err)

	archived, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, archived.IsActive)
	require.NotNil(t, archived.EndedAt)

	_, err = svc.Active(ctx)
	assert.True(t, IsNoActiveSession(err))
}

func TestEnd_UnknownSession(t *testing.T) {
	svc, _, _ := setupSessionTest(t)

	session := models.NewSession("ghost")
	err := svc.End(context.Background(), session.ID)
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
}

func TestLoad_ActivatesTargetAndDeactivatesOthers(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, "First")
	require.NoError(t, err)
	createItem(t, repos, first.ID, "q1", 0)
	require.NoError(t, svc.End(ctx, first.ID))

	second, err := svc.Start(ctx, "Second")
	require.NoError(t, err)

	loaded, err := svc.Load(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsActive)
	assert.Nil(t, loaded.EndedAt)

	other, err := repos.Sessions.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, other.IsActive)
}

func TestSetActiveSinger_RequiresMembership(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)

	singer := models.NewSinger("Alice", "#ff0000", false)
	require.NoError(t, repos.Singers.Create(ctx, singer))

	err = svc.SetActiveSinger(ctx, session.ID, &singer.ID)
	require.Error(t, err)
	assert.True(t, IsSingerNotInSession(err))

	require.NoError(t, repos.Singers.Join(ctx, session.ID, singer.ID))
	require.NoError(t, svc.SetActiveSinger(ctx, session.ID, &singer.ID))

	updated, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.ActiveSingerID)
	assert.Equal(t, singer.ID, *updated.ActiveSingerID)

	// Clearing never requires membership
	require.NoError(t, svc.SetActiveSinger(ctx, session.ID, nil))
	updated, err = repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.ActiveSingerID)
}
