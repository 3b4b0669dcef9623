package singer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/models"
)

func setupSingerTest(t *testing.T) (*Service, *db.Repositories) {
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
	return NewService(repos), repos
}

func createActiveSession(t *testing.T, repos *db.Repositories, name string) *models.Session {
	t.Helper()

	session := models.NewSession(name)
	session.IsActive = true
	require.NoError(t, repos.Sessions.Create(context.Background(), session))
	return session
}

func TestCreate_TrimsName(t *testing.T) {
	svc, _ := setupSingerTest(t)

	singer, err := svc.Create(context.Background(), "  Alice  ", nil, "#ff0000", false)
	require.NoError(t, err)
	assert.Equal(t, "Alice", singer.Name)
	assert.Equal(t, "#ff0000", singer.Color)
	assert.False(t, singer.IsPersistent)
}

func TestCreate_RejectsInvalidNames(t *testing.T) {
	svc, _ := setupSingerTest(t)

	tests := []struct {
		testName string
		name     string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("a", models.MaxSingerNameLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.name, nil, "#ff0000", false)
			require.Error(t, err)
			assert.True(t, IsInvalidName(err))
		})
	}
}

func TestCreate_WithUniqueName(t *testing.T) {
	svc, _ := setupSingerTest(t)

	unique := " alice-1 "
	singer, err := svc.Create(context.Background(), "Alice", &unique, "#ff0000", true)
	require.NoError(t, err)
	require.NotNil(t, singer.UniqueName)
	assert.Equal(t, "alice-1", *singer.UniqueName)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _ := setupSingerTest(t)
	ctx := context.Background()

	singer, err := svc.Create(ctx, "Alice", nil, "#ff0000", false)
	require.NoError(t, err)

	newColor := "#00ff00"
	persistent := true
	updated, err := svc.Update(ctx, singer.ID, nil, nil, &newColor, &persistent)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "#00ff00", updated.Color)
	assert.True(t, updated.IsPersistent)
}

func TestUpdate_UnknownSinger(t *testing.T) {
	svc, _ := setupSingerTest(t)

	name := "Bob"
	_, err := svc.Update(context.Background(), uuid.New(), &name, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsSingerNotFound(err))
}

func TestJoinAndLeave(t *testing.T) {
	svc, repos := setupSingerTest(t)
	ctx := context.Background()

	session := createActiveSession(t, repos, "Test")
	alice, err := svc.Create(ctx, "Alice", nil, "#ff0000", false)
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "Bob", nil, "#0000ff", false)
	require.NoError(t, err)

	require.NoError(t, svc.Join(ctx, session.ID, alice.ID))
	require.NoError(t, svc.Join(ctx, session.ID, bob.ID))

	// Join order is preserved
	members, err := svc.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, alice.ID, members[0].ID)
	assert.Equal(t, bob.ID, members[1].ID)

	require.NoError(t, svc.Leave(ctx, session.ID, alice.ID))
	members, err = svc.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, bob.ID, members[0].ID)
}

func TestJoin_DuplicateRejected(t *testing.T) {
	svc, repos := setupSingerTest(t)
	ctx := context.Background()

	session := createActiveSession(t, repos, "Test")
	alice, err := svc.Create(ctx, "Alice", nil, "#ff0000", false)
	require.NoError(t, err)

	require.NoError(t, svc.Join(ctx, session.ID, alice.ID))
	err = svc.Join(ctx, session.ID, alice.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestLeave_NotJoined(t *testing.T) {
	svc, repos := setupSingerTest(t)
	ctx := context.Background()

	session := createActiveSession(t, repos, "Test")
	alice, err := svc.Create(ctx, "Alice", nil, "#ff0000", false)
	require.NoError(t, err)

	err = svc.Leave(ctx, session.ID, alice.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotJoined)
}

func TestLeave_ClearsActiveSinger(t *testing.T) {
	svc, repos := setupSingerTest(t)
	ctx := context.Background()

	session := createActiveSession(t, repos, "Test")
	alice, err := svc.Create(ctx, "Alice", nil, "#ff0000", false)
	require.NoError(t, err)
	require.NoError(t, svc.Join(ctx, session.ID, alice.ID))

	session.ActiveSingerID = &alice.ID
	require.NoError(t, repos.Sessions.Update(ctx, session))

	require.NoError(t, svc.Leave(ctx, session.ID, alice.ID))

	updated, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.ActiveSingerID)
}

func TestPurgeOrphans(t *testing.T) {
	svc, repos := setupSingerTest(t)
	ctx := context.Background()

	session := createActiveSession(t, repos, "Test")

	member, err := svc.Create(ctx, "Member", nil, "#ff0000", false)
	require.NoError(t, err)
	require.NoError(t, svc.Join(ctx, session.ID, member.ID))

	keeper, err := svc.Create(ctx, "Keeper", nil, "#00ff00", true)
	require.NoError(t, err)

	orphan, err := svc.Create(ctx, "Orphan", nil, "#0000ff", false)
	require.NoError(t, err)

	purged, err := svc.PurgeOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	// The member and the persistent singer survive
	_, err = svc.GetByID(ctx, member.ID)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, keeper.ID)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, orphan.ID)
	assert.True(t, IsSingerNotFound(err))
}
