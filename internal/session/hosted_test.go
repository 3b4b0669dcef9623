package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/mpwalden/crooner/internal/models"
)

func TestClaim_UnownedSession(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)

	err = svc.Claim(ctx, session.ID, "remote-1", "alice", "active")
	require.NoError(t, err)

	claimed, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.HostedByUserID)
	assert.Equal(t, "alice", *claimed.HostedByUserID)
	require.NotNil(t, claimed.HostedSessionID)
	assert.Equal(t, "remote-1", *claimed.HostedSessionID)
	require.NotNil(t, claimed.HostedSessionStatus)
	assert.Equal(t, models.HostedStatusActive, *claimed.HostedSessionStatus)
}

func TestClaim_ConflictLeavesOwnerUntouched(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)
	require.NoError(t, svc.Claim(ctx, session.ID, "remote-a", "alice", "active"))

	err = svc.Claim(ctx, session.ID, "remote-b", "bob", "active")
	require.Error(t, err)
	assert.True(t, IsOwnershipConflict(err))

	unchanged, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", *unchanged.HostedByUserID)
	assert.Equal(t, "remote-a", *unchanged.HostedSessionID)
	assert.Equal(t, models.HostedStatusActive, *unchanged.HostedSessionStatus)
}

func TestClaim_SameUserReclaims(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)
	require.NoError(t, svc.Claim(ctx, session.ID, "remote-a", "alice", "active"))

	// The owner may always re-claim, even while the hosted session is paused
	require.NoError(t, svc.UpdateHostedStatus(ctx, session.ID, "paused"))
	err = svc.Claim(ctx, session.ID, "remote-a2", "alice", "active")
	require.NoError(t, err)

	claimed, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "remote-a2", *claimed.HostedSessionID)
	assert.Equal(t, models.HostedStatusActive, *claimed.HostedSessionStatus)
}

func TestClaim_TakeoverAfterEnded(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)
	require.NoError(t, svc.Claim(ctx, session.ID, "remote-a", "alice", "active"))
	require.NoError(t, svc.UpdateHostedStatus(ctx, session.ID, "ended"))

	err = svc.Claim(ctx, session.ID, "remote-b", "bob", "active")
	require.NoError(t, err)

	claimed, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", *claimed.HostedByUserID)
	assert.Equal(t, "remote-b", *claimed.HostedSessionID)
	assert.Equal(t, models.HostedStatusActive, *claimed.HostedSessionStatus)
}

func TestClaim_PausedBlocksOtherUsers(t *testing.T) {
	svc, _, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)
	require.NoError(t, svc.Claim(ctx, session.ID, "remote-a", "alice", "active"))
	require.NoError(t, svc.UpdateHostedStatus(ctx, session.ID, "paused"))

	err = svc.Claim(ctx, session.ID, "remote-b", "bob", "active")
	require.Error(t, err)
	assert.True(t, IsOwnershipConflict(err))
}

func TestClaim_InvalidStatusRejectedBeforeStorage(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)

	err = svc.Claim(ctx, session.ID, "remote-a", "alice", "running")
	require.Error(t, err)
	assert.True(t, IsInvalidHostedStatus(err))

	untouched, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, untouched.HostedByUserID)
	assert.Nil(t, untouched.HostedSessionStatus)
}

func TestClaim_UnknownSession(t *testing.T) {
	svc, _, _ := setupSessionTest(t)

	err := svc.Claim(context.Background(), uuid.New(), "remote-a", "alice", "active")
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
	assert.False(t, IsOwnershipConflict(err))
}

func TestUpdateHostedStatus(t *testing.T) {
	svc, repos, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)
	require.NoError(t, svc.Claim(ctx, session.ID, "remote-a", "alice", "active"))

	err = svc.UpdateHostedStatus(ctx, session.ID, "paused")
	require.NoError(t, err)

	updated, err := repos.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HostedStatusPaused, *updated.HostedSessionStatus)

	// Identity fields stay put on status updates
	assert.Equal(t, "alice", *updated.HostedByUserID)
	assert.Equal(t, "remote-a", *updated.HostedSessionID)
}

func TestUpdateHostedStatus_InvalidStatus(t *testing.T) {
	svc, _, _ := setupSessionTest(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, "Test")
	require.NoError(t, err)

	err = svc.UpdateHostedStatus(ctx, session.ID, "bogus")
	require.Error(t, err)
	assert.True(t, IsInvalidHostedStatus(err))
}
