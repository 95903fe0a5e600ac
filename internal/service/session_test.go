package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/carbon-tracker/internal/apperror"
)

func beginSession(t *testing.T, st *fakeStore, username string) *SessionContext {
	t.Helper()
	sess, err := NewSessions(discardLogger()).Begin(context.Background(), st, username)
	require.NoError(t, err)
	return sess
}

func TestBegin_CreatesThenReuses(t *testing.T) {
	st := newFakeStore()
	sessions := NewSessions(discardLogger())
	ctx := context.Background()

	first, err := sessions.Begin(ctx, st, "  alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, 0, first.Balance)

	st.UpdateUserPoints(ctx, first.UserID, 40)

	second, err := sessions.Begin(ctx, st, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, 40, second.Balance, "balance is read from the store")
	assert.Len(t, st.users, 1)
}

func TestBegin_InvalidUsername(t *testing.T) {
	sessions := NewSessions(discardLogger())

	for _, name := range []string{"", "   ", "has space", "semi;colon", strings.Repeat("a", MaxUsernameLength+1)} {
		_, err := sessions.Begin(context.Background(), newFakeStore(), name)
		assert.ErrorIs(t, err, apperror.ErrValidation, "username %q", name)
	}
}

func TestBegin_StorageFailure(t *testing.T) {
	st := newFakeStore()
	st.failOn = "FindUserByName"

	_, err := NewSessions(discardLogger()).Begin(context.Background(), st, "alice")
	assert.ErrorIs(t, err, apperror.ErrStorage)
}

func TestResume(t *testing.T) {
	st := newFakeStore()
	sess := beginSession(t, st, "alice")
	sessions := NewSessions(discardLogger())

	got, err := sessions.Resume(context.Background(), st, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = sessions.Resume(context.Background(), st, "gone")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = sessions.Resume(context.Background(), st, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUsernameFrom(t *testing.T) {
	assert.Equal(t, "octo-cat", UsernameFrom("octo-cat"))
	assert.Equal(t, "Jos__", UsernameFrom("José!"))
	assert.Len(t, UsernameFrom(strings.Repeat("x", 100)), MaxUsernameLength)
}
