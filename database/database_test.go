package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regbot/models"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	return NewSessionStore(db)
}

func TestEnsureIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ensure("s1"))
	require.NoError(t, store.Ensure("s1"))

	count, err := store.CountMessages("s1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLastMessagesChronologicalOrder(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ensure("s1"))
	for i := 1; i <= 4; i++ {
		require.NoError(t, store.AppendTurns("s1",
			fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	// Read last 4 of 8 turns: newest-first from the store, presented oldest
	// first to the caller.
	messages, err := store.LastMessages("s1", 4)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, "q3", messages[0].Content)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "a3", messages[1].Content)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, "q4", messages[2].Content)
	assert.Equal(t, "a4", messages[3].Content)
}

func TestLastMessagesShortHistory(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ensure("s1"))
	require.NoError(t, store.AppendTurns("s1", "q1", "a1"))

	messages, err := store.LastMessages("s1", 6)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestAppendTurnsPairsUp(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ensure("s1"))
	require.NoError(t, store.AppendTurns("s1", "سوال", "پاسخ"))

	messages, err := store.LastMessages("s1", 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "سوال", messages[0].Content)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, "پاسخ", messages[1].Content)
}

func TestDeleteUnknownSession(t *testing.T) {
	store := newTestStore(t)
	err := store.Delete("never-created")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteCascades(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ensure("s1"))
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendTurns("s1", "q", "a"))
	}

	count, err := store.CountMessages("s1")
	require.NoError(t, err)
	require.EqualValues(t, 10, count)

	require.NoError(t, store.Delete("s1"))

	count, err = store.CountMessages("s1")
	require.NoError(t, err)
	assert.Zero(t, count, "deleting a session removes all of its turns")

	messages, err := store.LastMessages("s1", 10)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// The session itself is gone too.
	assert.ErrorIs(t, store.Delete("s1"), ErrSessionNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ensure("s1"))
	require.NoError(t, store.Ensure("s2"))
	require.NoError(t, store.AppendTurns("s1", "q", "a"))

	messages, err := store.LastMessages("s2", 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
