package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceRegistry_ConnectInstallsEntry(t *testing.T) {
	members := &fakeMembers{projects: map[string][]string{"alice": {"7"}}}
	registry := NewPresenceRegistry(members, testLogger())

	entry, snapshot, err := registry.Connect(context.Background(), identity("alice", "Alice"), newFakeConn("c1"))
	require.NoError(t, err)

	assert.Equal(t, "alice", entry.UserID)
	assert.Equal(t, []string{"7"}, entry.ProjectIDs)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "alice", snapshot[0].UserID)
}

func TestPresenceRegistry_SingleEntryPerUser(t *testing.T) {
	members := &fakeMembers{projects: map[string][]string{"alice": {"7"}}}
	registry := NewPresenceRegistry(members, testLogger())

	first := newFakeConn("c1")
	_, _, err := registry.Connect(context.Background(), identity("alice", "Alice"), first)
	require.NoError(t, err)

	second := newFakeConn("c2")
	_, snapshot, err := registry.Connect(context.Background(), identity("alice", "Alice"), second)
	require.NoError(t, err)

	assert.Len(t, snapshot, 1, "reconnect must overwrite, not duplicate")
	assert.True(t, first.isClosed(), "displaced connection should be closed")

	conn, ok := registry.Conn("alice")
	require.True(t, ok)
	assert.Equal(t, "c2", conn.ID())
}

func TestPresenceRegistry_SnapshotIncludesExistingUsers(t *testing.T) {
	members := &fakeMembers{projects: map[string][]string{"alice": {"7"}, "bob": {"7"}}}
	registry := NewPresenceRegistry(members, testLogger())

	_, _, err := registry.Connect(context.Background(), identity("alice", "Alice"), newFakeConn("c1"))
	require.NoError(t, err)

	_, snapshot, err := registry.Connect(context.Background(), identity("bob", "Bob"), newFakeConn("c2"))
	require.NoError(t, err)

	userIDs := make([]string, 0, len(snapshot))
	for _, e := range snapshot {
		userIDs = append(userIDs, e.UserID)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, userIDs)
}

func TestPresenceRegistry_MembershipFailureInstallsNothing(t *testing.T) {
	members := &fakeMembers{err: errors.New("store unavailable")}
	registry := NewPresenceRegistry(members, testLogger())

	_, _, err := registry.Connect(context.Background(), identity("alice", "Alice"), newFakeConn("c1"))
	require.Error(t, err)

	assert.Empty(t, registry.Snapshot(), "no partial entry may survive a failed connect")
	_, ok := registry.Conn("alice")
	assert.False(t, ok)
}

func TestPresenceRegistry_DisconnectRemovesEntry(t *testing.T) {
	members := &fakeMembers{projects: map[string][]string{"alice": {"7"}}}
	registry := NewPresenceRegistry(members, testLogger())

	conn := newFakeConn("c1")
	_, _, err := registry.Connect(context.Background(), identity("alice", "Alice"), conn)
	require.NoError(t, err)

	entry, removed := registry.Disconnect("alice", conn)
	require.True(t, removed)
	assert.Equal(t, "alice", entry.UserID)
	assert.Empty(t, registry.Snapshot())
	assert.Empty(t, registry.OnlineUsersExcluding("7", "nobody"))
}

func TestPresenceRegistry_DisconnectIdempotent(t *testing.T) {
	members := &fakeMembers{projects: map[string][]string{"alice": {"7"}}}
	registry := NewPresenceRegistry(members, testLogger())

	conn := newFakeConn("c1")
	_, _, err := registry.Connect(context.Background(), identity("alice", "Alice"), conn)
	require.NoError(t, err)

	_, removed := registry.Disconnect("alice", conn)
	require.True(t, removed)

	_, removed = registry.Disconnect("alice", conn)
	assert.False(t, removed, "duplicate disconnect must be a no-op")
}

func TestPresenceRegistry_StaleDisconnectKeepsNewEntry(t *testing.T) {
	members := &fakeMembers{projects: map[string][]string{"alice": {"7"}}}
	registry := NewPresenceRegistry(members, testLogger())

	old := newFakeConn("c1")
	_, _, err := registry.Connect(context.Background(), identity("alice", "Alice"), old)
	require.NoError(t, err)

	// Alice reconnects before the old socket's cleanup runs.
	replacement := newFakeConn("c2")
	_, _, err = registry.Connect(context.Background(), identity("alice", "Alice"), replacement)
	require.NoError(t, err)

	_, removed := registry.Disconnect("alice", old)
	assert.False(t, removed, "a displaced connection must not evict its replacement")

	conn, ok := registry.Conn("alice")
	require.True(t, ok)
	assert.Equal(t, "c2", conn.ID())
}

func TestPresenceRegistry_OnlineUsersExcluding(t *testing.T) {
	members := &fakeMembers{projects: map[string][]string{
		"alice": {"7"},
		"bob":   {"7", "9"},
		"carol": {"9"},
	}}
	registry := NewPresenceRegistry(members, testLogger())

	for _, userID := range []string{"alice", "bob", "carol"} {
		_, _, err := registry.Connect(context.Background(), identity(userID, userID), newFakeConn("c-"+userID))
		require.NoError(t, err)
	}

	got := registry.OnlineUsersExcluding("7", "alice")
	assert.ElementsMatch(t, []string{"bob"}, got)
	assert.NotContains(t, got, "alice", "excluded user must never appear")

	got = registry.OnlineUsersExcluding("9", "nobody")
	assert.ElementsMatch(t, []string{"bob", "carol"}, got)

	assert.Empty(t, registry.OnlineUsersExcluding("42", "alice"))
}

func TestPresenceRegistry_ConcurrentConnects(t *testing.T) {
	projects := make(map[string][]string)
	for i := 0; i < 8; i++ {
		projects[fmt.Sprintf("user-%d", i)] = []string{"7"}
	}
	members := &fakeMembers{projects: projects}
	registry := NewPresenceRegistry(members, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		userID := fmt.Sprintf("user-%d", i)
		// Each user connects from several connections at once.
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func(connID string) {
				defer wg.Done()
				_, _, err := registry.Connect(context.Background(), identity(userID, userID), newFakeConn(connID))
				assert.NoError(t, err)
			}(fmt.Sprintf("%s-conn-%d", userID, j))
		}
	}
	wg.Wait()

	assert.Len(t, registry.Snapshot(), 8, "one entry per user regardless of connect races")
}
