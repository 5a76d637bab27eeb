package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateAndResolve(t *testing.T) {
	store := NewSessionStore(time.Hour)

	token := store.Create("alice@example.com")
	require.NotEmpty(t, token)

	email, ok := store.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, "alice@example.com", email)
}

func TestSessionStore_UnknownToken(t *testing.T) {
	store := NewSessionStore(time.Hour)

	_, ok := store.Resolve("no-such-token")
	assert.False(t, ok)
	_, ok = store.Resolve("")
	assert.False(t, ok)
}

func TestSessionStore_Destroy(t *testing.T) {
	store := NewSessionStore(time.Hour)
	token := store.Create("alice@example.com")

	store.Destroy(token)
	_, ok := store.Resolve(token)
	assert.False(t, ok)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(time.Hour)
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	token := store.Create("alice@example.com")

	current = current.Add(59 * time.Minute)
	_, ok := store.Resolve(token)
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok = store.Resolve(token)
	assert.False(t, ok, "session must expire after its TTL")

	// Expired entries are removed on lookup, not merely hidden.
	store.mu.Lock()
	_, exists := store.sessions[token]
	store.mu.Unlock()
	assert.False(t, exists)
}

func TestSessionStore_TokensAreUnique(t *testing.T) {
	store := NewSessionStore(time.Hour)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := store.Create("alice@example.com")
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestSessionStore_DefaultTTL(t *testing.T) {
	store := NewSessionStore(0)
	assert.Equal(t, DefaultSessionTTL, store.ttl)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, VerifyPassword(hash, "secret123"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
