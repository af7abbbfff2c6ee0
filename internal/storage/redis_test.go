package storage

import (
	"context"
	"os"
	"testing"

	"luna_companion/pkg"

	"github.com/stretchr/testify/require"
)

// Set REDIS_URL to a disposable database to run these; each subtest flushes it.
func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	runStoreSuite(t, func(t *testing.T) ContextStore {
		ctx := context.Background()
		store, err := NewRedisStore(ctx, redisURL)
		require.NoError(t, err)
		require.NoError(t, store.client.FlushDB(ctx).Err())
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestRedisStoreRequiresUser(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	store, err := NewRedisStore(context.Background(), redisURL)
	require.NoError(t, err)
	defer store.Close()

	var got []pkg.ConversationTurn
	require.Error(t, store.Find(context.Background(), pkg.CollectionConversations, Query{}, &got))
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "")
	require.Error(t, err)

	_, err = NewRedisStore(context.Background(), "not a url")
	require.Error(t, err)
}
