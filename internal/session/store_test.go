package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/model"
)

func testUser() model.User {
	age := 34
	return model.User{
		ID:         "7",
		ClientCode: "1042",
		Name:       "Dana",
		Status:     "Premium",
		City:       "Astana",
		Age:        &age,
	}
}

func TestStores_SetGetClear(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"), zap.NewNop()),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok := store.Get(ctx)
			assert.False(t, ok, "empty store must report no session")

			require.NoError(t, store.Set(ctx, "token-1", testUser()))
			sess, ok := store.Get(ctx)
			require.True(t, ok)
			assert.Equal(t, "token-1", sess.Token)
			assert.Equal(t, testUser(), sess.User)

			other := testUser()
			other.Name = "Aigerim"
			require.NoError(t, store.Set(ctx, "token-2", other))
			sess, ok = store.Get(ctx)
			require.True(t, ok)
			assert.Equal(t, "token-2", sess.Token)
			assert.Equal(t, "Aigerim", sess.User.Name)

			require.NoError(t, store.Clear(ctx))
			_, ok = store.Get(ctx)
			assert.False(t, ok)

			require.NoError(t, store.Clear(ctx), "clearing twice must not fail")
		})
	}
}

func TestMemoryStore_CorruptedUserFailsSoft(t *testing.T) {
	store := NewMemoryStore()
	store.values[TokenKey] = "token"
	store.values[UserKey] = "{not json"

	sess, ok := store.Get(context.Background())
	assert.False(t, ok)
	assert.Nil(t, sess)
}

func TestFileStore_CorruptedFileFailsSoft(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "garbage"},
		{name: "broken user", content: `{"auth_token":"abc","user":"{broken"}`},
		{name: "missing user", content: `{"auth_token":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			store := NewFileStore(path, zap.NewNop())
			_, ok := store.Get(context.Background())
			assert.False(t, ok)
		})
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	require.NoError(t, NewFileStore(path, zap.NewNop()).Set(ctx, "persisted", testUser()))

	sess, ok := NewFileStore(path, zap.NewNop()).Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "persisted", sess.Token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMemoryStore_ConcurrentReadsAndClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "token", testUser()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sess, ok := store.Get(ctx); ok {
				assert.Equal(t, "token", sess.Token)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, store.Clear(ctx))
	}()
	wg.Wait()

	_, ok := store.Get(ctx)
	assert.False(t, ok)
}
