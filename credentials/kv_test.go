package credentials_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-bank-backoffice/credentials"
	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"github.com/stretchr/testify/require"
)

func newRedisKV(t *testing.T) (*credentials.RedisKV, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return credentials.NewRedisKV(client, "test:"), mr
}

func TestKeyValueImplementations(t *testing.T) {
	ctx := context.Background()

	fileKV, err := credentials.NewFileKV(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, err)
	redisKV, _ := newRedisKV(t)

	stores := map[string]credentials.KeyValue{
		"memory": credentials.NewMemoryKV(),
		"file":   fileKV,
		"redis":  redisKV,
	}

	for name, kv := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "missing")
			require.ErrorIs(t, err, apperrors.ErrKeyNotFound)

			require.NoError(t, kv.Set(ctx, "a", "1"))
			require.NoError(t, kv.Set(ctx, "b", "2"))
			v, err := kv.Get(ctx, "a")
			require.NoError(t, err)
			require.Equal(t, "1", v)

			require.NoError(t, kv.Set(ctx, "a", "3"))
			v, err = kv.Get(ctx, "a")
			require.NoError(t, err)
			require.Equal(t, "3", v)

			require.NoError(t, kv.Delete(ctx, "a", "b", "never-set"))
			_, err = kv.Get(ctx, "a")
			require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
			_, err = kv.Get(ctx, "b")
			require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
		})
	}
}

func TestFileKV_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "creds.json")

	kv, err := credentials.NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "access_token", "abc"))

	reopened, err := credentials.NewFileKV(path)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Equal(t, "abc", v)
}

func TestFileKV_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := credentials.NewFileKV(path)
	require.Error(t, err)
}

func TestRedisKV_UsesPrefix(t *testing.T) {
	kv, mr := newRedisKV(t)
	require.NoError(t, kv.Set(context.Background(), "user", "{}"))

	v, err := mr.Get("test:user")
	require.NoError(t, err)
	require.Equal(t, "{}", v)
}
