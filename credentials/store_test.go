package credentials_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-bank-backoffice/credentials"
	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/stretchr/testify/require"
)

const testAPIBaseURL = "http://127.0.0.1:8081/api"

func newStore(t *testing.T, kv credentials.KeyValue) *credentials.Store {
	t.Helper()

	cookies, err := credentials.NewCookieStore(kv, testAPIBaseURL, "", false)
	require.NoError(t, err)
	store, err := credentials.NewStore(context.Background(), kv, cookies)
	require.NoError(t, err)
	return store
}

func testRecord() credentials.Record {
	return credentials.Record{
		AccessToken:   "access-1",
		TokenType:     "Bearer",
		Expiry:        time.Now().Add(time.Hour).Truncate(time.Millisecond),
		RefreshToken:  "refresh-1",
		RefreshExpiry: time.Now().Add(24 * time.Hour),
		User:          &users.User{Username: "admin", Role: users.RoleAdmin, Email: "admin@banque.example"},
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	kv := credentials.NewMemoryKV()
	store := newStore(t, kv)

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)

	rec := testRecord()
	require.NoError(t, store.Save(ctx, rec))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, rec.AccessToken, loaded.AccessToken)
	require.Equal(t, rec.TokenType, loaded.TokenType)
	require.True(t, rec.Expiry.Equal(loaded.Expiry))
	require.Equal(t, "refresh-1", loaded.RefreshToken)
	require.Equal(t, rec.User, loaded.User)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
	require.Empty(t, store.RefreshToken())
}

func TestStore_ClearAccessKeepsRefreshCookie(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, credentials.NewMemoryKV())
	require.NoError(t, store.Save(ctx, testRecord()))

	require.NoError(t, store.ClearAccess(ctx))
	_, err := store.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
	require.Equal(t, "refresh-1", store.RefreshToken())
}

func TestStore_RefreshCookieSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := credentials.NewMemoryKV()
	require.NoError(t, newStore(t, kv).Save(ctx, testRecord()))

	restarted := newStore(t, kv)
	require.Equal(t, "refresh-1", restarted.RefreshToken())

	loaded, err := restarted.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "admin", loaded.User.Username)
}

func TestStore_CorruptUserClearsStore(t *testing.T) {
	ctx := context.Background()
	kv := credentials.NewMemoryKV()
	store := newStore(t, kv)
	require.NoError(t, store.Save(ctx, testRecord()))

	require.NoError(t, kv.Set(ctx, credentials.KeyUser, "{broken"))
	_, err := store.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)

	_, err = kv.Get(ctx, credentials.KeyAccessToken)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
	require.Empty(t, store.RefreshToken())
}

func TestStore_ClearRemovesFallbackToken(t *testing.T) {
	ctx := context.Background()
	kv := credentials.NewMemoryKV()

	cookie, err := json.Marshal(map[string]any{"value": "legacy-token", "expires": time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "cookie:"+credentials.CookieAuthToken, string(cookie)))

	store := newStore(t, kv)
	require.Equal(t, "legacy-token", store.FallbackToken())
	require.NoError(t, store.Save(ctx, testRecord()))

	require.NoError(t, store.Clear(ctx))
	require.Empty(t, store.FallbackToken())
	require.Empty(t, store.RefreshToken())
	_, err = kv.Get(ctx, "cookie:"+credentials.CookieAuthToken)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)

	require.Empty(t, newStore(t, kv).FallbackToken())
}

func TestStore_SaveRejectsIncompleteIdentity(t *testing.T) {
	store := newStore(t, credentials.NewMemoryKV())

	rec := testRecord()
	rec.User = &users.User{Role: users.RoleAgent}
	require.ErrorIs(t, store.Save(context.Background(), rec), apperrors.ErrIncompleteIdentity)
}

func TestCookieStore(t *testing.T) {
	ctx := context.Background()
	kv := credentials.NewMemoryKV()

	t.Run("expired cookie is not returned", func(t *testing.T) {
		cookies, err := credentials.NewCookieStore(kv, testAPIBaseURL, "", false)
		require.NoError(t, err)

		err = cookies.Set(ctx, credentials.CookieAuthToken, "stale", time.Now().Add(-time.Minute))
		require.Error(t, err)
		_, ok := cookies.Get(credentials.CookieAuthToken)
		require.False(t, ok)
	})

	t.Run("secure cookie rejected over plain http", func(t *testing.T) {
		cookies, err := credentials.NewCookieStore(kv, testAPIBaseURL, "", true)
		require.NoError(t, err)
		require.Error(t, cookies.Set(ctx, credentials.CookieRefreshToken, "r", time.Now().Add(time.Hour)))
	})

	t.Run("secure cookie over https", func(t *testing.T) {
		cookies, err := credentials.NewCookieStore(kv, "https://bank.example.com/api", "bank.example.com", true)
		require.NoError(t, err)
		require.NoError(t, cookies.Set(ctx, credentials.CookieRefreshToken, "r", time.Now().Add(time.Hour)))

		v, ok := cookies.Get(credentials.CookieRefreshToken)
		require.True(t, ok)
		require.Equal(t, "r", v)

		require.NoError(t, cookies.Delete(ctx, credentials.CookieRefreshToken))
		_, ok = cookies.Get(credentials.CookieRefreshToken)
		require.False(t, ok)
	})

	t.Run("domain mismatch rejected", func(t *testing.T) {
		cookies, err := credentials.NewCookieStore(kv, "https://bank.example.com/api", "other.example.org", true)
		require.NoError(t, err)
		require.Error(t, cookies.Set(ctx, credentials.CookieRefreshToken, "r", time.Now().Add(time.Hour)))
	})
}
