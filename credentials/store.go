package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/rs/zerolog"
)

// Durable keys
const (
	KeyAccessToken = "access_token"
	KeyTokenType   = "token_type"
	KeyTokenExpiry = "token_expiry" // epoch millis
	KeyUser        = "user"         // JSON encoded users.User
)

// Cookie names
const (
	CookieRefreshToken = "refresh_token"
	CookieAuthToken    = "auth_token" // Secondary access token some deployments set
)

// Record is everything persisted for one authenticated operator.
type Record struct {
	AccessToken   string
	TokenType     string
	Expiry        time.Time
	RefreshToken  string
	RefreshExpiry time.Time
	User          *users.User
}

// Store persists the session across restarts: tokens and profile in the
// KeyValue, the refresh token in a cookie.
type Store struct {
	kv      KeyValue
	cookies *CookieStore
	log     zerolog.Logger
}

type StoreOption func(*Store)

func WithStoreLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore creates the credential store and rehydrates its cookies.
func NewStore(ctx context.Context, kv KeyValue, cookies *CookieStore, options ...StoreOption) (*Store, error) {
	if kv == nil {
		return nil, errors.New("[NewStore] key-value storage is required")
	}
	if cookies == nil {
		return nil, errors.New("[NewStore] cookie store is required")
	}

	s := &Store{
		kv:      kv,
		cookies: cookies,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}

	if err := cookies.Load(ctx, CookieRefreshToken, CookieAuthToken); err != nil {
		return nil, fmt.Errorf("[NewStore] load cookies: %w", err)
	}
	return s, nil
}

// Save overwrites whatever was stored before.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.AccessToken == "" {
		return fmt.Errorf("[Store Save] %w: empty access token", apperrors.ErrInvalidRequest)
	}
	if err := rec.User.Validate(); err != nil {
		return fmt.Errorf("[Store Save] %w", err)
	}

	userJSON, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("[Store Save] encode user: %w", err)
	}

	values := []struct{ key, value string }{
		{KeyAccessToken, rec.AccessToken},
		{KeyTokenType, rec.TokenType},
		{KeyTokenExpiry, strconv.FormatInt(rec.Expiry.UnixMilli(), 10)},
		{KeyUser, string(userJSON)},
	}
	for _, v := range values {
		if err := s.kv.Set(ctx, v.key, v.value); err != nil {
			return fmt.Errorf("[Store Save] %s: %w", v.key, err)
		}
	}

	if rec.RefreshToken == "" {
		return s.cookies.Delete(ctx, CookieRefreshToken)
	}
	if err := s.cookies.Set(ctx, CookieRefreshToken, rec.RefreshToken, rec.RefreshExpiry); err != nil {
		return fmt.Errorf("[Store Save] refresh cookie: %w", err)
	}
	return nil
}

// Load returns the stored record. errors.ErrKeyNotFound means nothing is
// stored. A corrupt user entry wipes the store.
func (s *Store) Load(ctx context.Context) (Record, error) {
	access, err := s.kv.Get(ctx, KeyAccessToken)
	if err != nil {
		return Record{}, err
	}

	rawUser, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return Record{}, err
	}

	var user users.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.Validate() != nil {
		s.log.Warn().Msg("stored user profile is corrupt, clearing credentials")
		if clearErr := s.Clear(ctx); clearErr != nil {
			return Record{}, clearErr
		}
		return Record{}, apperrors.ErrKeyNotFound
	}

	rec := Record{
		AccessToken: access,
		User:        &user,
	}
	if tt, err := s.kv.Get(ctx, KeyTokenType); err == nil {
		rec.TokenType = tt
	}
	if ms, err := s.kv.Get(ctx, KeyTokenExpiry); err == nil {
		if n, err := strconv.ParseInt(ms, 10, 64); err == nil {
			rec.Expiry = time.UnixMilli(n)
		}
	}
	rec.RefreshToken = s.RefreshToken()
	return rec, nil
}

// ClearAccess removes the access token and profile but keeps the refresh
// cookie, so an expired session can still be refreshed.
func (s *Store) ClearAccess(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyAccessToken, KeyTokenType, KeyTokenExpiry, KeyUser); err != nil {
		return fmt.Errorf("[Store ClearAccess] %w", err)
	}
	return nil
}

// Clear removes every stored credential, cookies included.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.ClearAccess(ctx); err != nil {
		return err
	}
	for _, name := range []string{CookieRefreshToken, CookieAuthToken} {
		if err := s.cookies.Delete(ctx, name); err != nil {
			return fmt.Errorf("[Store Clear] %s cookie: %w", name, err)
		}
	}
	return nil
}

func (s *Store) RefreshToken() string {
	v, _ := s.cookies.Get(CookieRefreshToken)
	return v
}

// FallbackToken is the secondary cookie-held access token, if any.
func (s *Store) FallbackToken() string {
	v, _ := s.cookies.Get(CookieAuthToken)
	return v
}
