package token_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-bank-backoffice/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestDecode_RoundTrip(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signed(t, jwtlib.MapClaims{
		"exp":       exp.Unix(),
		"sub":       "42",
		"firstName": "Leïla",
		"lastName":  "Trabelsi",
		"email":     "leila@banque.example",
	})

	claims, ok := token.Decode(raw)
	require.True(t, ok)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "Leïla", claims.FirstName)
	require.Equal(t, "Trabelsi", claims.LastName)
	require.Equal(t, "leila@banque.example", claims.Email)
	require.True(t, claims.ExpiresAt.Equal(exp))
	require.False(t, claims.Expired(time.Now()))
}

func TestDecode_NumericSubject(t *testing.T) {
	claims, ok := token.Decode(signed(t, jwtlib.MapClaims{"sub": 7}))
	require.True(t, ok)
	require.Equal(t, "7", claims.Subject)
}

func TestDecode_PaddedPayload(t *testing.T) {
	raw := signed(t, jwtlib.MapClaims{"sub": "a"})
	parts := strings.Split(raw, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = base64.URLEncoding.EncodeToString(payload)

	claims, ok := token.Decode(strings.Join(parts, "."))
	require.True(t, ok)
	require.Equal(t, "a", claims.Subject)
}

func TestDecode_Malformed(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	notJSON := base64.RawURLEncoding.EncodeToString([]byte("not json"))

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"single segment", "abc"},
		{"two segments", header + ".abc"},
		{"invalid base64", header + ".!!!." + "sig"},
		{"non json payload", header + "." + notJSON + ".sig"},
		{"opaque demo token", "demo_token_1700000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				claims, ok := token.Decode(tc.raw)
				require.False(t, ok)
				require.Nil(t, claims)
			})
		})
	}
}

func TestClaims_ExpiryFailsClosed(t *testing.T) {
	claims, ok := token.Decode(signed(t, jwtlib.MapClaims{"sub": "1"}))
	require.True(t, ok)
	require.False(t, claims.HasExpiry())
	require.True(t, claims.Expired(time.Now()))

	past, ok := token.Decode(signed(t, jwtlib.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()}))
	require.True(t, ok)
	require.True(t, past.Expired(time.Now()))

	var none *token.Claims
	require.True(t, none.Expired(time.Now()))
}
