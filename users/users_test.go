package users_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Run("known roles", func(t *testing.T) {
		r, err := users.ParseRole("ADMIN")
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, r)

		r, err = users.ParseRole(" agent ")
		require.NoError(t, err)
		require.Equal(t, users.RoleAgent, r)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := users.ParseRole("AUDITOR")
		require.ErrorIs(t, err, apperrors.ErrUnknownRole)
	})
}

func TestRestricted(t *testing.T) {
	require.False(t, users.RoleAdmin.Restricted())
	require.True(t, users.RoleAgent.Restricted())
}

func TestUser(t *testing.T) {
	u := &users.User{Username: "agent01", Role: users.RoleAgent, FirstName: "Amira", LastName: "Ben Salah"}

	require.NoError(t, u.Validate())
	require.Equal(t, "Amira Ben Salah", u.FullName())
	require.True(t, u.HasRole(users.RoleAgent))
	require.False(t, u.HasRole(users.RoleAdmin))
	require.True(t, u.HasAnyRole(users.RoleAdmin, users.RoleAgent))
	require.False(t, u.HasAnyRole())

	var nilUser *users.User
	require.False(t, nilUser.HasRole(users.RoleAdmin))
	require.ErrorIs(t, nilUser.Validate(), apperrors.ErrIncompleteIdentity)
	require.ErrorIs(t, (&users.User{Role: users.RoleAdmin}).Validate(), apperrors.ErrIncompleteIdentity)
	require.ErrorIs(t, (&users.User{Username: "x", Role: "ROOT"}).Validate(), apperrors.ErrUnknownRole)
}
