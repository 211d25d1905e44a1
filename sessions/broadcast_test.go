package sessions_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-bank-backoffice/bankapi"
	"github.com/jrsteele09/go-bank-backoffice/bankapi/apifake"
	"github.com/stretchr/testify/require"
)

func TestManager_Subscribe(t *testing.T) {
	f := newFixture(t)

	early, stopEarly := f.mgr.Subscribe()
	defer stopEarly()
	first := <-early
	require.False(t, first.Authenticated())

	f.login(t)
	next := <-early
	require.True(t, next.Authenticated())
	require.Greater(t, next.Version, first.Version)
	require.Equal(t, apifake.AdminUsername, next.User().Username)

	late, stopLate := f.mgr.Subscribe()
	defer stopLate()
	replay := <-late
	require.Equal(t, next.Version, replay.Version)
	require.True(t, replay.Authenticated())

	// Nobody reads early while the session changes twice: only the newest
	// state is delivered.
	f.mgr.Logout(context.Background())
	_, err := f.mgr.Login(context.Background(), bankapi.LoginRequest{Username: apifake.AgentUsername, Password: apifake.AgentPassword})
	require.NoError(t, err)

	latest := <-early
	require.True(t, latest.Authenticated())
	require.Equal(t, apifake.AgentUsername, latest.User().Username)
	require.Equal(t, f.mgr.Current().Version, latest.Version)
	require.Greater(t, latest.Version, next.Version+1)
}

func TestManager_Unsubscribe(t *testing.T) {
	f := newFixture(t)

	ch, stop := f.mgr.Subscribe()
	<-ch
	stop()
	stop()

	_, open := <-ch
	require.False(t, open)

	f.login(t)
}
