package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-bank-backoffice/bankapi"
	"github.com/jrsteele09/go-bank-backoffice/credentials"
	"github.com/jrsteele09/go-bank-backoffice/guard"
	"github.com/jrsteele09/go-bank-backoffice/internal/config"
	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"github.com/jrsteele09/go-bank-backoffice/notify"
	"github.com/jrsteele09/go-bank-backoffice/server"
	"github.com/jrsteele09/go-bank-backoffice/sessions"
	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/rs/zerolog"
)

// newConsole wires the session manager, router, notifications and the
// Banking API client. The returned function releases the store backend.
func newConsole(ctx context.Context, c config.Config, log zerolog.Logger) (server.Console, func(), error) {
	kv, closeKV, err := openStore(ctx, c)
	if err != nil {
		return server.Console{}, nil, err
	}

	cookies, err := credentials.NewCookieStore(kv, c.GetAPIBaseURL(), c.GetCookieDomain(), c.IsProduction())
	if err != nil {
		closeKV()
		return server.Console{}, nil, apperrors.Wrapf(err, "[newConsole] credentials.NewCookieStore")
	}
	store, err := credentials.NewStore(ctx, kv, cookies, credentials.WithStoreLogger(log))
	if err != nil {
		closeKV()
		return server.Console{}, nil, apperrors.Wrapf(err, "[newConsole] credentials.NewStore")
	}

	throttle := notify.NewThrottle(notify.NewLogDisplay(log),
		notify.WithWindow(c.GetNotificationWindow()),
		notify.WithLogger(log))
	center := notify.NewCenter(c.GetNotificationHistory())
	stopCenter := center.Follow(throttle)

	api, err := bankapi.NewClient(c.GetAPIBaseURL(),
		bankapi.WithTimeout(c.GetRequestTimeout()),
		bankapi.WithClientLogger(log))
	if err != nil {
		stopCenter()
		closeKV()
		return server.Console{}, nil, apperrors.Wrapf(err, "[newConsole] bankapi.NewClient")
	}

	view := &deferredSession{}
	router := guard.NewRouter(guard.DefaultRoutes(), view, throttle,
		guard.WithRoutes(c.GetLoginRoute(), c.GetFallbackRoute()),
		guard.WithLogger(log))
	mgr := sessions.NewManager(bankapi.NewAuthService(api), store, router,
		sessions.WithConfig(c),
		sessions.WithLogger(log))
	view.mgr = mgr

	api.Use(
		bankapi.NewAuthorizer(mgr),
		bankapi.NewClassifier(mgr, throttle, router,
			bankapi.WithLoginRoute(c.GetLoginRoute()),
			bankapi.WithClassifierLogger(log)),
	)

	if err := mgr.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore the previous session")
	}
	if mgr.IsAuthenticated() {
		router.Navigate(c.GetLandingRoute())
	} else {
		router.Navigate(c.GetLoginRoute())
	}

	console := server.Console{
		Sessions: mgr,
		Router:   router,
		API:      api,
		Throttle: throttle,
		Center:   center,
	}
	return console, func() {
		stopCenter()
		closeKV()
	}, nil
}

func openStore(ctx context.Context, c config.Config) (credentials.KeyValue, func(), error) {
	switch strings.ToLower(c.GetStoreBackend()) {
	case "", "memory":
		return credentials.NewMemoryKV(), func() {}, nil
	case "file":
		kv, err := credentials.NewFileKV(c.GetStoreFile())
		if err != nil {
			return nil, nil, fmt.Errorf("[openStore] %w", err)
		}
		return kv, func() {}, nil
	case "redis":
		client, err := credentials.DialRedis(ctx, c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			return nil, nil, fmt.Errorf("[openStore] %w", err)
		}
		return credentials.NewRedisKV(client, c.GetRedisPrefix()), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("[openStore] unknown store backend %q", c.GetStoreBackend())
}

// deferredSession lets the router be built before the manager it reads.
type deferredSession struct {
	mgr *sessions.Manager
}

func (d *deferredSession) CurrentUser() *users.User {
	if d.mgr == nil {
		return nil
	}
	return d.mgr.CurrentUser()
}
