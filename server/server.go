package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-bank-backoffice/bankapi"
	"github.com/jrsteele09/go-bank-backoffice/guard"
	"github.com/jrsteele09/go-bank-backoffice/internal/config"
	"github.com/jrsteele09/go-bank-backoffice/notify"
	"github.com/jrsteele09/go-bank-backoffice/sessions"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Console is the set of components the gateway exposes.
type Console struct {
	Sessions *sessions.Manager
	Router   *guard.Router
	API      *bankapi.Client
	Throttle *notify.Throttle
	Center   *notify.Center
}

func (c Console) validate() error {
	switch {
	case c.Sessions == nil:
		return errors.New("session manager is required")
	case c.Router == nil:
		return errors.New("router is required")
	case c.API == nil:
		return errors.New("api client is required")
	case c.Throttle == nil:
		return errors.New("notification throttle is required")
	case c.Center == nil:
		return errors.New("notification center is required")
	}
	return nil
}

// Server is the HTTP gateway the operator console talks to.
type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	console  Console
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

func New(cfg config.Config, console Console, options ...Option) (*Server, error) {
	if err := console.validate(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	origins := cfg.GetAllowedOrigins()
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		console: console,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins.IsAllowedOrigin(origin) || sameHost(origin, r.Host)
		},
	}

	s.initRoutes()
	s.logRoutes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   origins.List(),
		AllowedMethods:   cfg.GetAllowedMethods(),
		AllowedHeaders:   cfg.GetAllowedHeaders(),
		AllowCredentials: true,
	}).Handler(s.mux)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.log.Info().Msgf("[%s] %s", colourMethod(method), path)
}

func sameHost(origin, host string) bool {
	origin = strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	return strings.EqualFold(origin, host)
}
