package bankapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/rs/zerolog"
)

const errorTitle = "Error"

// SessionView is what the classifier needs from the session manager.
// Expire must clear the session without waiting on the network.
type SessionView interface {
	CurrentUser() *users.User
	Expire(ctx context.Context)
}

// Notifier shows a user facing error.
type Notifier interface {
	Error(message, title string) bool
}

// Navigator moves the console to another route.
type Navigator interface {
	Navigate(path string)
}

// Outcome is what the classifier decided for one failed response.
type Outcome struct {
	Category    Category
	Message     string
	Notify      bool
	ForceLogout bool
}

// Classify maps a failed response to its outcome. role is the current
// operator's role, empty when nobody is signed in.
func Classify(status int, serverMsg string, opts RequestOptions, role users.RoleType) Outcome {
	out := Outcome{Category: CategoryFor(status)}

	switch out.Category {
	case CategoryInvalid:
		out.Message = orDefault(serverMsg, "Invalid request")
		out.Notify = !opts.SkipErrorNotification
	case CategoryUnauthorized:
		out.Message = "Session expired. Please sign in again."
		out.ForceLogout = !opts.SkipAuthExpiry
	case CategoryForbidden:
		out.Message = "Access denied"
		restricted := role != "" && role.Restricted()
		out.Notify = !opts.SkipErrorNotification && !restricted
	case CategoryNotFound:
		out.Message = "Resource not found"
		out.Notify = true
	case CategoryServer:
		out.Message = "Server error. Please try again later."
		out.Notify = !opts.SkipErrorNotification
	default:
		out.Message = orDefault(serverMsg, fmt.Sprintf("Error %d", status))
		out.Notify = true
	}
	return out
}

// Transport failure messages
const (
	msgTimeout     = "The banking service did not respond in time. Please try again."
	msgUnreachable = "Unable to reach the banking service. Check your connection."
	msgNetwork     = "Network error. Please try again."
)

// ClassifyTransport handles failures where no response arrived. The raw
// error is never shown to the operator.
func ClassifyTransport(err error) Outcome {
	out := Outcome{
		Category: CategoryTransport,
		Message:  msgNetwork,
		Notify:   !errors.Is(err, context.Canceled),
	}

	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		out.Message = msgTimeout
	case errors.Is(err, syscall.ECONNREFUSED), errors.As(err, &dnsErr), errors.As(err, &opErr) && opErr.Op == "dial":
		out.Message = msgUnreachable
	}
	return out
}

// Classifier inspects failed responses: it notifies the operator, forces
// logout when the session has expired, and always hands the response or
// error back to the caller untouched.
type Classifier struct {
	session    SessionView
	notifier   Notifier
	navigator  Navigator
	loginRoute string
	log        zerolog.Logger
}

type ClassifierOption func(*Classifier)

func WithLoginRoute(route string) ClassifierOption {
	return func(c *Classifier) {
		c.loginRoute = route
	}
}

func WithClassifierLogger(log zerolog.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.log = log
	}
}

func NewClassifier(session SessionView, notifier Notifier, navigator Navigator, options ...ClassifierOption) *Classifier {
	c := &Classifier{
		session:    session,
		notifier:   notifier,
		navigator:  navigator,
		loginRoute: "/login",
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Classifier) Intercept(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := next.RoundTrip(req)
		if err != nil {
			c.log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("transport error")
			c.apply(req, ClassifyTransport(err))
			return nil, err
		}
		if resp.StatusCode < http.StatusBadRequest {
			return resp, nil
		}

		// Read a bounded prefix for the message and put it back in front
		// of whatever is left so the caller still sees the full body.
		prefix, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(prefix), resp.Body), resp.Body}

		var role users.RoleType
		if c.session != nil {
			if u := c.session.CurrentUser(); u != nil {
				role = u.Role
			}
		}

		c.apply(req, Classify(resp.StatusCode, serverMessage(prefix), OptionsFrom(req.Context()), role))
		return resp, nil
	})
}

func (c *Classifier) apply(req *http.Request, out Outcome) {
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("category", string(out.Category)).
		Bool("notify", out.Notify).
		Bool("force_logout", out.ForceLogout).
		Msg("request failed")

	if out.ForceLogout {
		if c.session != nil {
			c.session.Expire(context.WithoutCancel(req.Context()))
		}
		if c.navigator != nil {
			c.navigator.Navigate(c.loginRoute)
		}
	}
	if out.Notify && c.notifier != nil {
		c.notifier.Error(out.Message, errorTitle)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
