package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"golang.org/x/net/publicsuffix"
)

const cookieKeyPrefix = "cookie:"

// persistedCookie is the durable form of a cookie held in the jar.
type persistedCookie struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// CookieStore keeps credential cookies scoped to the Banking API origin.
// The jar enforces domain, expiry and Secure rules; the KeyValue makes the
// cookies survive a restart. The jar is never attached to the API
// http.Client, so these cookies are only read when explicitly asked for.
type CookieStore struct {
	jar    http.CookieJar
	kv     KeyValue
	url    *url.URL
	domain string
	secure bool
	nowFn  func() time.Time
}

// NewCookieStore scopes cookies to apiBaseURL. An empty domain produces
// host-only cookies. secure marks cookies Secure (production builds).
func NewCookieStore(kv KeyValue, apiBaseURL, domain string, secure bool) (*CookieStore, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[NewCookieStore] parse base url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("[NewCookieStore] cookie jar: %w", err)
	}

	root := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	return &CookieStore{
		jar:    jar,
		kv:     kv,
		url:    root,
		domain: domain,
		secure: secure,
		nowFn:  time.Now,
	}, nil
}

// Load rehydrates the jar from durable storage.
func (c *CookieStore) Load(ctx context.Context, names ...string) error {
	for _, name := range names {
		raw, err := c.kv.Get(ctx, cookieKeyPrefix+name)
		if errors.Is(err, apperrors.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("[CookieStore Load] %s: %w", name, err)
		}

		var pc persistedCookie
		if err := json.Unmarshal([]byte(raw), &pc); err != nil {
			_ = c.kv.Delete(ctx, cookieKeyPrefix+name)
			continue
		}
		if !pc.Expires.After(c.nowFn()) {
			_ = c.kv.Delete(ctx, cookieKeyPrefix+name)
			continue
		}
		c.jar.SetCookies(c.url, []*http.Cookie{c.cookie(name, pc.Value, pc.Expires)})
	}
	return nil
}

// Set stores a cookie valid until expires.
func (c *CookieStore) Set(ctx context.Context, name, value string, expires time.Time) error {
	c.jar.SetCookies(c.url, []*http.Cookie{c.cookie(name, value, expires)})
	if _, ok := c.Get(name); !ok {
		return fmt.Errorf("[CookieStore Set] cookie %q rejected for %s (domain %q)", name, c.url.Host, c.domain)
	}

	data, err := json.Marshal(persistedCookie{Value: value, Expires: expires})
	if err != nil {
		return fmt.Errorf("[CookieStore Set] encode: %w", err)
	}
	return c.kv.Set(ctx, cookieKeyPrefix+name, string(data))
}

// Get returns the cookie value if it is present and unexpired.
func (c *CookieStore) Get(name string) (string, bool) {
	for _, ck := range c.jar.Cookies(c.url) {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}

// Delete expires the cookie and removes its durable copy.
func (c *CookieStore) Delete(ctx context.Context, name string) error {
	expired := c.cookie(name, "", time.Unix(0, 0))
	expired.MaxAge = -1
	c.jar.SetCookies(c.url, []*http.Cookie{expired})
	return c.kv.Delete(ctx, cookieKeyPrefix+name)
}

func (c *CookieStore) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		Expires:  expires,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
