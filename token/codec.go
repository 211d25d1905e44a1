package token

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Claims holds the payload facts the client reads from a bearer token.
// Nothing here has been verified: use it for display and expiry hints only,
// never to decide what the user may do.
type Claims struct {
	Subject   string           // sub
	Username  string           // username, when the issuer adds it
	Role      string           // role, when the issuer adds it
	FirstName string           // firstName
	LastName  string           // lastName
	Email     string           // email
	ExpiresAt time.Time        // exp, zero when absent or unreadable
	Raw       jwtlib.MapClaims // Every claim as decoded
}

// HasExpiry reports whether the token carried a readable exp claim.
func (c *Claims) HasExpiry() bool {
	return c != nil && !c.ExpiresAt.IsZero()
}

// Expired fails closed: a token without a readable expiry counts as expired.
func (c *Claims) Expired(now time.Time) bool {
	if !c.HasExpiry() {
		return true
	}
	return !now.Before(c.ExpiresAt)
}

// Codec decodes the unverified payload segment of a JWT.
type Codec struct {
	parser *jwtlib.Parser
	log    zerolog.Logger
}

// NewCodec creates a codec that logs decode failures at debug level.
func NewCodec(log zerolog.Logger) *Codec {
	return &Codec{
		parser: jwtlib.NewParser(jwtlib.WithPaddingAllowed()),
		log:    log,
	}
}

var defaultCodec = NewCodec(zerolog.Nop())

// Decode is Codec.Decode with logging disabled.
func Decode(raw string) (*Claims, bool) {
	return defaultCodec.Decode(raw)
}

// Decode returns the token's claims, or false when the token is malformed
// in any way. It never panics and never returns an error.
func (c *Codec) Decode(raw string) (*Claims, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	mapClaims := jwtlib.MapClaims{}
	if _, _, err := c.parser.ParseUnverified(raw, mapClaims); err != nil {
		c.log.Debug().Err(err).Msg("token payload could not be decoded")
		return nil, false
	}

	claims := &Claims{
		Subject:   claimString(mapClaims, "sub"),
		Username:  claimString(mapClaims, "username"),
		Role:      claimString(mapClaims, "role"),
		FirstName: claimString(mapClaims, "firstName"),
		LastName:  claimString(mapClaims, "lastName"),
		Email:     claimString(mapClaims, "email"),
		Raw:       mapClaims,
	}

	if exp, err := mapClaims.GetExpirationTime(); err != nil {
		c.log.Debug().Err(err).Msg("token exp claim unreadable")
	} else if exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, true
}

// claimString reads a claim as text. Numeric subjects are common so numbers
// are formatted rather than dropped.
func claimString(claims jwtlib.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
