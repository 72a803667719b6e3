package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors
var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

// Session is an immutable snapshot of the caller's identity for one
// request. The zero value is the anonymous session.
type Session struct {
	Subject       string
	Username      string
	Email         string
	Token         string // raw bearer token, forwarded to upstream services
	Authenticated bool
	Roles         []string

	organiserRole string
}

// Anonymous returns the unauthenticated session.
func Anonymous() *Session {
	return &Session{}
}

// HasRole reports whether the session carries the given role.
func (s *Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IsOrganiser reports whether the session can create and manage events.
func (s *Session) IsOrganiser() bool {
	role := s.organiserRole
	if role == "" {
		role = "organiser"
	}
	return s.Authenticated && s.HasRole(role)
}

// Config holds verification settings for the external identity provider.
type Config struct {
	JWTSecret     string
	Issuer        string
	OrganiserRole string
}

// Provider verifies bearer tokens and builds sessions. It is safe for
// concurrent use and holds no mutable state, so a single instance can be
// shared by all requests.
type Provider struct {
	secret        []byte
	issuer        string
	organiserRole string
}

// NewProvider creates a session provider.
func NewProvider(cfg *Config) *Provider {
	organiserRole := cfg.OrganiserRole
	if organiserRole == "" {
		organiserRole = "organiser"
	}
	return &Provider{
		secret:        []byte(cfg.JWTSecret),
		issuer:        cfg.Issuer,
		organiserRole: organiserRole,
	}
}

// SessionFromToken verifies a raw bearer token and returns the session it
// represents. An empty token yields the anonymous session without error;
// a malformed or expired token yields the anonymous session and the
// verification error so callers can decide whether to surface it.
func (p *Provider) SessionFromToken(raw string) (*Session, error) {
	if raw == "" {
		return Anonymous(), nil
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Anonymous(), ErrTokenExpired
		}
		return Anonymous(), fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Anonymous(), ErrTokenInvalid
	}

	if p.issuer != "" {
		if iss, _ := claims.GetIssuer(); iss != "" && iss != p.issuer {
			return Anonymous(), fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, iss)
		}
	}

	sub, _ := claims.GetSubject()
	sess := &Session{
		Subject:       sub,
		Username:      stringClaim(claims, "preferred_username"),
		Email:         stringClaim(claims, "email"),
		Token:         raw,
		Authenticated: true,
		Roles:         rolesFromClaims(claims),
		organiserRole: p.organiserRole,
	}
	return sess, nil
}

// SessionFromHeader verifies an Authorization header value of the form
// "Bearer <token>".
func (p *Provider) SessionFromHeader(header string) (*Session, error) {
	if header == "" {
		return Anonymous(), nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Anonymous(), fmt.Errorf("%w: malformed authorization header", ErrTokenInvalid)
	}
	return p.SessionFromToken(strings.TrimSpace(parts[1]))
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// rolesFromClaims reads roles from either the keycloak-style nested
// realm_access claim or a flat roles claim.
func rolesFromClaims(claims jwt.MapClaims) []string {
	var out []string

	appendRoles := func(v interface{}) {
		list, ok := v.([]interface{})
		if !ok {
			return
		}
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}

	if realm, ok := claims["realm_access"].(map[string]interface{}); ok {
		appendRoles(realm["roles"])
	}
	appendRoles(claims["roles"])

	return out
}
