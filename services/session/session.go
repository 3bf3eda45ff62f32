// Package sessionsvc reads sessions out of signed bearer tokens.
// Tokens are minted by the identity provider (or the admin CLI), never by the API.
package sessionsvc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/identity"
)

const audience = "alama"

var (
	NowFunc = time.Now // mockable

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents the identity claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Issuer signs and verifies HS256 tokens with the app secret key.
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

var _ identity.ProfileLoader = (*Issuer)(nil)

func NewIssuer(conf *core.Config) *Issuer {
	return &Issuer{
		key:    []byte(conf.SecretKey),
		issuer: conf.AppName,
		ttl:    conf.Server.TokenTTL,
	}
}

// Issue returns a signed token for id.
func (is *Issuer) Issue(id identity.Identity) (string, error) {
	if _, err := identity.ParseRole(string(id.Role)); err != nil {
		return "", err
	}
	now := NowFunc()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    is.issuer,
			Subject:   id.UserID,
			Audience:  audience,
			ExpiresAt: now.Add(is.ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: string(id.Role),
		Name: id.DisplayName,
	}

	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(is.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Parse verifies token and returns the identity it carries.
func (is *Issuer) Parse(token string) (identity.Identity, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return is.key, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return identity.Identity{}, ErrTokenExpired
		}
		return identity.Identity{}, ErrInvalidToken
	}
	if !claims.VerifyAudience(audience, true) || !claims.VerifyIssuer(is.issuer, true) || claims.Subject == "" {
		return identity.Identity{}, ErrInvalidToken
	}

	role, err := identity.ParseRole(claims.Role)
	if err != nil {
		return identity.Identity{}, ErrInvalidToken
	}
	return identity.Identity{UserID: claims.Subject, Role: role, DisplayName: claims.Name}, nil
}

// LoadProfile implements identity.ProfileLoader: the profile is read from the token claims.
func (is *Issuer) LoadProfile(_ context.Context, s identity.Session) (identity.Identity, error) {
	return is.Parse(s.Token)
}

// Bearer is the session provider of a single request or CLI run.
type Bearer struct {
	mu    sync.Mutex
	token string
}

var _ identity.SessionProvider = (*Bearer)(nil)

func NewBearer(token string) *Bearer {
	return &Bearer{token: strings.TrimSpace(token)}
}

func (b *Bearer) CurrentSession(context.Context) (identity.Session, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token == "" {
		return identity.Session{}, false, nil
	}
	return identity.Session{Token: b.token}, true, nil
}

func (b *Bearer) SignOut(context.Context) error {
	b.mu.Lock()
	b.token = ""
	b.mu.Unlock()
	return nil
}

// TokenFromHeader extracts the token of an "Authorization: Bearer <token>" header value.
func TokenFromHeader(h string) string {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// NewResolver returns a bootstrapped resolver for token. A bad token resolves to Anonymous;
// its error is returned alongside the settled resolver.
func (is *Issuer) NewResolver(ctx context.Context, token string) (*identity.Resolver, error) {
	r := identity.NewResolver(NewBearer(token), is)
	return r, r.Bootstrap(ctx)
}
