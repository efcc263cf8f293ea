package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"customerhub/internal/config"
	"customerhub/internal/model"
)

// ErrInvalidToken is returned for every token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the verified contents of an access or refresh token.
type Claims struct {
	CustomerID string     `json:"customerId"`
	Role       model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access and refresh tokens.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenCodec creates a codec from token configuration.
func NewTokenCodec(cfg config.TokenConfig) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// AccessTTL is the lifetime of newly signed access tokens.
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// SignAccess signs an access token for the customer.
func (c *TokenCodec) SignAccess(customerID string, role model.Role) (string, error) {
	return c.sign(customerID, role, c.accessSecret, c.accessTTL)
}

// SignRefresh signs a refresh token for the customer.
func (c *TokenCodec) SignRefresh(customerID string, role model.Role) (string, error) {
	return c.sign(customerID, role, c.refreshSecret, c.refreshTTL)
}

// VerifyAccess verifies a token against the access secret.
func (c *TokenCodec) VerifyAccess(token string) (*Claims, error) {
	return c.Verify(token, c.accessSecret)
}

// VerifyRefresh verifies a token against the refresh secret.
func (c *TokenCodec) VerifyRefresh(token string) (*Claims, error) {
	return c.Verify(token, c.refreshSecret)
}

// Verify checks signature, algorithm and expiry. The expiry is compared against the
// codec clock after the library validation, so an expired token never verifies.
func (c *TokenCodec) Verify(token string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if Expired(claims, c.now()) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expired reports whether claims carry no expiry or one that is not after now.
func Expired(claims *Claims, now time.Time) bool {
	return claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time)
}

func (c *TokenCodec) sign(customerID string, role model.Role, secret []byte, ttl time.Duration) (string, error) {
	now := c.now()
	claims := &Claims{
		CustomerID: customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying the authenticated claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}
