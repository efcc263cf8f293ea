package auth

import (
	"log/slog"
	"slices"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "customerhub/internal/errors"
	"customerhub/internal/model"
)

// ContextKey is the echo context key holding the verified *Claims.
const ContextKey = "customer"

const (
	bearerPrefix         = "Bearer "
	msgForbiddenResource = "Forbidden resource"
)

// AccessGuard builds route middleware that authenticates bearer access tokens.
type AccessGuard struct {
	codec  *TokenCodec
	logger *slog.Logger
}

// NewAccessGuard creates an AccessGuard backed by codec.
func NewAccessGuard(codec *TokenCodec, logger *slog.Logger) *AccessGuard {
	return &AccessGuard{codec: codec, logger: logger}
}

// Require returns middleware that admits any authenticated customer, or only customers holding
// one of roles when roles are given.
func (g *AccessGuard) Require(roles ...model.Role) echo.MiddlewareFunc {
	authenticate := echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":" + bearerPrefix,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return g.codec.VerifyAccess(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			g.logger.DebugContext(c.Request().Context(), "access token rejected",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return apperrors.Unauthenticated()
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := authenticate(func(c echo.Context) error {
			claims, ok := c.Get(ContextKey).(*Claims)
			if !ok {
				return apperrors.Unauthenticated()
			}
			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				return apperrors.Forbidden(msgForbiddenResource)
			}

			c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
			return next(c)
		})

		return func(c echo.Context) error {
			// echo-jwt compares the scheme case-insensitively; only "Bearer" is accepted.
			if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), bearerPrefix) {
				return apperrors.Unauthenticated()
			}
			return h(c)
		}
	}
}

// CustomerClaims returns the claims stored by AccessGuard, if any.
func CustomerClaims(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(ContextKey).(*Claims)
	return claims, ok
}
