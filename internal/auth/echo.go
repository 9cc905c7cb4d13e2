package auth

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const contextKey = "user"

// Middleware rejects requests without a valid bearer token. Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted
// too.
func (i *Issuer) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    i.secret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    contextKey,
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
	})
}

// OptionalMiddleware lets guests through. A token that is present must
// still be valid.
func (i *Issuer) OptionalMiddleware() echo.MiddlewareFunc {
	strict := i.Middleware()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := strict(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return guarded(c)
		}
	}
}

func claimsFromContext(c echo.Context) *Claims {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil
	}
	claims, _ := token.Claims.(*Claims)
	return claims
}

func AdminFromContext(c echo.Context) (AdminSession, error) {
	return AdminFromClaims(claimsFromContext(c))
}

// CustomerFromContext returns the signed-in customer's id, or nil for a guest.
func CustomerFromContext(c echo.Context) *string {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role == RoleAdmin || claims.Subject == "" {
		return nil
	}
	id := claims.Subject
	return &id
}
