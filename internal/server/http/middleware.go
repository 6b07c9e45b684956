package http

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"schoolmedia/internal/server/auth"
)

// jwtMiddleware validates the Bearer token on every request the skipper does
// not exempt and stores the parsed claims in the request context.
func jwtMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:    skipper,
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
	})
}

// currentUserName extracts the authenticated admin's name from the request
// context. Empty when the route was exempted from auth.
func currentUserName(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return ""
	}
	return claims.UserName
}
