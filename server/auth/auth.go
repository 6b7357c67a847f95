// Package auth issues and verifies the bearer tokens that identify quiz
// users. Tokens are HS256-signed JWTs whose subject is the numeric user id.
package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// Issuer is the iss claim stamped on every token.
	Issuer = "quizdeck"
	// DefaultAccessTokenDuration is the default token lifetime.
	DefaultAccessTokenDuration = 7 * 24 * time.Hour

	// userIDContextKey is where the middleware stores the authenticated
	// user id on the echo context.
	userIDContextKey = "quizdeck.user-id"
)

// GenerateAccessToken signs a token for the given user.
func GenerateAccessToken(userID int32, secret string, duration time.Duration) (string, error) {
	if duration == 0 {
		duration = DefaultAccessTokenDuration
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   strconv.FormatInt(int64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies a token and returns the user id it identifies.
func Authenticate(tokenString, secret string) (int32, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject %q", claims.Subject)
	}
	return int32(userID), nil
}

// Middleware returns an echo middleware that requires a valid bearer token
// and stores the user id on the request context.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			userID, err := Authenticate(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid bearer token")
			}
			c.Set(userIDContextKey, userID)
			return next(c)
		}
	}
}

// UserIDFrom returns the authenticated user id stored by Middleware.
func UserIDFrom(c echo.Context) (int32, bool) {
	userID, ok := c.Get(userIDContextKey).(int32)
	return userID, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
