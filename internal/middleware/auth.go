package middleware

import (
	"net/http"
	"strings"

	"marketplace-checkout/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// dev-mode identity when no JWT secret is configured
const devUserID = "demo-user-001"
const devUserEmail = "demo@example.com"

// AuthMiddleware resolves the caller from a bearer token and makes sure a
// user row exists, so downstream code can always load the user. With no
// secret configured every request runs as a fixed demo user.
func AuthMiddleware(secret string, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, email := devUserID, devUserEmail

			if secret != "" {
				tokenString := bearerToken(c)
				if tokenString == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
				}

				claims := jwt.MapClaims{}
				token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(secret), nil
				})
				if err != nil || !token.Valid {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}

				sub, err := claims.GetSubject()
				if err != nil || sub == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				userID = sub
				email, _ = claims["email"].(string)
			}

			if _, err := users.FindOrCreate(c.Request().Context(), userID, email); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "auth failed")
			}

			c.Set("user_id", userID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// UserID pulls the authenticated user out of the request context.
func UserID(c echo.Context) string {
	userID, _ := c.Get("user_id").(string)
	return userID
}
