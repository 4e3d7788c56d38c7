package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/roles"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const claimsContextKey = "claims"

// JWTAuthMiddleware checks for a valid JWT and extracts user claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}
			tokenString := parts[1]

			jwtSecret := secret
			if jwtSecret == "" {
				jwtSecret = os.Getenv("JWT_SECRET")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				if err == jwt.ErrSignatureInvalid {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			if !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			if !claims.Role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unknown role")
			}

			// Store user claims in context
			c.Set(claimsContextKey, claims)

			return next(c)
		}
	}
}

// CurrentClaims returns the authenticated caller's claims, or nil when the
// request did not pass through JWTAuthMiddleware.
func CurrentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(claimsContextKey).(*models.JwtCustomClaims)
	return claims
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentClaims(c)
			if claims == nil || claims.Role != roles.Admin {
				return echo.NewHTTPError(http.StatusForbidden, "Administrator access required")
			}
			return next(c)
		}
	}
}
