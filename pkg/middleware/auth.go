package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/pkg/jwtutil"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"go.uber.org/zap"
)

// ClaimsKey is the echo.Context key holding *jwtutil.OwnerClaims
const ClaimsKey = "owner"

// JWTAuthMiddleware creates a middleware that validates JWT tokens
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			}

			c.Set(ClaimsKey, claims)
			log.Debug("JWT token validated successfully",
				zap.Uint("business_owner_id", claims.BusinessOwnerID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// OwnerClaims returns the claims stored by JWTAuthMiddleware, if any
func OwnerClaims(c echo.Context) (*jwtutil.OwnerClaims, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwtutil.OwnerClaims)
	return claims, ok && claims != nil
}
