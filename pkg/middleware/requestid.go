package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"go.uber.org/zap"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(logger.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				c.Request().Header.Set(logger.RequestIDHeader, requestID)
			}

			c.Response().Header().Set(logger.RequestIDHeader, requestID)

			logger.SetEcho(c, logger.GetLogger().With(zap.String("request_id", requestID)))

			return next(c)
		}
	}
}
