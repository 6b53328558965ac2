package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"go.uber.org/zap"
)

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		logger.FromEcho(c).Error("Store ping failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":  "unhealthy",
			"service": h.ServiceName,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": h.ServiceName,
	})
}
