package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"go.uber.org/zap"
)

// CommerceEvents streams the current commerce list as server-sent events.
// The last published list is sent first, then every later update.
func (h *Handler) CommerceEvents(c echo.Context) error {
	log := logger.FromEcho(c)

	updates, cancel := h.directory.Commerces()
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case commerces, open := <-updates:
			if !open {
				return nil
			}
			data, err := json.Marshal(commerces)
			if err != nil {
				log.Error("Failed to encode commerce list", zap.Error(err))
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: commerces\ndata: %s\n\n", data); err != nil {
				log.Debug("Event stream closed", zap.Error(err))
				return nil
			}
			res.Flush()
		}
	}
}
