package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/pkg/logger"
)

func (h *Handler) ListVilles(c echo.Context) error {
	log := logger.FromEcho(c)

	villes, err := h.directory.ListAllVilles(c.Request().Context())
	if err != nil {
		return respondError(c, log, "failed to list villes", err)
	}
	return c.JSON(http.StatusOK, villes)
}

func (h *Handler) GetVilleName(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, "invalid ville ID", err)
	}
	name, err := h.directory.GetVilleName(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, "failed to get ville name", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "villename": name})
}

// ListVilleCommerces lists every commerce of a ville with its owner
func (h *Handler) ListVilleCommerces(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, "invalid ville ID", err)
	}
	commerces, err := h.directory.ListCommercesByVille(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, "failed to list ville commerces", err)
	}
	return c.JSON(http.StatusOK, commerces)
}

// ListVisibleVilleCommerces lists the fee-paid commerces of a ville
func (h *Handler) ListVisibleVilleCommerces(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, "invalid ville ID", err)
	}
	commerces, err := h.directory.ListVisibleCommercesByVille(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, "failed to list ville commerces", err)
	}
	return c.JSON(http.StatusOK, commerces)
}
