package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/directory"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"github.com/suteetoe/commerce-directory/pkg/middleware"
	"go.uber.org/zap"
)

type commerceRequest struct {
	Commercename  string `json:"commercename"`
	Services      string `json:"services"`
	ImageCommerce string `json:"image_commerce"`
	VilleID       uint   `json:"ville_id"`
}

type selectRequest struct {
	ID uint `json:"id"`
}

// ListVisibleCommerces lists the commerces of fee-paid owners. With ?q= the
// list is filtered and published to subscribers.
func (h *Handler) ListVisibleCommerces(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var (
		commerces []model.Commerce
		err       error
	)
	if c.QueryParams().Has("q") {
		commerces, err = h.directory.SearchVisibleCommerces(ctx, c.QueryParam("q"))
	} else {
		commerces, err = h.directory.ListAllVisibleCommerces(ctx)
	}
	if err != nil {
		return respondError(c, log, "failed to list commerces", err)
	}
	return c.JSON(http.StatusOK, commerces)
}

// SearchCommerces searches every commerce regardless of the fee gate
func (h *Handler) SearchCommerces(c echo.Context) error {
	log := logger.FromEcho(c)

	commerces, err := h.directory.SearchCommerces(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return respondError(c, log, "failed to search commerces", err)
	}
	return c.JSON(http.StatusOK, commerces)
}

// FetchCommerces returns every commerce and publishes the list
func (h *Handler) FetchCommerces(c echo.Context) error {
	log := logger.FromEcho(c)

	commerces, err := h.directory.FetchCommerces(c.Request().Context())
	if err != nil {
		return respondError(c, log, "failed to fetch commerces", err)
	}
	return c.JSON(http.StatusOK, commerces)
}

// ListVisibleVilles returns the distinct villes of the visible commerces
func (h *Handler) ListVisibleVilles(c echo.Context) error {
	log := logger.FromEcho(c)

	commerces, err := h.directory.ListAllVisibleCommerces(c.Request().Context())
	if err != nil {
		return respondError(c, log, "failed to list villes", err)
	}
	return c.JSON(http.StatusOK, directory.DeriveVillesFromCommerces(commerces))
}

func (h *Handler) GetCommerce(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, "invalid commerce ID", err)
	}
	commerce, err := h.directory.GetCommerceByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, "failed to get commerce", err)
	}
	return c.JSON(http.StatusOK, commerce)
}

// ListOwnerCommerces lists an owner's commerces, empty while the fee is unpaid
func (h *Handler) ListOwnerCommerces(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, "invalid business owner ID", err)
	}
	commerces, err := h.directory.ListVisibleCommercesForOwner(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, "failed to list owner commerces", err)
	}
	return c.JSON(http.StatusOK, commerces)
}

// CreateCommerce creates a commerce owned by the authenticated business owner
func (h *Handler) CreateCommerce(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.OwnerClaims(c)
	if !ok {
		log.Error("Failed to get owner claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req commerceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse commerce creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	commerce, err := h.directory.CreateCommerce(c.Request().Context(), model.CommerceInput{
		Commercename:    req.Commercename,
		Services:        req.Services,
		ImageCommerce:   req.ImageCommerce,
		VilleID:         req.VilleID,
		BusinessOwnerID: claims.BusinessOwnerID,
	})
	if err != nil {
		return respondError(c, log, "commerce creation failed", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Commerce created successfully",
		"commerce": commerce,
	})
}

// UpdateCommerce updates a commerce of the authenticated business owner
func (h *Handler) UpdateCommerce(c echo.Context) error {
	log := logger.FromEcho(c)

	commerce, err := h.ownedCommerce(c)
	if err != nil {
		return respondError(c, log, "commerce update failed", err)
	}

	var req commerceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse commerce update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	err = h.directory.UpdateCommerce(c.Request().Context(), model.CommerceUpdate{
		ID:            commerce.ID,
		Commercename:  req.Commercename,
		Services:      req.Services,
		ImageCommerce: req.ImageCommerce,
		VilleID:       req.VilleID,
	})
	if err != nil {
		return respondError(c, log, "commerce update failed", err)
	}

	updated, err := h.directory.GetCommerceByID(c.Request().Context(), commerce.ID)
	if err != nil {
		return respondError(c, log, "commerce update failed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteCommerce deletes a commerce of the authenticated business owner
func (h *Handler) DeleteCommerce(c echo.Context) error {
	log := logger.FromEcho(c)

	commerce, err := h.ownedCommerce(c)
	if err != nil {
		return respondError(c, log, "commerce deletion failed", err)
	}
	if err := h.directory.DeleteCommerce(c.Request().Context(), commerce.ID); err != nil {
		return respondError(c, log, "commerce deletion failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Commerce deleted successfully"})
}

// GetSelectedCommerce returns the currently selected commerce. The selection
// lives in the directory service, so it is shared by every client of the process.
func (h *Handler) GetSelectedCommerce(c echo.Context) error {
	commerce, ok := h.directory.CurrentClickedCommerce()
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no commerce selected"})
	}
	return c.JSON(http.StatusOK, commerce)
}

// SelectCommerce publishes the selected commerce to every subscriber of the
// server-wide selection; id 0 clears it
func (h *Handler) SelectCommerce(c echo.Context) error {
	log := logger.FromEcho(c)

	var req selectRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse selection request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ID == 0 {
		h.directory.SetClickedCommerce(nil)
		return c.NoContent(http.StatusNoContent)
	}

	commerce, err := h.directory.GetCommerceByID(c.Request().Context(), req.ID)
	if err != nil {
		return respondError(c, log, "failed to select commerce", err)
	}
	h.directory.SetClickedCommerce(commerce)
	return c.JSON(http.StatusOK, commerce)
}

// ownedCommerce loads the :id commerce and checks it belongs to the caller
func (h *Handler) ownedCommerce(c echo.Context) (*model.Commerce, error) {
	const op = "handler.ownedCommerce"

	claims, ok := middleware.OwnerClaims(c)
	if !ok {
		return nil, apperr.Unauthorized(op, "authentication required")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	commerce, err := h.directory.GetCommerceByID(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if commerce.BusinessOwnerID != claims.BusinessOwnerID {
		logger.FromEcho(c).Warn("Unauthorized commerce access attempt",
			zap.Uint("requesting_owner_id", claims.BusinessOwnerID),
			zap.Uint("commerce_owner_id", commerce.BusinessOwnerID))
		return nil, apperr.Unauthorized(op, "access denied")
	}
	return commerce, nil
}
