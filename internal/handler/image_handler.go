package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"go.uber.org/zap"
)

const maxImageSize = 5 << 20

// UploadCommerceImage stores the multipart "image" file and saves its key on the commerce
func (h *Handler) UploadCommerceImage(c echo.Context) error {
	log := logger.FromEcho(c)

	commerce, err := h.ownedCommerce(c)
	if err != nil {
		return respondError(c, log, "image upload failed", err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		log.Warn("Missing image file", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}
	if file.Size > maxImageSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image is too large"})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded image", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image file"})
	}
	defer src.Close()

	ctx := c.Request().Context()
	key, err := h.images.Upload(ctx, commerce.ID, file.Filename, src, file.Size)
	if err != nil {
		return respondError(c, log, "image upload failed", err)
	}
	if err := h.directory.SetCommerceImage(ctx, commerce.ID, key); err != nil {
		if delErr := h.images.Delete(ctx, key); delErr != nil {
			log.Warn("Failed to remove orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		return respondError(c, log, "image upload failed", err)
	}
	if previous := commerce.ImageCommerce; previous != "" && previous != key {
		if err := h.images.Delete(ctx, previous); err != nil {
			log.Warn("Failed to remove replaced image", zap.String("key", previous), zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"id": commerce.ID, "image_commerce": key})
}
