package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/directory"
	"github.com/suteetoe/commerce-directory/internal/imagestore"
	"github.com/suteetoe/commerce-directory/internal/store"
	"github.com/suteetoe/commerce-directory/internal/subscription"
	"github.com/suteetoe/commerce-directory/pkg/jwtutil"
	"go.uber.org/zap"
)

// Handler serves the directory HTTP API
type Handler struct {
	ServiceName string

	directory *directory.Service
	payments  *subscription.PaymentService
	store     store.Store
	jwt       *jwtutil.JWTUtil
	images    imagestore.Store
}

func New(serviceName string, dir *directory.Service, payments *subscription.PaymentService, st store.Store, jwt *jwtutil.JWTUtil, images imagestore.Store) *Handler {
	if images == nil {
		images = imagestore.Disabled{}
	}
	return &Handler{
		ServiceName: serviceName,
		directory:   dir,
		payments:    payments,
		store:       st,
		jwt:         jwt,
		images:      images,
	}
}

// CustomValidator plugs go-playground/validator into echo
type CustomValidator struct {
	validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

func (v *CustomValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return &apperr.Error{Kind: apperr.KindValidationFailed, Op: "request", Msg: "invalid request", Err: err}
	}
	return nil
}

// statusFor maps an application error to an HTTP status
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidationFailed:
		if errors.Is(err, subscription.ErrRenewalNotAllowed) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindRemoteUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...} with the status matching err
func respondError(c echo.Context, log *zap.Logger, msg string, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
	} else {
		log.Warn(msg, zap.Error(err))
	}

	body := msg
	switch status {
	case http.StatusNotFound, http.StatusBadRequest, http.StatusConflict, http.StatusForbidden:
		body = err.Error()
	}
	return c.JSON(status, echo.Map{"error": body})
}

// paramID parses a positive uint path parameter
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("request", "invalid "+name)
	}
	return uint(id), nil
}
