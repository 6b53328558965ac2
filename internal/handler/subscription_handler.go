package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/internal/subscription"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"github.com/suteetoe/commerce-directory/pkg/middleware"
	"go.uber.org/zap"
)

// requestDialog stands in for the payment dialog: the posted request is the
// user's input, so opening it records the payment right away.
type requestDialog struct {
	payments *subscription.PaymentService
	ownerID  uint
	req      model.PaymentRequest
}

func (d *requestDialog) Open(ctx context.Context, kind subscription.DialogKind, _ *model.Payment) (subscription.DialogResult, error) {
	var (
		payment *model.Payment
		err     error
	)
	switch kind {
	case subscription.DialogRenew:
		payment, err = d.payments.RenewPayment(ctx, d.ownerID, d.req)
	default:
		payment, err = d.payments.CreatePayment(ctx, d.ownerID, d.req)
	}
	if err != nil {
		return subscription.DialogResult{}, err
	}
	return subscription.DialogResult{Role: subscription.RoleConfirm, Payment: payment}, nil
}

type alertMessage struct {
	Header  string `json:"header"`
	Message string `json:"message"`
}

// alertRecorder collects alerts for the response body
type alertRecorder struct {
	mu     sync.Mutex
	alerts []alertMessage
}

func (r *alertRecorder) Alert(_ context.Context, header, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alertMessage{Header: header, Message: message})
}

func (r *alertRecorder) last() (alertMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.alerts) == 0 {
		return alertMessage{}, false
	}
	return r.alerts[len(r.alerts)-1], true
}

func (h *Handler) viewModel(c echo.Context, dialog subscription.Dialog, notifier subscription.Notifier) *subscription.ViewModel {
	claims, ok := middleware.OwnerClaims(c)
	return subscription.NewViewModel(subscription.Deps{
		Identity: subscription.IdentityFunc(func(context.Context) (uint, bool) {
			if !ok {
				return 0, false
			}
			return claims.BusinessOwnerID, true
		}),
		Payments: h.payments,
		Dialog:   dialog,
		Notifier: notifier,
		Logger:   logger.FromEcho(c),
	})
}

// GetSubscription returns the caller's latest payment and days remaining.
// An owner without payments gets an empty state.
func (h *Handler) GetSubscription(c echo.Context) error {
	log := logger.FromEcho(c)

	vm := h.viewModel(c, nil, nil)
	if err := vm.Initialize(c.Request().Context()); err != nil && !apperr.IsNotFound(err) {
		return respondError(c, log, "failed to load subscription", err)
	}
	return c.JSON(http.StatusOK, vm.State())
}

// CreateSubscription records a new payment for the caller
func (h *Handler) CreateSubscription(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.OwnerClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req model.PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse payment request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, log, "invalid payment request", err)
	}

	dialog := &requestDialog{payments: h.payments, ownerID: claims.BusinessOwnerID, req: req}
	vm := h.viewModel(c, dialog, &alertRecorder{})
	ctx := c.Request().Context()

	if err := vm.Initialize(ctx); err != nil && !apperr.IsNotFound(err) {
		return respondError(c, log, "failed to load subscription", err)
	}
	if err := vm.OpenCreateSubscription(ctx); err != nil {
		return respondError(c, log, "subscription creation failed", err)
	}
	return c.JSON(http.StatusCreated, vm.State())
}

// RenewSubscription records a renewal once the latest payment has expired.
// An early renewal answers 409 with the alert shown to the user.
func (h *Handler) RenewSubscription(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.OwnerClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req model.PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse payment request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, log, "invalid payment request", err)
	}

	alerts := &alertRecorder{}
	dialog := &requestDialog{payments: h.payments, ownerID: claims.BusinessOwnerID, req: req}
	vm := h.viewModel(c, dialog, alerts)
	ctx := c.Request().Context()

	if err := vm.Initialize(ctx); err != nil {
		return respondError(c, log, "failed to load subscription", err)
	}

	err := vm.OpenRenewSubscription(ctx)
	if errors.Is(err, subscription.ErrRenewalNotAllowed) {
		body := echo.Map{"error": err.Error()}
		if a, ok := alerts.last(); ok {
			body["alert"] = a
		}
		return c.JSON(http.StatusConflict, body)
	}
	if err != nil {
		return respondError(c, log, "subscription renewal failed", err)
	}
	return c.JSON(http.StatusOK, vm.State())
}
