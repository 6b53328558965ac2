package subscription

import (
	"context"
	"time"

	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/internal/store"
	"go.uber.org/zap"
)

// PaymentService records subscription payments and keeps the owner's fee
// flag in step with them.
type PaymentService struct {
	store store.Store
	now   func() time.Time
	log   *zap.Logger
}

func NewPaymentService(st store.Store, log *zap.Logger) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{store: st, now: time.Now, log: log}
}

// WithClock replaces the time source used for new payments and expiry checks
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

func (s *PaymentService) LatestPayment(ctx context.Context, ownerID uint) (*model.Payment, error) {
	return s.store.LatestPayment(ctx, ownerID)
}

// CreatePayment records a payment starting now and marks the owner as paid.
// An owner whose latest payment is still active gets ErrRenewalNotAllowed.
func (s *PaymentService) CreatePayment(ctx context.Context, ownerID uint, req model.PaymentRequest) (*model.Payment, error) {
	const op = "subscription.CreatePayment"

	latest, err := s.store.LatestPayment(ctx, ownerID)
	switch {
	case apperr.IsNotFound(err):
	case err != nil:
		return nil, err
	default:
		if err := s.checkExpired(op, ownerID, latest); err != nil {
			return nil, err
		}
	}
	return s.record(ctx, op, ownerID, req)
}

// RenewPayment records a new payment once the latest one has expired
func (s *PaymentService) RenewPayment(ctx context.Context, ownerID uint, req model.PaymentRequest) (*model.Payment, error) {
	const op = "subscription.RenewPayment"

	latest, err := s.store.LatestPayment(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.checkExpired(op, ownerID, latest); err != nil {
		return nil, err
	}
	return s.record(ctx, op, ownerID, req)
}

// checkExpired rejects replacing a payment before its expiry date
func (s *PaymentService) checkExpired(op string, ownerID uint, latest *model.Payment) error {
	if latest.Expired(s.now()) {
		return nil
	}
	s.log.Info("Payment replacement rejected before expiry",
		zap.String("operation", op),
		zap.Uint("business_owner_id", ownerID),
		zap.Time("expiry_date", latest.ExpiryDate))
	return &apperr.Error{Kind: ErrRenewalNotAllowed.Kind, Op: op, Msg: ErrRenewalNotAllowed.Msg}
}

func (s *PaymentService) record(ctx context.Context, op string, ownerID uint, req model.PaymentRequest) (*model.Payment, error) {
	payment, err := model.NewPayment(ownerID, req.Amount, req.DurationMonths, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		s.log.Error("Failed to store payment", zap.String("operation", op), zap.Uint("business_owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	if err := s.store.SetOwnerFeePaid(ctx, ownerID, true); err != nil {
		s.log.Error("Failed to mark owner fee as paid", zap.String("operation", op), zap.Uint("business_owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.log.Info("Payment recorded",
		zap.String("operation", op),
		zap.Uint("business_owner_id", ownerID),
		zap.Uint("payment_id", payment.ID),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.Time("expiry_date", payment.ExpiryDate))
	return payment, nil
}
