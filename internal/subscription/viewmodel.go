package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/prometheus"
	"go.uber.org/zap"
)

// Alert shown when a renewal is attempted before the current payment expires
const (
	RenewalNotAllowedHeader  = "Payment Renewal Not Allowed"
	RenewalNotAllowedMessage = "You cannot renew your payment before the expiry date."
)

// ErrRenewalNotAllowed is returned when the latest payment has not expired yet
var ErrRenewalNotAllowed = apperr.Validation("", "renewal not allowed before expiry date")

// PaymentForm mirrors the editable fields of the latest payment
type PaymentForm struct {
	Amount         decimal.Decimal `json:"amount"`
	DurationMonths int             `json:"duration_months"`
	PaymentDate    time.Time       `json:"payment_date"`
	ExpiryDate     time.Time       `json:"expiry_date"`
}

// State is a snapshot of the view-model
type State struct {
	Payment       *PaymentForm `json:"payment,omitempty"`
	DaysRemaining int          `json:"days_remaining"`
	HasPayment    bool         `json:"has_payment"`
}

// Deps wires the view-model to its collaborators
type Deps struct {
	Identity IdentityResolver
	Payments PaymentSource
	Dialog   Dialog
	Notifier Notifier
	// Clock defaults to time.Now
	Clock  func() time.Time
	Logger *zap.Logger
	// OnChange is called with the new state after every applied change
	OnChange func(State)
}

// ViewModel holds a business owner's current subscription
type ViewModel struct {
	deps Deps

	mu      sync.Mutex
	payment *model.Payment
	days    int
}

func NewViewModel(deps Deps) *ViewModel {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ViewModel{deps: deps}
}

// Initialize loads the latest payment of the current owner. On any failure
// the error is logged and returned and the state is left empty.
func (vm *ViewModel) Initialize(ctx context.Context) error {
	const op = "subscription.Initialize"
	log := vm.deps.Logger

	ownerID, ok := vm.deps.Identity.BusinessOwnerID(ctx)
	if !ok {
		vm.reset()
		log.Warn("Business owner identity could not be resolved")
		return apperr.Unauthorized(op, "business owner identity is not available")
	}

	payment, err := vm.deps.Payments.LatestPayment(ctx, ownerID)
	if err != nil {
		vm.reset()
		if apperr.IsNotFound(err) {
			log.Info("No payment found for business owner", zap.Uint("business_owner_id", ownerID))
		} else {
			log.Error("Failed to fetch latest payment", zap.Uint("business_owner_id", ownerID), zap.Error(err))
		}
		return err
	}

	vm.apply(payment)
	return nil
}

// ComputeDaysRemaining recomputes the days left on the current payment.
// It is 0 when there is no payment.
func (vm *ViewModel) ComputeDaysRemaining() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.days = vm.daysLocked()
	return vm.days
}

// OpenCreateSubscription opens the create dialog. A confirmed payment
// replaces the current one; a dismissal leaves the state unchanged.
func (vm *ViewModel) OpenCreateSubscription(ctx context.Context) error {
	result, err := vm.deps.Dialog.Open(ctx, DialogCreate, nil)
	if err != nil {
		vm.deps.Logger.Error("Create subscription dialog failed", zap.Error(err))
		return err
	}
	if !result.Confirmed() {
		prometheus.SubscriptionCounter.WithLabelValues("dismissed").Inc()
		return nil
	}

	prometheus.SubscriptionCounter.WithLabelValues("created").Inc()
	vm.apply(result.Payment)
	return nil
}

// OpenRenewSubscription opens the renew dialog seeded with the current
// payment. Renewal is only allowed strictly after the expiry date; before
// that the user is alerted and ErrRenewalNotAllowed is returned.
func (vm *ViewModel) OpenRenewSubscription(ctx context.Context) error {
	const op = "subscription.OpenRenewSubscription"

	vm.mu.Lock()
	current := vm.payment
	now := vm.deps.Clock()
	vm.mu.Unlock()

	if current == nil {
		vm.deps.Logger.Warn("Renewal requested without a current payment")
		return apperr.NotFound(op, "no payment to renew")
	}
	if !current.Expired(now) {
		prometheus.SubscriptionCounter.WithLabelValues("renewal_rejected").Inc()
		vm.deps.Logger.Info("Renewal rejected before expiry",
			zap.Uint("payment_id", current.ID),
			zap.Time("expiry_date", current.ExpiryDate))
		vm.deps.Notifier.Alert(ctx, RenewalNotAllowedHeader, RenewalNotAllowedMessage)
		return &apperr.Error{Kind: ErrRenewalNotAllowed.Kind, Op: op, Msg: ErrRenewalNotAllowed.Msg}
	}

	seed := *current
	result, err := vm.deps.Dialog.Open(ctx, DialogRenew, &seed)
	if err != nil {
		vm.deps.Logger.Error("Renew subscription dialog failed", zap.Error(err))
		return err
	}
	if !result.Confirmed() {
		prometheus.SubscriptionCounter.WithLabelValues("dismissed").Inc()
		return nil
	}

	prometheus.SubscriptionCounter.WithLabelValues("renewed").Inc()
	vm.apply(result.Payment)
	return nil
}

// State returns a snapshot of the current subscription
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stateLocked()
}

func (vm *ViewModel) apply(p *model.Payment) {
	vm.mu.Lock()
	copied := *p
	vm.payment = &copied
	vm.days = vm.daysLocked()
	state := vm.stateLocked()
	vm.mu.Unlock()

	if vm.deps.OnChange != nil {
		vm.deps.OnChange(state)
	}
}

func (vm *ViewModel) reset() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.payment = nil
	vm.days = 0
}

func (vm *ViewModel) daysLocked() int {
	if vm.payment == nil {
		return 0
	}
	return DaysRemaining(vm.payment.ExpiryDate, vm.deps.Clock())
}

func (vm *ViewModel) stateLocked() State {
	if vm.payment == nil {
		return State{}
	}
	return State{
		Payment: &PaymentForm{
			Amount:         vm.payment.Amount,
			DurationMonths: vm.payment.DurationMonths,
			PaymentDate:    vm.payment.PaymentDate,
			ExpiryDate:     vm.payment.ExpiryDate,
		},
		DaysRemaining: vm.days,
		HasPayment:    true,
	}
}
