package subscription

import (
	"context"

	"github.com/suteetoe/commerce-directory/internal/model"
)

// IdentityResolver yields the business owner acting in ctx
type IdentityResolver interface {
	BusinessOwnerID(ctx context.Context) (uint, bool)
}

// IdentityFunc adapts a function to IdentityResolver
type IdentityFunc func(ctx context.Context) (uint, bool)

func (f IdentityFunc) BusinessOwnerID(ctx context.Context) (uint, bool) { return f(ctx) }

// PaymentSource looks up the latest payment of an owner
type PaymentSource interface {
	LatestPayment(ctx context.Context, ownerID uint) (*model.Payment, error)
}

// DialogKind names the dialog the view-model asks for
type DialogKind string

const (
	DialogCreate DialogKind = "create"
	DialogRenew  DialogKind = "renew"
)

// RoleConfirm is the dialog result role for accepted input
const RoleConfirm = "confirm"

// DialogResult is what a dismissed dialog reports. Only Role == RoleConfirm
// with a non-nil Payment counts as accepted.
type DialogResult struct {
	Role    string
	Payment *model.Payment
}

// Confirmed reports whether the dialog was accepted with a payment
func (r DialogResult) Confirmed() bool {
	return r.Role == RoleConfirm && r.Payment != nil
}

// Dialog presents a payment dialog and blocks until it is dismissed.
// seed is the payment being renewed, nil for creation.
type Dialog interface {
	Open(ctx context.Context, kind DialogKind, seed *model.Payment) (DialogResult, error)
}

// Notifier shows a blocking message to the user
type Notifier interface {
	Alert(ctx context.Context, header, message string)
}
