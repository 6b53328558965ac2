package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/internal/store"
	"go.uber.org/zap/zaptest"
)

var base = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeDialog struct {
	opened []DialogKind
	seeds  []*model.Payment
	result func(kind DialogKind, seed *model.Payment) (DialogResult, error)
}

func (d *fakeDialog) Open(_ context.Context, kind DialogKind, seed *model.Payment) (DialogResult, error) {
	d.opened = append(d.opened, kind)
	d.seeds = append(d.seeds, seed)
	if d.result == nil {
		return DialogResult{Role: "cancel"}, nil
	}
	return d.result(kind, seed)
}

type alert struct{ header, message string }

type fakeNotifier struct{ alerts []alert }

func (n *fakeNotifier) Alert(_ context.Context, header, message string) {
	n.alerts = append(n.alerts, alert{header, message})
}

type fakePayments struct {
	payment *model.Payment
	err     error
}

func (f *fakePayments) LatestPayment(context.Context, uint) (*model.Payment, error) {
	return f.payment, f.err
}

func owner(id uint) IdentityFunc {
	return func(context.Context) (uint, bool) { return id, id != 0 }
}

func TestDaysRemaining(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"two days three hours rounds up", 51 * time.Hour, 3},
		{"exactly two days", 48 * time.Hour, 2},
		{"one nanosecond", time.Nanosecond, 1},
		{"now", 0, 0},
		{"one hour ago", -time.Hour, 0},
		{"twenty five hours ago", -25 * time.Hour, -1},
		{"thirty days", 30 * 24 * time.Hour, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysRemaining(base.Add(tt.offset), base))
		})
	}
}

func TestInitialize(t *testing.T) {
	payment := &model.Payment{
		ID: 1, Amount: decimal.NewFromInt(30), DurationMonths: 1,
		PaymentDate: base, ExpiryDate: base.Add(51 * time.Hour),
	}
	clock := &fakeClock{now: base}

	t.Run("no identity", func(t *testing.T) {
		vm := NewViewModel(Deps{Identity: owner(0), Payments: &fakePayments{payment: payment}, Clock: clock.Now, Logger: zaptest.NewLogger(t)})
		err := vm.Initialize(context.Background())
		assert.True(t, apperr.IsUnauthorized(err))
		assert.Equal(t, State{}, vm.State())
	})

	t.Run("no payment", func(t *testing.T) {
		vm := NewViewModel(Deps{
			Identity: owner(1),
			Payments: &fakePayments{err: apperr.NotFound("store.LatestPayment", "payment not found")},
			Clock:    clock.Now,
		})
		err := vm.Initialize(context.Background())
		assert.True(t, apperr.IsNotFound(err))
		assert.False(t, vm.State().HasPayment)
		assert.Zero(t, vm.ComputeDaysRemaining())
	})

	t.Run("lookup failure leaves state empty", func(t *testing.T) {
		src := &fakePayments{payment: payment}
		vm := NewViewModel(Deps{Identity: owner(1), Payments: src, Clock: clock.Now})
		require.NoError(t, vm.Initialize(context.Background()))
		require.True(t, vm.State().HasPayment)

		src.payment, src.err = nil, apperr.RemoteUnavailable("store.LatestPayment", errors.New("down"))
		err := vm.Initialize(context.Background())
		assert.True(t, apperr.IsRemoteUnavailable(err))
		assert.Equal(t, State{}, vm.State())
	})

	t.Run("populates form", func(t *testing.T) {
		var changes []State
		vm := NewViewModel(Deps{
			Identity: owner(1),
			Payments: &fakePayments{payment: payment},
			Clock:    clock.Now,
			OnChange: func(s State) { changes = append(changes, s) },
		})
		require.NoError(t, vm.Initialize(context.Background()))

		st := vm.State()
		require.True(t, st.HasPayment)
		assert.Equal(t, 3, st.DaysRemaining)
		assert.Equal(t, 1, st.Payment.DurationMonths)
		assert.True(t, decimal.NewFromInt(30).Equal(st.Payment.Amount))
		assert.Equal(t, payment.ExpiryDate, st.Payment.ExpiryDate)
		assert.Len(t, changes, 1)
	})
}

func TestOpenCreateSubscription(t *testing.T) {
	clock := &fakeClock{now: base}
	dialog := &fakeDialog{}
	vm := NewViewModel(Deps{Identity: owner(1), Payments: &fakePayments{}, Dialog: dialog, Clock: clock.Now})

	require.NoError(t, vm.OpenCreateSubscription(context.Background()))
	assert.False(t, vm.State().HasPayment, "dismissal keeps state")

	// confirm without data is not an acceptance
	dialog.result = func(DialogKind, *model.Payment) (DialogResult, error) {
		return DialogResult{Role: RoleConfirm}, nil
	}
	require.NoError(t, vm.OpenCreateSubscription(context.Background()))
	assert.False(t, vm.State().HasPayment)

	created := &model.Payment{ID: 5, Amount: decimal.NewFromInt(10), DurationMonths: 2, PaymentDate: base, ExpiryDate: base.AddDate(0, 2, 0)}
	dialog.result = func(kind DialogKind, seed *model.Payment) (DialogResult, error) {
		assert.Equal(t, DialogCreate, kind)
		assert.Nil(t, seed)
		return DialogResult{Role: RoleConfirm, Payment: created}, nil
	}
	require.NoError(t, vm.OpenCreateSubscription(context.Background()))
	st := vm.State()
	assert.True(t, st.HasPayment)
	assert.Equal(t, DaysRemaining(created.ExpiryDate, base), st.DaysRemaining)

	boom := errors.New("dialog crashed")
	dialog.result = func(DialogKind, *model.Payment) (DialogResult, error) { return DialogResult{}, boom }
	assert.ErrorIs(t, vm.OpenCreateSubscription(context.Background()), boom)
	assert.Equal(t, st, vm.State())
}

func TestRenewalGating(t *testing.T) {
	expiry := base.Add(10 * 24 * time.Hour)
	payment := &model.Payment{ID: 1, Amount: decimal.NewFromInt(30), DurationMonths: 1, PaymentDate: base, ExpiryDate: expiry}

	tests := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{"well before expiry", base, false},
		{"exactly at expiry", expiry, false},
		{"just after expiry", expiry.Add(time.Nanosecond), true},
		{"long after expiry", expiry.AddDate(0, 1, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: tt.now}
			notifier := &fakeNotifier{}
			dialog := &fakeDialog{}
			vm := NewViewModel(Deps{
				Identity: owner(1),
				Payments: &fakePayments{payment: payment},
				Dialog:   dialog,
				Notifier: notifier,
				Clock:    clock.Now,
			})
			require.NoError(t, vm.Initialize(context.Background()))
			before := vm.State()

			err := vm.OpenRenewSubscription(context.Background())
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, []DialogKind{DialogRenew}, dialog.opened)
				require.NotNil(t, dialog.seeds[0])
				assert.Equal(t, payment.ID, dialog.seeds[0].ID)
				assert.Empty(t, notifier.alerts)
				return
			}
			assert.ErrorIs(t, err, ErrRenewalNotAllowed)
			assert.True(t, apperr.IsValidation(err))
			assert.Empty(t, dialog.opened)
			assert.Equal(t, []alert{{RenewalNotAllowedHeader, RenewalNotAllowedMessage}}, notifier.alerts)
			assert.Equal(t, before, vm.State())
		})
	}
}

func TestRenewWithoutPayment(t *testing.T) {
	notifier := &fakeNotifier{}
	dialog := &fakeDialog{}
	vm := NewViewModel(Deps{Identity: owner(1), Payments: &fakePayments{}, Dialog: dialog, Notifier: notifier})

	err := vm.OpenRenewSubscription(context.Background())
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, dialog.opened)
	assert.Empty(t, notifier.alerts)
}

// requestDialog confirms with a fixed request by calling the payment service
type requestDialog struct {
	svc     *PaymentService
	ownerID uint
	req     model.PaymentRequest
	opened  int
}

func (d *requestDialog) Open(ctx context.Context, kind DialogKind, _ *model.Payment) (DialogResult, error) {
	d.opened++
	var (
		p   *model.Payment
		err error
	)
	if kind == DialogRenew {
		p, err = d.svc.RenewPayment(ctx, d.ownerID, d.req)
	} else {
		p, err = d.svc.CreatePayment(ctx, d.ownerID, d.req)
	}
	if err != nil {
		return DialogResult{}, err
	}
	return DialogResult{Role: RoleConfirm, Payment: p}, nil
}

func TestSubscriptionEndToEnd(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := &model.BusinessOwner{Email: "owner@example.com"}
	require.NoError(t, st.CreateOwner(ctx, o))

	clock := &fakeClock{now: base}
	svc := NewPaymentService(st, zaptest.NewLogger(t)).WithClock(clock.Now)

	// a 30-day payment recorded directly
	p, err := model.NewPayment(o.ID, decimal.NewFromInt(30), 1, base)
	require.NoError(t, err)
	p.ExpiryDate = base.Add(30 * 24 * time.Hour)
	require.NoError(t, st.CreatePayment(ctx, p))

	dialog := &requestDialog{svc: svc, ownerID: o.ID, req: model.PaymentRequest{Amount: decimal.NewFromInt(90), DurationMonths: 3}}
	notifier := &fakeNotifier{}
	refreshed := 0
	vm := NewViewModel(Deps{
		Identity: owner(o.ID),
		Payments: svc,
		Dialog:   dialog,
		Notifier: notifier,
		Clock:    clock.Now,
		Logger:   zaptest.NewLogger(t),
		OnChange: func(State) { refreshed++ },
	})

	require.NoError(t, vm.Initialize(ctx))
	assert.Equal(t, 30, vm.State().DaysRemaining)

	err = vm.OpenRenewSubscription(ctx)
	assert.ErrorIs(t, err, ErrRenewalNotAllowed)
	assert.Len(t, notifier.alerts, 1)
	assert.Zero(t, dialog.opened)

	clock.now = p.ExpiryDate.Add(time.Minute)
	before := refreshed
	require.NoError(t, vm.OpenRenewSubscription(ctx))
	assert.Equal(t, 1, dialog.opened)
	assert.Equal(t, before+1, refreshed)

	st2 := vm.State()
	require.True(t, st2.HasPayment)
	assert.Equal(t, 3, st2.Payment.DurationMonths)
	assert.Equal(t, clock.now.AddDate(0, 3, 0), st2.Payment.ExpiryDate)
	assert.Equal(t, DaysRemaining(st2.Payment.ExpiryDate, clock.now), st2.DaysRemaining)

	stored, err := st.GetOwner(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.MonthlyFeePaid)

	latest, err := svc.LatestPayment(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, st2.Payment.ExpiryDate, latest.ExpiryDate)
}

func TestPaymentServiceRenewRechecksExpiry(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := &model.BusinessOwner{Email: "owner@example.com"}
	require.NoError(t, st.CreateOwner(ctx, o))

	clock := &fakeClock{now: base}
	svc := NewPaymentService(st, nil).WithClock(clock.Now)
	req := model.PaymentRequest{Amount: decimal.NewFromInt(25), DurationMonths: 1}

	_, err := svc.RenewPayment(ctx, o.ID, req)
	assert.True(t, apperr.IsNotFound(err))

	first, err := svc.CreatePayment(ctx, o.ID, req)
	require.NoError(t, err)

	_, err = svc.RenewPayment(ctx, o.ID, req)
	assert.ErrorIs(t, err, ErrRenewalNotAllowed)

	clock.now = first.ExpiryDate.Add(time.Second)
	renewed, err := svc.RenewPayment(ctx, o.ID, req)
	require.NoError(t, err)
	assert.Equal(t, clock.now, renewed.PaymentDate)

	clock.now = renewed.ExpiryDate.Add(time.Second)
	_, err = svc.CreatePayment(ctx, o.ID, model.PaymentRequest{Amount: decimal.Zero, DurationMonths: 1})
	assert.True(t, apperr.IsValidation(err))
	assert.NotErrorIs(t, err, ErrRenewalNotAllowed)
}

func TestPaymentServiceCreateRejectsActivePayment(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	o := &model.BusinessOwner{Email: "owner@example.com"}
	require.NoError(t, st.CreateOwner(ctx, o))

	clock := &fakeClock{now: base}
	svc := NewPaymentService(st, zaptest.NewLogger(t)).WithClock(clock.Now)
	req := model.PaymentRequest{Amount: decimal.NewFromInt(25), DurationMonths: 1}

	first, err := svc.CreatePayment(ctx, o.ID, req)
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{"a day later", base.Add(24 * time.Hour), false},
		{"exactly at expiry", first.ExpiryDate, false},
		{"after expiry", first.ExpiryDate.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = tt.now
			p, err := svc.CreatePayment(ctx, o.ID, req)
			if !tt.allowed {
				assert.ErrorIs(t, err, ErrRenewalNotAllowed)
				latest, err := svc.LatestPayment(ctx, o.ID)
				require.NoError(t, err)
				assert.Equal(t, first.ID, latest.ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.now, p.PaymentDate)
		})
	}
}
