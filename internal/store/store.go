package store

import (
	"context"
	"time"

	"github.com/suteetoe/commerce-directory/internal/model"
)

// CommerceQuery filters a commerce listing. Zero values mean "no filter".
type CommerceQuery struct {
	OwnerID uint
	VilleID uint
	// Search matches commercename or services, case-insensitive substring
	Search string
	// FeePaidOnly keeps commerces whose owner has monthly_fee_paid set
	FeePaidOnly bool
	// WithOwner embeds the owning BusinessOwner
	WithOwner bool
	// WithVille embeds the Ville and fills VilleName
	WithVille bool
}

// Store is the remote data store used by the directory and subscription
// services. Listings are ordered by commercename ascending.
type Store interface {
	GetOwner(ctx context.Context, id uint) (*model.BusinessOwner, error)
	GetOwnerByEmail(ctx context.Context, email string) (*model.BusinessOwner, error)
	CreateOwner(ctx context.Context, owner *model.BusinessOwner) error
	SetOwnerFeePaid(ctx context.Context, id uint, paid bool) error
	// ExpireLapsedOwners clears monthly_fee_paid for owners whose latest
	// payment expired before now and returns how many were changed.
	ExpireLapsedOwners(ctx context.Context, now time.Time) (int64, error)

	GetCommerce(ctx context.Context, id uint) (*model.Commerce, error)
	ListCommerces(ctx context.Context, q CommerceQuery) ([]model.Commerce, error)
	CreateCommerce(ctx context.Context, c *model.Commerce) error
	UpdateCommerce(ctx context.Context, u model.CommerceUpdate) error
	SetCommerceImage(ctx context.Context, id uint, image string) error
	DeleteCommerce(ctx context.Context, id uint) error

	ListVilles(ctx context.Context) ([]model.Ville, error)
	GetVille(ctx context.Context, id uint) (*model.Ville, error)
	CreateVille(ctx context.Context, v *model.Ville) error

	LatestPayment(ctx context.Context, ownerID uint) (*model.Payment, error)
	CreatePayment(ctx context.Context, p *model.Payment) error

	Ping(ctx context.Context) error
	Close() error
}
