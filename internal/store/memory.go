package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/prometheus"
)

// MemoryStore keeps every table in process memory. It mirrors GormStore
// semantics and backs tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	owners    map[uint]model.BusinessOwner
	commerces map[uint]model.Commerce
	villes    map[uint]model.Ville
	payments  map[uint]model.Payment
	seq       struct{ owner, commerce, ville, payment uint }
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		owners:    make(map[uint]model.BusinessOwner),
		commerces: make(map[uint]model.Commerce),
		villes:    make(map[uint]model.Ville),
		payments:  make(map[uint]model.Payment),
	}
}

func (s *MemoryStore) GetOwner(ctx context.Context, id uint) (*model.BusinessOwner, error) {
	defer prometheus.TrackStoreOperation("get_owner")()
	if err := ctx.Err(); err != nil {
		return nil, apperr.RemoteUnavailable("store.GetOwner", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[id]
	if !ok {
		return nil, apperr.NotFound("store.GetOwner", "business owner not found")
	}
	return &owner, nil
}

func (s *MemoryStore) GetOwnerByEmail(ctx context.Context, email string) (*model.BusinessOwner, error) {
	defer prometheus.TrackStoreOperation("get_owner_by_email")()
	if err := ctx.Err(); err != nil {
		return nil, apperr.RemoteUnavailable("store.GetOwnerByEmail", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, owner := range s.owners {
		if owner.Email == email {
			o := owner
			return &o, nil
		}
	}
	return nil, apperr.NotFound("store.GetOwnerByEmail", "business owner not found")
}

func (s *MemoryStore) CreateOwner(ctx context.Context, owner *model.BusinessOwner) error {
	defer prometheus.TrackStoreOperation("create_owner")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.CreateOwner", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.owners {
		if existing.Email == owner.Email {
			return apperr.Validation("store.CreateOwner", "already exists")
		}
	}
	s.seq.owner++
	owner.ID = s.seq.owner
	owner.CreatedAt = s.now()
	owner.UpdatedAt = owner.CreatedAt
	s.owners[owner.ID] = *owner
	return nil
}

func (s *MemoryStore) SetOwnerFeePaid(ctx context.Context, id uint, paid bool) error {
	defer prometheus.TrackStoreOperation("set_owner_fee_paid")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.SetOwnerFeePaid", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[id]
	if !ok {
		return apperr.NotFound("store.SetOwnerFeePaid", "business owner not found")
	}
	owner.MonthlyFeePaid = paid
	owner.UpdatedAt = s.now()
	s.owners[id] = owner
	return nil
}

func (s *MemoryStore) ExpireLapsedOwners(ctx context.Context, now time.Time) (int64, error) {
	defer prometheus.TrackStoreOperation("expire_lapsed_owners")()
	if err := ctx.Err(); err != nil {
		return 0, apperr.RemoteUnavailable("store.ExpireLapsedOwners", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxExpiry := make(map[uint]time.Time)
	for _, p := range s.payments {
		if cur, ok := maxExpiry[p.BusinessOwnerID]; !ok || p.ExpiryDate.After(cur) {
			maxExpiry[p.BusinessOwnerID] = p.ExpiryDate
		}
	}

	var changed int64
	for ownerID, expiry := range maxExpiry {
		owner, ok := s.owners[ownerID]
		if !ok || !owner.MonthlyFeePaid || !expiry.Before(now) {
			continue
		}
		owner.MonthlyFeePaid = false
		owner.UpdatedAt = s.now()
		s.owners[ownerID] = owner
		changed++
	}
	return changed, nil
}

func (s *MemoryStore) GetCommerce(ctx context.Context, id uint) (*model.Commerce, error) {
	defer prometheus.TrackStoreOperation("get_commerce")()
	if err := ctx.Err(); err != nil {
		return nil, apperr.RemoteUnavailable("store.GetCommerce", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commerces[id]
	if !ok || c.DeletedAt.Valid {
		return nil, apperr.NotFound("store.GetCommerce", "commerce not found")
	}
	s.embedVille(&c)
	return &c, nil
}

func (s *MemoryStore) ListCommerces(ctx context.Context, q CommerceQuery) ([]model.Commerce, error) {
	defer prometheus.TrackStoreOperation("list_commerces")()
	if err := ctx.Err(); err != nil {
		return nil, apperr.RemoteUnavailable("store.ListCommerces", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q.Search)
	commerces := make([]model.Commerce, 0)
	for _, c := range s.commerces {
		if c.DeletedAt.Valid {
			continue
		}
		if q.OwnerID != 0 && c.BusinessOwnerID != q.OwnerID {
			continue
		}
		if q.VilleID != 0 && c.VilleID != q.VilleID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Commercename), needle) &&
			!strings.Contains(strings.ToLower(c.Services), needle) {
			continue
		}
		owner, hasOwner := s.owners[c.BusinessOwnerID]
		if q.FeePaidOnly && (!hasOwner || !owner.MonthlyFeePaid) {
			continue
		}
		if q.WithOwner && hasOwner {
			o := owner
			c.BusinessOwner = &o
		}
		if q.WithVille {
			s.embedVille(&c)
		}
		commerces = append(commerces, c)
	}

	sort.Slice(commerces, func(i, j int) bool {
		if commerces[i].Commercename != commerces[j].Commercename {
			return commerces[i].Commercename < commerces[j].Commercename
		}
		return commerces[i].ID < commerces[j].ID
	})
	return commerces, nil
}

func (s *MemoryStore) CreateCommerce(ctx context.Context, c *model.Commerce) error {
	defer prometheus.TrackStoreOperation("create_commerce")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.CreateCommerce", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs("store.CreateCommerce", c.BusinessOwnerID, c.VilleID); err != nil {
		return err
	}
	s.seq.commerce++
	c.ID = s.seq.commerce
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt

	stored := *c
	stored.BusinessOwner = nil
	stored.Ville = nil
	stored.VilleName = ""
	s.commerces[c.ID] = stored
	return nil
}

func (s *MemoryStore) UpdateCommerce(ctx context.Context, u model.CommerceUpdate) error {
	defer prometheus.TrackStoreOperation("update_commerce")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.UpdateCommerce", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commerces[u.ID]
	if !ok || c.DeletedAt.Valid {
		return apperr.NotFound("store.UpdateCommerce", "commerce not found")
	}
	if _, ok := s.villes[u.VilleID]; !ok {
		return apperr.Validation("store.UpdateCommerce", "unknown reference")
	}
	c.Commercename = u.Commercename
	c.Services = u.Services
	c.VilleID = u.VilleID
	if u.ImageCommerce != "" {
		c.ImageCommerce = u.ImageCommerce
	}
	c.UpdatedAt = s.now()
	s.commerces[u.ID] = c
	return nil
}

func (s *MemoryStore) SetCommerceImage(ctx context.Context, id uint, image string) error {
	defer prometheus.TrackStoreOperation("set_commerce_image")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.SetCommerceImage", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commerces[id]
	if !ok || c.DeletedAt.Valid {
		return apperr.NotFound("store.SetCommerceImage", "commerce not found")
	}
	c.ImageCommerce = image
	c.UpdatedAt = s.now()
	s.commerces[id] = c
	return nil
}

func (s *MemoryStore) DeleteCommerce(ctx context.Context, id uint) error {
	defer prometheus.TrackStoreOperation("delete_commerce")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.DeleteCommerce", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commerces[id]
	if !ok || c.DeletedAt.Valid {
		return apperr.NotFound("store.DeleteCommerce", "commerce not found")
	}
	c.DeletedAt.Time = s.now()
	c.DeletedAt.Valid = true
	s.commerces[id] = c
	return nil
}

func (s *MemoryStore) ListVilles(ctx context.Context) ([]model.Ville, error) {
	defer prometheus.TrackStoreOperation("list_villes")()
	if err := ctx.Err(); err != nil {
		return nil, apperr.RemoteUnavailable("store.ListVilles", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	villes := make([]model.Ville, 0, len(s.villes))
	for _, v := range s.villes {
		villes = append(villes, v)
	}
	sort.Slice(villes, func(i, j int) bool { return villes[i].Villename < villes[j].Villename })
	return villes, nil
}

func (s *MemoryStore) GetVille(ctx context.Context, id uint) (*model.Ville, error) {
	defer prometheus.TrackStoreOperation("get_ville")()
	if err := ctx.Err(); err != nil {
		return nil, apperr.RemoteUnavailable("store.GetVille", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.villes[id]
	if !ok {
		return nil, apperr.NotFound("store.GetVille", "ville not found")
	}
	return &v, nil
}

func (s *MemoryStore) CreateVille(ctx context.Context, v *model.Ville) error {
	defer prometheus.TrackStoreOperation("create_ville")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.CreateVille", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.villes {
		if existing.Villename == v.Villename {
			return apperr.Validation("store.CreateVille", "already exists")
		}
	}
	s.seq.ville++
	v.ID = s.seq.ville
	s.villes[v.ID] = *v
	return nil
}

func (s *MemoryStore) LatestPayment(ctx context.Context, ownerID uint) (*model.Payment, error) {
	defer prometheus.TrackStoreOperation("latest_payment")()
	if err := ctx.Err(); err != nil {
		return nil, apperr.RemoteUnavailable("store.LatestPayment", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *model.Payment
	for _, p := range s.payments {
		if p.BusinessOwnerID != ownerID {
			continue
		}
		if latest == nil ||
			p.PaymentDate.After(latest.PaymentDate) ||
			(p.PaymentDate.Equal(latest.PaymentDate) && p.ID > latest.ID) {
			candidate := p
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("store.LatestPayment", "payment not found")
	}
	return latest, nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	defer prometheus.TrackStoreOperation("create_payment")()
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.CreatePayment", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[p.BusinessOwnerID]; !ok {
		return apperr.Validation("store.CreatePayment", "unknown reference")
	}
	s.seq.payment++
	p.ID = s.seq.payment
	p.CreatedAt = s.now()
	s.payments[p.ID] = *p
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.RemoteUnavailable("store.Ping", err)
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// checkRefs mirrors the foreign keys of the commerces table. Callers hold s.mu.
func (s *MemoryStore) checkRefs(op string, ownerID, villeID uint) error {
	if _, ok := s.owners[ownerID]; !ok {
		return apperr.Validation(op, "unknown reference")
	}
	if _, ok := s.villes[villeID]; !ok {
		return apperr.Validation(op, "unknown reference")
	}
	return nil
}

// embedVille attaches the commerce's ville. Callers hold s.mu.
func (s *MemoryStore) embedVille(c *model.Commerce) {
	if v, ok := s.villes[c.VilleID]; ok {
		c.Ville = &v
		c.FillVilleName()
	}
}
