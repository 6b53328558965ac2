package directory

import (
	"context"
	"strings"

	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/cache"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/internal/store"
	"github.com/suteetoe/commerce-directory/pkg/pubsub"
	"github.com/suteetoe/commerce-directory/prometheus"
	"go.uber.org/zap"
)

// VilleRef is a ville id/name pair derived from a commerce listing
type VilleRef struct {
	ID        uint   `json:"id"`
	Villename string `json:"villename"`
}

// Service reads and writes commerces, villes and owners and broadcasts the
// selected commerce and the current commerce list to subscribers.
type Service struct {
	store  store.Store
	villes cache.VilleCache
	log    *zap.Logger

	clicked   *pubsub.Cell[*model.Commerce]
	commerces *pubsub.Cell[[]model.Commerce]
}

// NewService creates a directory service. A nil villes cache disables caching.
func NewService(st store.Store, villes cache.VilleCache, log *zap.Logger) *Service {
	if villes == nil {
		villes = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     st,
		villes:    villes,
		log:       log,
		clicked:   pubsub.NewCell[*model.Commerce](),
		commerces: pubsub.NewCellWith([]model.Commerce{}),
	}
}

// Close ends every broadcast subscription
func (s *Service) Close() {
	s.clicked.Close()
	s.commerces.Close()
}

// ListVisibleCommercesForOwner returns the owner's commerces, or an empty list
// when the owner has not paid the monthly fee.
func (s *Service) ListVisibleCommercesForOwner(ctx context.Context, ownerID uint) ([]model.Commerce, error) {
	const op = "list_visible_for_owner"
	s.track(op)

	owner, err := s.store.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, s.fail(op, err, zap.Uint("business_owner_id", ownerID))
	}
	if !owner.MonthlyFeePaid {
		s.log.Debug("Owner fee not paid, hiding commerces", zap.Uint("business_owner_id", ownerID))
		return []model.Commerce{}, nil
	}

	commerces, err := s.store.ListCommerces(ctx, store.CommerceQuery{OwnerID: ownerID, WithVille: true})
	if err != nil {
		return nil, s.fail(op, err, zap.Uint("business_owner_id", ownerID))
	}
	return commerces, nil
}

// ListAllVilles returns every ville ordered by name
func (s *Service) ListAllVilles(ctx context.Context) ([]model.Ville, error) {
	const op = "list_villes"
	s.track(op)

	villes, err := s.store.ListVilles(ctx)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return villes, nil
}

// CreateCommerce validates in and stores a new commerce
func (s *Service) CreateCommerce(ctx context.Context, in model.CommerceInput) (*model.Commerce, error) {
	const op = "create_commerce"
	s.track(op)

	commerce, err := model.NewCommerce(in)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err := s.store.CreateCommerce(ctx, commerce); err != nil {
		return nil, s.fail(op, err, zap.String("commercename", in.Commercename))
	}

	s.log.Info("Commerce created",
		zap.Uint("id", commerce.ID),
		zap.String("commercename", commerce.Commercename),
		zap.Uint("business_owner_id", commerce.BusinessOwnerID))
	return commerce, nil
}

// GetVilleName returns the name of a ville, looking in the cache first
func (s *Service) GetVilleName(ctx context.Context, villeID uint) (string, error) {
	const op = "get_ville_name"
	s.track(op)

	name, ok, err := s.villes.GetVilleName(ctx, villeID)
	switch {
	case err != nil:
		s.log.Warn("Ville cache lookup failed", zap.Uint("ville_id", villeID), zap.Error(err))
	case ok:
		prometheus.VilleCacheCounter.WithLabelValues("hit").Inc()
		return name, nil
	}
	prometheus.VilleCacheCounter.WithLabelValues("miss").Inc()

	ville, err := s.store.GetVille(ctx, villeID)
	if err != nil {
		return "", s.fail(op, err, zap.Uint("ville_id", villeID))
	}
	if err := s.villes.SetVilleName(ctx, villeID, ville.Villename); err != nil {
		s.log.Warn("Ville cache store failed", zap.Uint("ville_id", villeID), zap.Error(err))
	}
	return ville.Villename, nil
}

// UpdateCommerce applies u. Missing required fields fail before the store is touched.
func (s *Service) UpdateCommerce(ctx context.Context, u model.CommerceUpdate) error {
	const op = "update_commerce"
	s.track(op)

	if err := u.Validate(); err != nil {
		return s.fail(op, err, zap.Uint("id", u.ID))
	}
	if err := s.store.UpdateCommerce(ctx, u); err != nil {
		return s.fail(op, err, zap.Uint("id", u.ID))
	}

	s.log.Info("Commerce updated", zap.Uint("id", u.ID))
	return nil
}

// SetCommerceImage records the stored image key of a commerce
func (s *Service) SetCommerceImage(ctx context.Context, commerceID uint, key string) error {
	const op = "set_commerce_image"
	s.track(op)

	if err := s.store.SetCommerceImage(ctx, commerceID, key); err != nil {
		return s.fail(op, err, zap.Uint("id", commerceID))
	}
	return nil
}

func (s *Service) DeleteCommerce(ctx context.Context, commerceID uint) error {
	const op = "delete_commerce"
	s.track(op)

	if err := s.store.DeleteCommerce(ctx, commerceID); err != nil {
		return s.fail(op, err, zap.Uint("id", commerceID))
	}

	s.log.Info("Commerce deleted", zap.Uint("id", commerceID))
	return nil
}

func (s *Service) GetCommerceByID(ctx context.Context, commerceID uint) (*model.Commerce, error) {
	const op = "get_commerce"
	s.track(op)

	commerce, err := s.store.GetCommerce(ctx, commerceID)
	if err != nil {
		return nil, s.fail(op, err, zap.Uint("id", commerceID))
	}
	return commerce, nil
}

// ListCommercesByVille returns every commerce of a ville with its owner,
// regardless of the fee gate.
func (s *Service) ListCommercesByVille(ctx context.Context, villeID uint) ([]model.Commerce, error) {
	const op = "list_by_ville"
	s.track(op)

	commerces, err := s.store.ListCommerces(ctx, store.CommerceQuery{VilleID: villeID, WithOwner: true})
	if err != nil {
		return nil, s.fail(op, err, zap.Uint("ville_id", villeID))
	}
	return commerces, nil
}

// SearchCommerces matches query against commercename or services, case-insensitively
func (s *Service) SearchCommerces(ctx context.Context, query string) ([]model.Commerce, error) {
	const op = "search"
	s.track(op)

	commerces, err := s.store.ListCommerces(ctx, store.CommerceQuery{Search: query, WithOwner: true})
	if err != nil {
		return nil, s.fail(op, err, zap.String("query", query))
	}
	return commerces, nil
}

// ListAllVisibleCommerces returns the commerces of every owner who paid the fee
func (s *Service) ListAllVisibleCommerces(ctx context.Context) ([]model.Commerce, error) {
	const op = "list_visible"
	s.track(op)

	commerces, err := s.store.ListCommerces(ctx, store.CommerceQuery{FeePaidOnly: true, WithVille: true})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return commerces, nil
}

// SearchVisibleCommerces filters the visible commerces by a lowercase
// substring of commercename or services and publishes the result. On failure
// it returns an empty list along with the error.
func (s *Service) SearchVisibleCommerces(ctx context.Context, term string) ([]model.Commerce, error) {
	const op = "search_visible"
	s.track(op)

	visible, err := s.store.ListCommerces(ctx, store.CommerceQuery{FeePaidOnly: true, WithVille: true})
	if err != nil {
		return []model.Commerce{}, s.fail(op, err, zap.String("term", term))
	}

	needle := strings.ToLower(term)
	matched := make([]model.Commerce, 0, len(visible))
	for _, c := range visible {
		if strings.Contains(strings.ToLower(c.Commercename), needle) ||
			strings.Contains(strings.ToLower(c.Services), needle) {
			matched = append(matched, c)
		}
	}

	s.commerces.Publish(matched)
	return matched, nil
}

// DeriveVillesFromCommerces returns the distinct villes of commerces in
// first-seen order. Entries without a ville id or name are skipped.
func DeriveVillesFromCommerces(commerces []model.Commerce) []VilleRef {
	villes := make([]VilleRef, 0)
	seen := make(map[uint]struct{})
	for _, c := range commerces {
		if c.VilleID == 0 || c.VilleName == "" {
			continue
		}
		if _, dup := seen[c.VilleID]; dup {
			continue
		}
		seen[c.VilleID] = struct{}{}
		villes = append(villes, VilleRef{ID: c.VilleID, Villename: c.VilleName})
	}
	return villes
}

// ListVisibleCommercesByVille returns the fee-paid commerces of a ville
func (s *Service) ListVisibleCommercesByVille(ctx context.Context, villeID uint) ([]model.Commerce, error) {
	const op = "list_visible_by_ville"
	s.track(op)

	commerces, err := s.store.ListCommerces(ctx, store.CommerceQuery{VilleID: villeID, FeePaidOnly: true, WithVille: true})
	if err != nil {
		return nil, s.fail(op, err, zap.Uint("ville_id", villeID))
	}
	return commerces, nil
}

// FetchCommerces loads every commerce and publishes the list
func (s *Service) FetchCommerces(ctx context.Context) ([]model.Commerce, error) {
	const op = "fetch"
	s.track(op)

	commerces, err := s.store.ListCommerces(ctx, store.CommerceQuery{WithVille: true})
	if err != nil {
		return nil, s.fail(op, err)
	}
	s.commerces.Publish(commerces)
	return commerces, nil
}

// SetClickedCommerce publishes the selected commerce; nil clears the selection
func (s *Service) SetClickedCommerce(c *model.Commerce) {
	s.clicked.Publish(c)
}

// ClickedCommerce subscribes to the selected commerce
func (s *Service) ClickedCommerce() (<-chan *model.Commerce, func()) {
	return s.clicked.Subscribe()
}

// CurrentClickedCommerce returns the selected commerce, if any
func (s *Service) CurrentClickedCommerce() (*model.Commerce, bool) {
	c, ok := s.clicked.Current()
	return c, ok && c != nil
}

// SetCommerces publishes a commerce list
func (s *Service) SetCommerces(commerces []model.Commerce) {
	s.commerces.Publish(commerces)
}

// Commerces subscribes to the current commerce list
func (s *Service) Commerces() (<-chan []model.Commerce, func()) {
	return s.commerces.Subscribe()
}

// CurrentCommerces returns the last published commerce list. Until the
// first publish it is an empty list.
func (s *Service) CurrentCommerces() ([]model.Commerce, bool) {
	return s.commerces.Current()
}

func (s *Service) track(op string) {
	prometheus.DirectoryOperationCounter.WithLabelValues(op).Inc()
}

// fail logs and counts err, then returns it unchanged
func (s *Service) fail(op string, err error, fields ...zap.Field) error {
	kind := apperr.KindOf(err)
	prometheus.DirectoryErrorCounter.WithLabelValues(op, kind.String()).Inc()

	fields = append(fields, zap.String("operation", op), zap.String("kind", kind.String()), zap.Error(err))
	if kind == apperr.KindNotFound || kind == apperr.KindValidationFailed {
		s.log.Warn("Directory operation rejected", fields...)
	} else {
		s.log.Error("Directory operation failed", fields...)
	}
	return err
}
