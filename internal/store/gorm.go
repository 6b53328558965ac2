package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the PostgreSQL backed Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models lists every table managed by the store, in migration order
func Models() []interface{} {
	return []interface{}{
		&model.Ville{},
		&model.BusinessOwner{},
		&model.Commerce{},
		&model.Payment{},
	}
}

func (s *GormStore) GetOwner(ctx context.Context, id uint) (*model.BusinessOwner, error) {
	defer prometheus.TrackStoreOperation("get_owner")()

	var owner model.BusinessOwner
	if err := s.db.WithContext(ctx).First(&owner, id).Error; err != nil {
		return nil, mapError("store.GetOwner", err)
	}
	return &owner, nil
}

func (s *GormStore) GetOwnerByEmail(ctx context.Context, email string) (*model.BusinessOwner, error) {
	defer prometheus.TrackStoreOperation("get_owner_by_email")()

	var owner model.BusinessOwner
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&owner).Error; err != nil {
		return nil, mapError("store.GetOwnerByEmail", err)
	}
	return &owner, nil
}

func (s *GormStore) CreateOwner(ctx context.Context, owner *model.BusinessOwner) error {
	defer prometheus.TrackStoreOperation("create_owner")()

	if err := s.db.WithContext(ctx).Create(owner).Error; err != nil {
		return mapError("store.CreateOwner", err)
	}
	return nil
}

func (s *GormStore) SetOwnerFeePaid(ctx context.Context, id uint, paid bool) error {
	defer prometheus.TrackStoreOperation("set_owner_fee_paid")()

	result := s.db.WithContext(ctx).Model(&model.BusinessOwner{}).
		Where("id = ?", id).
		Update("monthly_fee_paid", paid)
	if result.Error != nil {
		return mapError("store.SetOwnerFeePaid", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("store.SetOwnerFeePaid", "business owner not found")
	}
	return nil
}

func (s *GormStore) ExpireLapsedOwners(ctx context.Context, now time.Time) (int64, error) {
	defer prometheus.TrackStoreOperation("expire_lapsed_owners")()

	db := s.db.WithContext(ctx)
	lapsed := db.Model(&model.Payment{}).
		Select("business_owner_id").
		Group("business_owner_id").
		Having("MAX(expiry_date) < ?", now)

	result := db.Model(&model.BusinessOwner{}).
		Where("monthly_fee_paid = ?", true).
		Where("id IN (?)", lapsed).
		Update("monthly_fee_paid", false)
	if result.Error != nil {
		return 0, mapError("store.ExpireLapsedOwners", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) GetCommerce(ctx context.Context, id uint) (*model.Commerce, error) {
	defer prometheus.TrackStoreOperation("get_commerce")()

	var commerce model.Commerce
	if err := s.db.WithContext(ctx).Preload("Ville").First(&commerce, id).Error; err != nil {
		return nil, mapError("store.GetCommerce", err)
	}
	commerce.FillVilleName()
	return &commerce, nil
}

func (s *GormStore) ListCommerces(ctx context.Context, q CommerceQuery) ([]model.Commerce, error) {
	defer prometheus.TrackStoreOperation("list_commerces")()

	db := s.db.WithContext(ctx).Model(&model.Commerce{}).Select("commerces.*")

	if q.FeePaidOnly {
		db = db.Joins("JOIN business_owners ON business_owners.id = commerces.business_owner_id").
			Where("business_owners.monthly_fee_paid = ?", true)
	}
	if q.OwnerID != 0 {
		db = db.Where("commerces.business_owner_id = ?", q.OwnerID)
	}
	if q.VilleID != 0 {
		db = db.Where("commerces.ville_id = ?", q.VilleID)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		db = db.Where("(commerces.commercename ILIKE ? OR commerces.services ILIKE ?)", pattern, pattern)
	}
	if q.WithOwner {
		db = db.Preload("BusinessOwner")
	}
	if q.WithVille {
		db = db.Preload("Ville")
	}

	var commerces []model.Commerce
	if err := db.Order("commerces.commercename ASC, commerces.id ASC").Find(&commerces).Error; err != nil {
		return nil, mapError("store.ListCommerces", err)
	}
	for i := range commerces {
		commerces[i].FillVilleName()
	}
	return commerces, nil
}

func (s *GormStore) CreateCommerce(ctx context.Context, c *model.Commerce) error {
	defer prometheus.TrackStoreOperation("create_commerce")()

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return mapError("store.CreateCommerce", err)
	}
	return nil
}

func (s *GormStore) UpdateCommerce(ctx context.Context, u model.CommerceUpdate) error {
	defer prometheus.TrackStoreOperation("update_commerce")()

	fields := map[string]interface{}{
		"commercename": u.Commercename,
		"services":     u.Services,
		"ville_id":     u.VilleID,
	}
	if u.ImageCommerce != "" {
		fields["image_commerce"] = u.ImageCommerce
	}

	result := s.db.WithContext(ctx).Model(&model.Commerce{}).
		Where("id = ?", u.ID).
		Omit(clause.Associations).
		Updates(fields)
	if result.Error != nil {
		return mapError("store.UpdateCommerce", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("store.UpdateCommerce", "commerce not found")
	}
	return nil
}

func (s *GormStore) SetCommerceImage(ctx context.Context, id uint, image string) error {
	defer prometheus.TrackStoreOperation("set_commerce_image")()

	result := s.db.WithContext(ctx).Model(&model.Commerce{}).
		Where("id = ?", id).
		Update("image_commerce", image)
	if result.Error != nil {
		return mapError("store.SetCommerceImage", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("store.SetCommerceImage", "commerce not found")
	}
	return nil
}

func (s *GormStore) DeleteCommerce(ctx context.Context, id uint) error {
	defer prometheus.TrackStoreOperation("delete_commerce")()

	result := s.db.WithContext(ctx).Delete(&model.Commerce{}, id)
	if result.Error != nil {
		return mapError("store.DeleteCommerce", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("store.DeleteCommerce", "commerce not found")
	}
	return nil
}

func (s *GormStore) ListVilles(ctx context.Context) ([]model.Ville, error) {
	defer prometheus.TrackStoreOperation("list_villes")()

	var villes []model.Ville
	if err := s.db.WithContext(ctx).Order("villename ASC").Find(&villes).Error; err != nil {
		return nil, mapError("store.ListVilles", err)
	}
	return villes, nil
}

func (s *GormStore) GetVille(ctx context.Context, id uint) (*model.Ville, error) {
	defer prometheus.TrackStoreOperation("get_ville")()

	var ville model.Ville
	if err := s.db.WithContext(ctx).First(&ville, id).Error; err != nil {
		return nil, mapError("store.GetVille", err)
	}
	return &ville, nil
}

func (s *GormStore) CreateVille(ctx context.Context, v *model.Ville) error {
	defer prometheus.TrackStoreOperation("create_ville")()

	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return mapError("store.CreateVille", err)
	}
	return nil
}

func (s *GormStore) LatestPayment(ctx context.Context, ownerID uint) (*model.Payment, error) {
	defer prometheus.TrackStoreOperation("latest_payment")()

	var payment model.Payment
	err := s.db.WithContext(ctx).
		Where("business_owner_id = ?", ownerID).
		Order("payment_date DESC, id DESC").
		First(&payment).Error
	if err != nil {
		return nil, mapError("store.LatestPayment", err)
	}
	return &payment, nil
}

func (s *GormStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	defer prometheus.TrackStoreOperation("create_payment")()

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return mapError("store.CreatePayment", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperr.RemoteUnavailable("store.Ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperr.RemoteUnavailable("store.Ping", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapError translates gorm errors into the application taxonomy
func mapError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &apperr.Error{Kind: apperr.KindValidationFailed, Op: op, Msg: "already exists", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &apperr.Error{Kind: apperr.KindValidationFailed, Op: op, Msg: "unknown reference", Err: err}
	default:
		return apperr.RemoteUnavailable(op, err)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
