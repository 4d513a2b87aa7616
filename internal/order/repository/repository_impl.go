package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/formpay/formpay/internal/order/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) SetProviderOrderRef(ctx context.Context, db *gorm.DB, orderID string, ref string) error {
	return db.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"provider_order_ref": ref,
			"status":             domain.StatusPending,
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByProviderOrderRef(ctx context.Context, db *gorm.DB, ref string) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).Where("provider_order_ref = ?", ref).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) FindByAnyProviderOrderRef(ctx context.Context, db *gorm.DB, refs []string) ([]domain.Order, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	var orders []domain.Order
	err := db.WithContext(ctx).Where("provider_order_ref IN ?", refs).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) FindPendingByPayer(ctx context.Context, db *gorm.DB, payerEmail string, formID string) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Where("payer_email = ? AND form_id = ? AND status = ?", payerEmail, formID, domain.StatusPending).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
