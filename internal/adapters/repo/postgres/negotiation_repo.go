package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/rodada/internal/domain"
)

type NegotiationRepo struct{ db *gorm.DB }

func NewNegotiationRepo(db *gorm.DB) *NegotiationRepo { return &NegotiationRepo{db: db} }

func (r *NegotiationRepo) List(ctx context.Context) ([]domain.Negotiation, error) {
	var list []domain.Negotiation
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *NegotiationRepo) FindByPair(ctx context.Context, buyer, seller string) (*domain.Negotiation, error) {
	var n domain.Negotiation
	if err := r.db.WithContext(ctx).First(&n, "buyer_tax_id = ? AND seller_tax_id = ?", buyer, seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Save upserts by id. The unique pair index turns a concurrent second insert
// for the same pair into a DuplicateNegotiationError.
func (r *NegotiationRepo) Save(ctx context.Context, n *domain.Negotiation) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Save(n).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	dup := &domain.DuplicateNegotiationError{BuyerTaxID: n.BuyerTaxID, SellerTaxID: n.SellerTaxID}
	if existing, ferr := r.FindByPair(ctx, n.BuyerTaxID, n.SellerTaxID); ferr == nil {
		dup.ExistingID = existing.ID
	}
	return dup
}

func (r *NegotiationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Negotiation{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
