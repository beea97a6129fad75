package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/phenrril/rodada/internal/domain"
)

type CompanyRepo struct{ db *gorm.DB }

func NewCompanyRepo(db *gorm.DB) *CompanyRepo { return &CompanyRepo{db: db} }

func (r *CompanyRepo) List(ctx context.Context) ([]domain.Company, error) {
	var list []domain.Company
	if err := r.db.WithContext(ctx).Order("created_at asc, tax_id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CompanyRepo) FindByTaxID(ctx context.Context, taxID string) (*domain.Company, error) {
	var c domain.Company
	t := strings.TrimSpace(taxID)
	if t == "" {
		return nil, errors.New("empty tax id")
	}
	if err := r.db.WithContext(ctx).First(&c, "tax_id = ?", t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepo) Create(ctx context.Context, c *domain.Company) error {
	if c.Email != "" {
		c.Email = strings.ToLower(c.Email)
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrCompanyExists
		}
		return err
	}
	return nil
}

func (r *CompanyRepo) Save(ctx context.Context, c *domain.Company) error {
	if c.Email != "" {
		c.Email = strings.ToLower(c.Email)
	}
	return r.db.WithContext(ctx).Save(c).Error
}

// DeleteCascade removes the company and every negotiation that names it.
func (r *CompanyRepo) DeleteCascade(ctx context.Context, taxID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("buyer_tax_id = ? OR seller_tax_id = ?", taxID, taxID).Delete(&domain.Negotiation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Company{}, "tax_id = ?", taxID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
