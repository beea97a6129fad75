package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/phenrril/rodada/internal/domain"
)

type SettingsRepo struct{ db *gorm.DB }

func NewSettingsRepo(db *gorm.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Load returns the single settings row, creating it with defaults when missing.
func (r *SettingsRepo) Load(ctx context.Context) (domain.Settings, error) {
	var st domain.Settings
	def := domain.DefaultSettings()
	err := r.db.WithContext(ctx).
		Where("id = ?", domain.SettingsID).
		Attrs(def).
		FirstOrCreate(&st).Error
	return st, err
}

func (r *SettingsRepo) Save(ctx context.Context, st *domain.Settings) error {
	st.ID = domain.SettingsID
	return r.db.WithContext(ctx).Save(st).Error
}
