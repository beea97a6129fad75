package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/rodada/internal/domain"
)

const lowerNameIndex = "idx_companies_lower_name"

// Store joins the per-table repos behind domain.Store.
type Store struct {
	Companies    *CompanyRepo
	Negotiations *NegotiationRepo
	Settings     *SettingsRepo
}

// NewStore expects db opened with gorm.Config{TranslateError: true} so unique
// violations surface as gorm.ErrDuplicatedKey.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Companies:    NewCompanyRepo(db),
		Negotiations: NewNegotiationRepo(db),
		Settings:     NewSettingsRepo(db),
	}
}

func (s *Store) LoadCompanies(ctx context.Context) ([]domain.Company, error) {
	return s.Companies.List(ctx)
}

func (s *Store) LoadRecords(ctx context.Context) ([]domain.Negotiation, error) {
	return s.Negotiations.List(ctx)
}

func (s *Store) LoadSettings(ctx context.Context) (domain.Settings, error) {
	return s.Settings.Load(ctx)
}

func (s *Store) CreateCompany(ctx context.Context, c *domain.Company) error {
	return s.Companies.Create(ctx, c)
}

func (s *Store) SaveCompany(ctx context.Context, c *domain.Company) error {
	return s.Companies.Save(ctx, c)
}

func (s *Store) SaveRecord(ctx context.Context, n *domain.Negotiation) error {
	return s.Negotiations.Save(ctx, n)
}

func (s *Store) DeleteCompany(ctx context.Context, taxID string) error {
	return s.Companies.DeleteCascade(ctx, taxID)
}

func (s *Store) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.Negotiations.Delete(ctx, id)
}

func (s *Store) SaveSettings(ctx context.Context, st *domain.Settings) error {
	return s.Settings.Save(ctx, st)
}

// Migrate creates the tables. The unique (buyer_tax_id, seller_tax_id) index
// declared on domain.Negotiation is what stops two clients racing past the
// snapshot check.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Company{}, &domain.Negotiation{}, &domain.Settings{}); err != nil {
		return err
	}
	// The name index only speeds up search; the service runs without it.
	if err := db.Exec("CREATE INDEX IF NOT EXISTS " + lowerNameIndex + " ON companies (LOWER(name))").Error; err != nil {
		log.Warn().Err(err).Str("index", lowerNameIndex).Msg("postgres: could not create index")
	}
	return nil
}
