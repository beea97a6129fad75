package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/rodada/internal/auth"
	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
)

type CompanyUC struct {
	Store   domain.Store
	Feed    domain.ChangeFeed
	Metrics Recorder
}

type RegisterInput struct {
	TaxID  string
	Name   string
	Phone  string
	Email  string
	Secret string
	Role   domain.Role
}

func (in RegisterInput) normalized() RegisterInput {
	in.TaxID = domain.NormalizeTaxID(in.TaxID)
	in.Name = domain.NormalizeName(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// Register is the self-service path: every field is required and the role's
// registration flag must be open.
func (uc *CompanyUC) Register(ctx context.Context, in RegisterInput) (*domain.Company, error) {
	in = in.normalized()
	if err := required(
		field{"CNPJ", in.TaxID}, field{"nome", in.Name}, field{"telefone", in.Phone},
		field{"email", in.Email}, field{"senha", in.Secret}, field{"perfil", string(in.Role)},
	); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: perfil %q", domain.ErrInvalidInput, in.Role)
	}
	st, err := uc.Store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !st.AllowsRegistration(in.Role) {
		return nil, domain.ErrRegistrationClosed
	}
	return uc.create(ctx, in)
}

// AdminCreate skips the registration flags; phone, email and secret are optional.
func (uc *CompanyUC) AdminCreate(ctx context.Context, in RegisterInput) (*domain.Company, error) {
	in = in.normalized()
	if err := required(field{"CNPJ", in.TaxID}, field{"nome", in.Name}, field{"perfil", string(in.Role)}); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: perfil %q", domain.ErrInvalidInput, in.Role)
	}
	return uc.create(ctx, in)
}

func (uc *CompanyUC) create(ctx context.Context, in RegisterInput) (*domain.Company, error) {
	c := &domain.Company{TaxID: in.TaxID, Name: in.Name, Phone: in.Phone, Email: in.Email, Role: in.Role}
	if in.Secret != "" {
		h, err := hashSecret(in.Secret)
		if err != nil {
			return nil, err
		}
		c.SecretHash = h
	}
	if err := uc.Store.CreateCompany(ctx, c); err != nil {
		return nil, err
	}
	recorder(uc.Metrics).IncrementRegistrations(string(c.Role))
	publish(ctx, uc.Feed, domain.ChangeCompanySaved, c.TaxID)
	log.Info().Str("tax_id", c.TaxID).Str("role", string(c.Role)).Msg("company registered")
	return c, nil
}

func hashSecret(s string) (string, error) {
	h, err := auth.HashSecret(s)
	if errors.Is(err, auth.ErrSecretTooShort) {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return h, err
}

type UpdateInput struct {
	Name  string
	Phone string
	Email string
	// Secret replaces the current one when not empty.
	Secret string
}

// Update edits contact data. The role is fixed at creation because records
// already reference the company on one side.
func (uc *CompanyUC) Update(ctx context.Context, taxID string, in UpdateInput) (*domain.Company, error) {
	c, err := uc.Get(ctx, taxID)
	if err != nil {
		return nil, err
	}
	name := domain.NormalizeName(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome obrigatório", domain.ErrInvalidInput)
	}
	c.Name = name
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Secret != "" {
		h, err := hashSecret(in.Secret)
		if err != nil {
			return nil, err
		}
		c.SecretHash = h
	}
	if err := uc.Store.SaveCompany(ctx, c); err != nil {
		return nil, err
	}
	publish(ctx, uc.Feed, domain.ChangeCompanySaved, c.TaxID)
	return c, nil
}

func (uc *CompanyUC) ChangeSecret(ctx context.Context, taxID, current, next string) error {
	c, err := uc.Get(ctx, taxID)
	if err != nil {
		return err
	}
	if err := auth.CheckSecret(c.SecretHash, current); err != nil {
		return err
	}
	h, err := hashSecret(next)
	if err != nil {
		return err
	}
	c.SecretHash = h
	return uc.Store.SaveCompany(ctx, c)
}

// Authenticate hides whether the tax id exists.
func (uc *CompanyUC) Authenticate(ctx context.Context, taxID, secret string) (*domain.Company, error) {
	c, err := uc.Get(ctx, taxID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckSecret(c.SecretHash, secret); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the company and every record that names it.
func (uc *CompanyUC) Delete(ctx context.Context, taxID string) error {
	t := domain.NormalizeTaxID(taxID)
	if err := uc.Store.DeleteCompany(ctx, t); err != nil {
		return err
	}
	publish(ctx, uc.Feed, domain.ChangeCompanyDeleted, t)
	log.Info().Str("tax_id", t).Msg("company deleted with its negotiations")
	return nil
}

func (uc *CompanyUC) List(ctx context.Context, role domain.Role, term string) ([]domain.Company, error) {
	companies, err := uc.Store.LoadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.FilterCompanies(companies, role, term), nil
}

func (uc *CompanyUC) Get(ctx context.Context, taxID string) (*domain.Company, error) {
	t := domain.NormalizeTaxID(taxID)
	if t == "" {
		return nil, fmt.Errorf("%w: CNPJ vazio", domain.ErrInvalidInput)
	}
	companies, err := uc.Store.LoadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := findCompany(companies, t)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}
