package domain

import (
	"strings"
	"time"
)

type Role string

const (
	// RoleBuyer is the "associado" side of the event.
	RoleBuyer Role = "buyer"
	// RoleSeller is the "fornecedor" side of the event.
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool { return r == RoleBuyer || r == RoleSeller }

// Counterpart is the role r negotiates with.
func (r Role) Counterpart() Role {
	if r == RoleBuyer {
		return RoleSeller
	}
	return RoleBuyer
}

func (r Role) Label() string {
	switch r {
	case RoleBuyer:
		return "Associado"
	case RoleSeller:
		return "Fornecedor"
	}
	return string(r)
}

// ParseRole accepts the English tags and the event vocabulary (associado/fornecedor).
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buyer", "associate", "associado":
		return RoleBuyer, true
	case "seller", "supplier", "fornecedor":
		return RoleSeller, true
	}
	return "", false
}

type Company struct {
	TaxID      string    `gorm:"primaryKey;size:30" json:"tax_id"`
	Name       string    `gorm:"size:180;not null" json:"name"`
	Phone      string    `gorm:"size:60" json:"phone"`
	Email      string    `gorm:"size:140" json:"email"`
	SecretHash string    `gorm:"size:100" json:"-"`
	Role       Role      `gorm:"type:varchar(10);not null;index" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

var taxIDPunct = strings.NewReplacer(".", "", "/", "", "-", "", " ", "")

// NormalizeTaxID strips CNPJ punctuation so "12.345.678/0001-90" and
// "12345678000190" name the same company.
func NormalizeTaxID(s string) string {
	return taxIDPunct.Replace(strings.TrimSpace(s))
}

func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IndexCompanies maps companies by tax id.
func IndexCompanies(companies []Company) map[string]Company {
	m := make(map[string]Company, len(companies))
	for _, c := range companies {
		m[c.TaxID] = c
	}
	return m
}

// NameOf returns the display name for taxID, or "N/A" when the company is gone.
func NameOf(idx map[string]Company, taxID string) string {
	if c, ok := idx[taxID]; ok && c.Name != "" {
		return c.Name
	}
	return "N/A"
}
