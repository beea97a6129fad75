package domain

import "time"

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

type Settings struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	AllowBuyers       bool      `gorm:"not null" json:"allow_buyers"`
	AllowSellers      bool      `gorm:"not null" json:"allow_sellers"`
	AllowNegotiations bool      `gorm:"not null" json:"allow_negotiations"`
	RelayURL          string    `gorm:"size:500" json:"relay_url"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Settings) TableName() string { return "registration_settings" }

func DefaultSettings() Settings {
	return Settings{
		ID:                SettingsID,
		AllowBuyers:       true,
		AllowSellers:      true,
		AllowNegotiations: true,
	}
}

// AllowsRegistration reports whether self-service sign-up is open for r.
func (s Settings) AllowsRegistration(r Role) bool {
	switch r {
	case RoleBuyer:
		return s.AllowBuyers
	case RoleSeller:
		return s.AllowSellers
	}
	return false
}
