package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence boundary. The ledger engine never calls it; use
// cases load snapshots from it and write back the engine's results.
type Store interface {
	LoadCompanies(ctx context.Context) ([]Company, error)
	LoadRecords(ctx context.Context) ([]Negotiation, error)
	LoadSettings(ctx context.Context) (Settings, error)

	// CreateCompany fails with ErrCompanyExists when the tax id is taken.
	CreateCompany(ctx context.Context, c *Company) error
	SaveCompany(ctx context.Context, c *Company) error
	// SaveRecord upserts by id. A second record for the same pair fails with
	// *DuplicateNegotiationError.
	SaveRecord(ctx context.Context, n *Negotiation) error
	// DeleteCompany also removes every record referencing taxID.
	DeleteCompany(ctx context.Context, taxID string) error
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	SaveSettings(ctx context.Context, s *Settings) error
}

type ChangeKind string

const (
	ChangeCompanySaved       ChangeKind = "company.saved"
	ChangeCompanyDeleted     ChangeKind = "company.deleted"
	ChangeNegotiationSaved   ChangeKind = "negotiation.saved"
	ChangeNegotiationDeleted ChangeKind = "negotiation.deleted"
	ChangeSettingsSaved      ChangeKind = "settings.saved"
)

// Change tells subscribers that the backing store moved; they reload.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Key  string     `json:"key,omitempty"`
	At   time.Time  `json:"at"`
}

type ChangeFeed interface {
	Publish(ctx context.Context, c Change) error
	// Subscribe streams changes until ctx is done; the channel is then closed.
	Subscribe(ctx context.Context) (<-chan Change, error)
}

// RelayEvent is a finalized record with resolved display names.
type RelayEvent struct {
	Record     Negotiation
	BuyerName  string
	SellerName string
}

type Relay interface {
	Send(ctx context.Context, url string, ev RelayEvent) error
}
