package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/rodada/internal/domain"
)

// Recorder is the slice of metrics.Metrics the use cases touch.
type Recorder interface {
	IncrementAccepted()
	IncrementRejected(reason string)
	IncrementRegistrations(role string)
	ObserveRelay(err error)
}

type nopRecorder struct{}

func (nopRecorder) IncrementAccepted()            {}
func (nopRecorder) IncrementRejected(string)      {}
func (nopRecorder) IncrementRegistrations(string) {}
func (nopRecorder) ObserveRelay(error)            {}

func recorder(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// publish never fails the caller: the write already happened.
func publish(ctx context.Context, feed domain.ChangeFeed, kind domain.ChangeKind, key string) {
	if feed == nil {
		return
	}
	if err := feed.Publish(ctx, domain.Change{Kind: kind, Key: key, At: time.Now().UTC()}); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Str("key", key).Msg("change publish failed")
	}
}

type field struct{ name, value string }

// required reports the first empty field.
func required(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s obrigatório", domain.ErrInvalidInput, f.name)
		}
	}
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownParty):
		return "unknown_party"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrAmountTooLarge):
		return "amount_too_large"
	case errors.Is(err, domain.ErrDuplicateNegotiation):
		return "duplicate"
	case errors.Is(err, domain.ErrNegotiationsClosed):
		return "closed"
	}
	return "other"
}

func findCompany(companies []domain.Company, taxID string) (*domain.Company, bool) {
	for i := range companies {
		if companies[i].TaxID == taxID {
			c := companies[i]
			return &c, true
		}
	}
	return nil, false
}
