package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/rodada/internal/domain"
)

var t0 = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func fixedEngine() *Engine {
	tick := 0
	return &Engine{
		Now: func() time.Time {
			tick++
			return t0.Add(time.Duration(tick) * time.Minute)
		},
		NewID: uuid.New,
	}
}

func directory() []domain.Company {
	return []domain.Company{
		{TaxID: "A", Name: "ALFA", Role: domain.RoleBuyer},
		{TaxID: "X", Name: "XIS", Role: domain.RoleSeller},
		{TaxID: "Y", Name: "YPSILON", Role: domain.RoleSeller},
	}
}

func reais(v int64) *domain.Money { return domain.AmountOf(domain.Money(v * 100)) }

func TestSubmitValidationOrder(t *testing.T) {
	e := fixedEngine()
	companies := directory()
	existing, err := e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(500)}, companies, nil)
	require.NoError(t, err)
	records := []domain.Negotiation{existing}

	tests := []struct {
		name string
		in   SubmitInput
		want error
	}{
		{"unknown buyer", SubmitInput{BuyerTaxID: "Z", SellerTaxID: "X", Amount: reais(10)}, domain.ErrUnknownParty},
		{"unknown seller", SubmitInput{BuyerTaxID: "A", SellerTaxID: "Z", Amount: reais(10)}, domain.ErrUnknownParty},
		{"buyer given as seller", SubmitInput{BuyerTaxID: "X", SellerTaxID: "Y", Amount: reais(10)}, domain.ErrUnknownParty},
		{"seller given as buyer", SubmitInput{BuyerTaxID: "A", SellerTaxID: "A", Amount: reais(10)}, domain.ErrUnknownParty},
		{"party checked before amount", SubmitInput{BuyerTaxID: "Z", SellerTaxID: "X", Amount: reais(-1)}, domain.ErrUnknownParty},
		{"zero amount", SubmitInput{BuyerTaxID: "A", SellerTaxID: "Y", Amount: reais(0)}, domain.ErrInvalidAmount},
		{"negative amount", SubmitInput{BuyerTaxID: "A", SellerTaxID: "Y", Amount: reais(-5)}, domain.ErrInvalidAmount},
		{"amount checked before duplicate", SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(0)}, domain.ErrInvalidAmount},
		{"above the cap", SubmitInput{BuyerTaxID: "A", SellerTaxID: "Y", Amount: domain.AmountOf(domain.MaxAmount + 1)}, domain.ErrAmountTooLarge},
		{"cap checked before duplicate", SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: domain.AmountOf(domain.MaxAmount + 1)}, domain.ErrAmountTooLarge},
		{"duplicate pair", SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(200)}, domain.ErrDuplicateNegotiation},
		{"duplicate pair without deal", SubmitInput{BuyerTaxID: "A", SellerTaxID: "X"}, domain.ErrDuplicateNegotiation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Submit(tt.in, companies, records)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSubmitTypedErrors(t *testing.T) {
	e := fixedEngine()
	companies := directory()

	_, err := e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "Q"}, companies, nil)
	var unknown *domain.UnknownPartyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Q", unknown.TaxID)
	assert.Equal(t, domain.RoleSeller, unknown.Role)

	first, err := e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(500)}, companies, nil)
	require.NoError(t, err)
	_, err = e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(200)}, companies, []domain.Negotiation{first})
	var dup *domain.DuplicateNegotiationError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first.ID, dup.ExistingID)
}

func TestSubmitBuildsFreshRecord(t *testing.T) {
	e := fixedEngine()
	amount := reais(500)
	rec, err := e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: amount, Notes: "primeira rodada"}, directory(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, t0.Add(time.Minute), rec.CreatedAt)
	assert.Equal(t, "primeira rodada", rec.Notes)
	require.NotNil(t, rec.Amount)
	assert.Equal(t, domain.Money(50000), *rec.Amount)

	*amount = 1
	assert.Equal(t, domain.Money(50000), *rec.Amount, "record must not alias the caller's amount")
}

func TestSubmitNeverReturnsNonPositiveAmount(t *testing.T) {
	e := fixedEngine()
	companies := directory()
	for _, v := range []int64{-1000, -1, 0, 1, 99, 100, 123456} {
		m := domain.Money(v)
		rec, err := e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: &m}, companies, nil)
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInvalidAmount)
			continue
		}
		require.NotNil(t, rec.Amount)
		assert.Greater(t, int64(*rec.Amount), int64(0))
	}
}

func TestAcceptedSubmissionsKeepPairsUnique(t *testing.T) {
	e := fixedEngine()
	companies := []domain.Company{}
	for i := 0; i < 4; i++ {
		companies = append(companies, domain.Company{TaxID: fmt.Sprintf("B%d", i), Role: domain.RoleBuyer})
		companies = append(companies, domain.Company{TaxID: fmt.Sprintf("S%d", i), Role: domain.RoleSeller})
	}
	var records []domain.Negotiation
	// Every pair attempted three times, with and without deals.
	for round := 0; round < 3; round++ {
		for b := 0; b < 4; b++ {
			for s := 0; s < 4; s++ {
				in := SubmitInput{BuyerTaxID: fmt.Sprintf("B%d", b), SellerTaxID: fmt.Sprintf("S%d", s)}
				if (b+s+round)%2 == 0 {
					in.Amount = reais(int64(10 * (b + s + 1)))
				}
				rec, err := e.Submit(in, companies, records)
				if err != nil {
					require.ErrorIs(t, err, domain.ErrDuplicateNegotiation)
					continue
				}
				records = append(records, rec)
			}
		}
	}
	require.Len(t, records, 16)
	seen := map[domain.Pair]int{}
	for _, n := range records {
		seen[n.Pair()]++
	}
	for pair, count := range seen {
		assert.Equal(t, 1, count, "pair %v", pair)
	}
}

func TestDuplicateLeavesExistingRecordUntouched(t *testing.T) {
	e := fixedEngine()
	companies := directory()
	rec, err := e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(500)}, companies, nil)
	require.NoError(t, err)
	records := []domain.Negotiation{rec}

	_, err = e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(200)}, companies, records)
	require.ErrorIs(t, err, domain.ErrDuplicateNegotiation)

	require.Len(t, records, 1)
	assert.Equal(t, domain.Money(50000), *records[0].Amount)
}

func TestCorrect(t *testing.T) {
	e := fixedEngine()
	rec, err := e.Submit(SubmitInput{BuyerTaxID: "A", SellerTaxID: "X", Amount: reais(500), Notes: "ok"}, directory(), nil)
	require.NoError(t, err)
	records := []domain.Negotiation{rec}

	t.Run("replaces amount and notes, keeps identity", func(t *testing.T) {
		got, err := e.Correct(CorrectInput{ID: rec.ID, Amount: reais(750), Notes: "ajustado"}, records)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.CreatedAt, got.CreatedAt)
		assert.Equal(t, rec.BuyerTaxID, got.BuyerTaxID)
		assert.Equal(t, rec.SellerTaxID, got.SellerTaxID)
		assert.Equal(t, domain.Money(75000), *got.Amount)
		assert.Equal(t, "ajustado", got.Notes)
		assert.Equal(t, domain.Money(50000), *records[0].Amount, "input snapshot unchanged")
	})

	t.Run("zero is allowed", func(t *testing.T) {
		got, err := e.Correct(CorrectInput{ID: rec.ID, Amount: reais(0)}, records)
		require.NoError(t, err)
		require.NotNil(t, got.Amount)
		assert.Equal(t, domain.Money(0), *got.Amount)
	})

	t.Run("nil retracts the deal", func(t *testing.T) {
		got, err := e.Correct(CorrectInput{ID: rec.ID}, records)
		require.NoError(t, err)
		assert.Nil(t, got.Amount)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := e.Correct(CorrectInput{ID: rec.ID, Amount: reais(-1)}, records)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("above the cap rejected", func(t *testing.T) {
		_, err := e.Correct(CorrectInput{ID: rec.ID, Amount: domain.AmountOf(domain.MaxAmount + 1)}, records)
		require.ErrorIs(t, err, domain.ErrAmountTooLarge)
		require.NotErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("cap accepted", func(t *testing.T) {
		got, err := e.Correct(CorrectInput{ID: rec.ID, Amount: domain.AmountOf(domain.MaxAmount)}, records)
		require.NoError(t, err)
		assert.Equal(t, domain.MaxAmount, *got.Amount)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := e.Correct(CorrectInput{ID: uuid.New(), Amount: reais(1)}, records)
		require.ErrorIs(t, err, domain.ErrRecordNotFound)
	})
}

func TestLargeAmountsKeepTotalsExact(t *testing.T) {
	e := fixedEngine()
	companies := append(directory(), domain.Company{TaxID: "B", Name: "BETA", Role: domain.RoleBuyer})

	var body struct {
		Amount *domain.Money `json:"amount"`
	}
	require.ErrorIs(t, json.Unmarshal([]byte(`{"amount": 50000000000000000}`), &body), domain.ErrAmountTooLarge)

	var records []domain.Negotiation
	for _, buyer := range []string{"A", "B"} {
		rec, err := e.Submit(SubmitInput{BuyerTaxID: buyer, SellerTaxID: "X", Amount: domain.AmountOf(domain.MaxAmount)}, companies, records)
		require.NoError(t, err)
		records = append(records, rec)
	}

	sum := Summarize(companies, records)
	assert.Equal(t, 2*domain.MaxAmount, sum.TotalVolume)
	assert.Equal(t, domain.MaxAmount, sum.AverageTicket)

	seller := Coverage(companies[1], companies, records)
	assert.Equal(t, 2*domain.MaxAmount, seller.TotalAmount)
	assert.Greater(t, int64(seller.TotalAmount), int64(0))
}
