package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in centavos (BRL minor unit). Integer arithmetic only.
type Money int64

// MaxAmount is the largest value a single negotiation may carry,
// R$ 1.000.000.000,00. Totals stay inside int64 for up to 92 million records
// at the cap.
const MaxAmount Money = 1_000_000_000 * 100

// MoneyFromReais rounds v to the nearest centavo. NaN, infinities and values
// whose magnitude exceeds MaxAmount are rejected.
func MoneyFromReais(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errBadAmount
	}
	if math.Abs(v) > MaxAmount.Reais() {
		return 0, ErrAmountTooLarge
	}
	return Money(math.Round(v * 100)), nil
}

func (m Money) Reais() float64 { return float64(m) / 100 }

// String renders pt-BR currency: R$ 1.234,56.
func (m Money) String() string {
	neg := m < 0
	v := int64(m)
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v/100, 10)
	n := len(s)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out := s[:rem]
	for i := rem; i < n; i += 3 {
		out += "." + s[i:i+3]
	}
	out = fmt.Sprintf("R$ %s,%02d", out, v%100)
	if neg {
		return "-" + out
	}
	return out
}

// Fixed2 is the export format: 1234.56
func (m Money) Fixed2() string { return strconv.FormatFloat(m.Reais(), 'f', 2, 64) }

var errBadAmount = errors.New("valor inválido")

// ParseBRL applies the form's input mask: every digit is kept and the
// result is read as centavos. "R$ 1.234,56", "1.234,56" and "123456" are all
// R$ 1.234,56; "500" is R$ 5,00. Besides digits only dots, commas, blanks, an
// "R$" prefix and a leading minus are accepted.
func ParseBRL(s string) (Money, error) {
	v := strings.TrimSpace(s)
	neg := strings.HasPrefix(v, "-")
	v = strings.TrimPrefix(v, "-")
	v = strings.TrimPrefix(strings.TrimSpace(v), "R$")

	var digits strings.Builder
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '.', r == ',', r == ' ', r == '\u00a0':
		default:
			return 0, errBadAmount
		}
	}
	if digits.Len() == 0 {
		return 0, errBadAmount
	}
	c, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil || Money(c) > MaxAmount {
		// Every rune is a digit, so ParseInt can only fail on range.
		return 0, ErrAmountTooLarge
	}
	m := Money(c)
	if neg {
		m = -m
	}
	return m, nil
}

// MarshalJSON writes reais as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Fixed2()), nil
}

// UnmarshalJSON accepts a number in reais or a masked BRL string (see ParseBRL).
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseBRL(s)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidInput, s, err)
		}
		*m = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%w: valor", ErrInvalidInput)
	}
	v, err := MoneyFromReais(f)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	*m = v
	return nil
}
