package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/phenrril/rodada/internal/domain"
)

const issuer = "rodada"

var (
	ErrTokenExpired = errors.New("sessão expirada")
	ErrTokenInvalid = errors.New("sessão inválida")
)

// Claims: a company session carries TaxID and Role; an admin session only Admin.
type Claims struct {
	TaxID string      `json:"tax_id,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
	Admin bool        `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewTokens(signingKey string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}
}

func (t *Tokens) issue(c Claims) (string, error) {
	now := t.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   c.TaxID,
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.signingKey)
}

func (t *Tokens) ForCompany(c domain.Company) (string, error) {
	return t.issue(Claims{TaxID: c.TaxID, Role: c.Role})
}

func (t *Tokens) ForAdmin() (string, error) {
	return t.issue(Claims{Admin: true})
}

func (t *Tokens) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if !claims.Admin && (claims.TaxID == "" || !claims.Role.Valid()) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
