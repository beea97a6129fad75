package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("não encontrado")
	ErrInvalidInput = errors.New("dados inválidos")

	// Ledger validation.
	ErrUnknownParty         = errors.New("empresa desconhecida")
	ErrInvalidAmount        = errors.New("valor de negociação inválido")
	ErrAmountTooLarge       = errors.New("valor acima do máximo permitido (R$ 1.000.000.000,00)")
	ErrDuplicateNegotiation = errors.New("negociação já registrada para este par")
	ErrRecordNotFound       = errors.New("negociação não encontrada")

	// Directory and event gates.
	ErrCompanyExists      = errors.New("CNPJ já cadastrado")
	ErrRegistrationClosed = errors.New("cadastro fechado para este perfil")
	ErrNegotiationsClosed = errors.New("lançamento de negociações bloqueado pela organização")
	ErrInvalidCredentials = errors.New("CNPJ ou senha incorretos")
)

// UnknownPartyError: the tax id does not exist or does not hold Role.
type UnknownPartyError struct {
	TaxID string
	Role  Role
}

func (e *UnknownPartyError) Error() string {
	return fmt.Sprintf("%s: %q não é %s", ErrUnknownParty, e.TaxID, e.Role)
}

func (e *UnknownPartyError) Unwrap() error { return ErrUnknownParty }

type DuplicateNegotiationError struct {
	BuyerTaxID  string
	SellerTaxID string
	// ExistingID is uuid.Nil when the store reported the conflict without the row.
	ExistingID uuid.UUID
}

func (e *DuplicateNegotiationError) Error() string {
	return fmt.Sprintf("%s (%s, %s)", ErrDuplicateNegotiation, e.BuyerTaxID, e.SellerTaxID)
}

func (e *DuplicateNegotiationError) Unwrap() error { return ErrDuplicateNegotiation }
