package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EscrowStatus string

const (
	EscrowActive    EscrowStatus = "active"
	EscrowCompleted EscrowStatus = "completed"
	EscrowDisputed  EscrowStatus = "disputed"
	EscrowRefunded  EscrowStatus = "refunded"
	EscrowCancelled EscrowStatus = "cancelled"
)

// escrowTransitions é a única fonte de verdade das transições legais:
// active -> completed|disputed|refunded|cancelled; disputed -> completed|refunded.
var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowActive:   {EscrowCompleted, EscrowDisputed, EscrowRefunded, EscrowCancelled},
	EscrowDisputed: {EscrowCompleted, EscrowRefunded},
}

// CanTransition informa se a transição from -> to é legal.
func CanTransition(from, to EscrowStatus) bool {
	for _, s := range escrowTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Escrow é a custódia do pote entre o match e a liquidação.
// amount = creator_stake + taker_stake, fixado na criação e nunca alterado.
type Escrow struct {
	ID              string
	BetMatchID      string
	Amount          decimal.Decimal
	PlatformFee     decimal.Decimal
	Status          EscrowStatus
	WinnerID        string
	DisputeReason   string
	DisputedBy      string
	ResolvedBy      string
	ResolutionNotes string
	ReleasedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal informa se o escrow chegou a um estado final.
func (e *Escrow) IsTerminal() bool {
	switch e.Status {
	case EscrowCompleted, EscrowRefunded, EscrowCancelled:
		return true
	}
	return false
}

// Winnings é o que o vencedor recebe: amount - platform_fee, exato.
func (e *Escrow) Winnings() decimal.Decimal {
	return e.Amount.Sub(e.PlatformFee)
}

// ComputePlatformFee calcula round(amount * rate) a 2 casas. A taxa é fixada
// no momento da criação do escrow e não se aplica em reembolsos.
func ComputePlatformFee(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
