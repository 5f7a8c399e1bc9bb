package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutCompleted PayoutStatus = "completed"
	PayoutFailed    PayoutStatus = "failed"
)

// Payout é o crédito do vencedor numa liquidação. Um por escrow liquidado.
type Payout struct {
	ID            string
	UserID        string
	EscrowID      string
	Amount        decimal.Decimal
	Status        PayoutStatus
	TransactionID string
	CreatedAt     time.Time
}

// Resolution é o desfecho de uma arbitragem administrativa:
// liberação para um vencedor (Payout preenchido) ou reembolso das partes.
type Resolution struct {
	Escrow *Escrow
	Payout *Payout // nil em reembolso
}
