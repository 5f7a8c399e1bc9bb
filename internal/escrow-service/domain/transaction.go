package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxKind string

const (
	TxDeposit    TxKind = "deposit"
	TxWithdrawal TxKind = "withdrawal"
	TxBet        TxKind = "bet"
	TxWin        TxKind = "win"
	TxFee        TxKind = "fee"
	TxRefund     TxKind = "refund"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
	TxCancelled TxStatus = "cancelled"
)

// TxMetadata carrega os campos esperados por tipo de lançamento.
// Campos de escrow valem para bet/win/fee/refund; GatewayRef para
// deposit/withdrawal. Serializado como jsonb.
type TxMetadata struct {
	EscrowID   string `json:"escrow_id,omitempty"`
	Role       string `json:"role,omitempty"` // "creator" | "taker" | "winner" | "platform"
	GatewayRef string `json:"gateway_ref,omitempty"`
	Note       string `json:"note,omitempty"`
}

// Transaction é o registro imutável de um delta de saldo.
// Criada exatamente uma vez por mutação; só o status muda depois,
// e apenas para métodos de pagamento assíncronos (saques).
type Transaction struct {
	ID          string
	WalletID    string
	Amount      decimal.Decimal // com sinal: débito negativo, crédito positivo
	Kind        TxKind
	Status      TxStatus
	ExternalRef string
	Metadata    TxMetadata
	CreatedAt   time.Time
}
