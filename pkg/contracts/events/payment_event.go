package events

// Tipos de evento enviados pelo gateway de pagamento.
const (
	PaymentDepositCompleted  = "deposit_completed"
	PaymentWithdrawalSettled = "withdrawal_settled"
	PaymentWithdrawalFailed  = "withdrawal_failed"
)

// PaymentEvent é o callback do gateway de pagamento, entregue via Kafka.
// GatewayRef é a chave de idempotência: reentrega do mesmo evento é no-op no ledger.
type PaymentEvent struct {
	Kind       string `json:"kind"`
	UserID     string `json:"user_id"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"` // decimal em string, ex: "150.00"
	GatewayRef string `json:"gateway_ref"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
