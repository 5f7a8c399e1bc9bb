package events

import "time"

// EscrowOpened é emitido quando um match é financiado e o escrow criado.
type EscrowOpened struct {
	EscrowID    string `json:"escrow_id"`
	BetMatchID  string `json:"bet_match_id"`
	BetID       string `json:"bet_id"`
	CreatorID   string `json:"creator_id"`
	TakerID     string `json:"taker_id"`
	Amount      string `json:"amount"`
	PlatformFee string `json:"platform_fee"`
	Currency    string `json:"currency"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

// EscrowSettled é emitido quando o escrow é liberado para o vencedor.
type EscrowSettled struct {
	EscrowID   string `json:"escrow_id"`
	BetMatchID string `json:"bet_match_id"`
	WinnerID   string `json:"winner_id"`
	PayoutID   string `json:"payout_id"`
	Winnings   string `json:"winnings"`
	ResolvedBy string `json:"resolved_by,omitempty"` // preenchido quando veio de arbitragem
	TsUnixMs   int64  `json:"ts_unix_ms"`
}

// EscrowRefunded é emitido quando as partes são reembolsadas (disputa ou push).
type EscrowRefunded struct {
	EscrowID   string `json:"escrow_id"`
	BetMatchID string `json:"bet_match_id"`
	Reason     string `json:"reason,omitempty"`
	ResolvedBy string `json:"resolved_by,omitempty"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}

// DisputeOpened é emitido quando uma das partes abre disputa.
type DisputeOpened struct {
	EscrowID   string    `json:"escrow_id"`
	BetMatchID string    `json:"bet_match_id"`
	OpenedBy   string    `json:"opened_by"`
	Reason     string    `json:"reason"`
	Ts         time.Time `json:"ts"`
}
