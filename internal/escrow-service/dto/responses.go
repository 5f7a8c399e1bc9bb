package dto

import "time"

// ErrorResponse é o corpo de erro da API: mensagem + kind estável.
// Party identifica a parte sem saldo em falhas de financiamento.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Party string `json:"party,omitempty"`
}

type WalletResponse struct {
	WalletID string `json:"wallet_id"`
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Status   string `json:"status"`
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"wallet_id"`
	Amount      string    `json:"amount"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	ExternalRef string    `json:"external_ref,omitempty"`
	EscrowID    string    `json:"escrow_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	Total        int64                 `json:"total"`
}

type BetResponse struct {
	BetID           string     `json:"bet_id"`
	CreatorID       string     `json:"creator_id"`
	EventID         string     `json:"event_id"`
	BetType         string     `json:"bet_type"`
	Selection       string     `json:"selection"`
	Line            *string    `json:"line,omitempty"`
	Stake           string     `json:"stake"`
	Odds            string     `json:"odds"`
	PotentialPayout string     `json:"potential_payout"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	EventStartsAt   time.Time  `json:"event_starts_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type MatchResponse struct {
	BetMatchID  string `json:"bet_match_id"`
	BetID       string `json:"bet_id"`
	TakerID     string `json:"taker_id"`
	TakerStake  string `json:"taker_stake"`
	TakerPayout string `json:"taker_payout"`
	Status      string `json:"status"`
}

type EscrowResponse struct {
	EscrowID        string     `json:"escrow_id"`
	BetMatchID      string     `json:"bet_match_id"`
	Amount          string     `json:"amount"`
	PlatformFee     string     `json:"platform_fee"`
	Status          string     `json:"status"`
	WinnerID        string     `json:"winner_id,omitempty"`
	DisputeReason   string     `json:"dispute_reason,omitempty"`
	DisputedBy      string     `json:"disputed_by,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ReleasedAt      *time.Time `json:"released_at,omitempty"`
}

type PayoutResponse struct {
	PayoutID      string `json:"payout_id"`
	UserID        string `json:"user_id"`
	EscrowID      string `json:"escrow_id"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

type ResolutionResponse struct {
	Escrow EscrowResponse  `json:"escrow"`
	Payout *PayoutResponse `json:"payout,omitempty"`
}

type WithdrawResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
}
