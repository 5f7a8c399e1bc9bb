package dto

import "time"

type CreateBetRequest struct {
	UserID        string     `json:"user_id"`
	EventID       string     `json:"event_id"`
	BetType       string     `json:"bet_type"` // moneyline | spread | over_under | prop
	Selection     string     `json:"selection"`
	Line          *string    `json:"line,omitempty"` // decimal em string
	Stake         string     `json:"stake"`
	Odds          string     `json:"odds"`
	Currency      string     `json:"currency"`
	EventStartsAt time.Time  `json:"event_starts_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type MatchBetRequest struct {
	UserID string `json:"user_id"` // tomador
}

type CancelBetRequest struct {
	UserID string `json:"user_id"`
}

type CreateEscrowRequest struct {
	BetMatchID string `json:"bet_match_id"`
}

type ReleaseEscrowRequest struct {
	WinnerID string `json:"winner_id"`
}

type DisputeEscrowRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type ResolveEscrowRequest struct {
	AdminID  string  `json:"admin_id"`
	WinnerID *string `json:"winner_id"` // null reembolsa as duas partes
	Notes    string  `json:"notes"`
}

type WithdrawRequest struct {
	UserID     string `json:"user_id"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"`
	GatewayRef string `json:"gateway_ref"`
}
