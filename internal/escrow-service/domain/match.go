package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchSettled   MatchStatus = "settled"
	MatchCancelled MatchStatus = "cancelled"
	MatchRefunded  MatchStatus = "refunded"
	MatchDisputed  MatchStatus = "disputed"
)

// BetMatch é o pareamento de uma aposta com um tomador contrário.
// Um-para-um com o escrow depois do financiamento.
type BetMatch struct {
	ID          string
	BetID       string
	TakerID     string
	TakerStake  decimal.Decimal
	TakerPayout decimal.Decimal // o mesmo pote: creator_stake + taker_stake
	Status      MatchStatus
	FundedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
