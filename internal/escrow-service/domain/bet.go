package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BetType string

const (
	BetMoneyline BetType = "moneyline"
	BetSpread    BetType = "spread"
	BetOverUnder BetType = "over_under"
	BetProp      BetType = "prop"
)

type BetStatus string

const (
	BetOpen      BetStatus = "open"
	BetMatched   BetStatus = "matched"
	BetSettled   BetStatus = "settled"
	BetCancelled BetStatus = "cancelled"
	BetRefunded  BetStatus = "refunded"
)

// MinOdds é a cotação mínima aceita para uma aposta.
var MinOdds = decimal.RequireFromString("1.01")

// Bet é a oferta de aposta de um criador. Imutável após o match,
// exceto pelo status.
type Bet struct {
	ID              string
	CreatorID       string
	EventID         string
	Type            BetType
	Selection       string           // "home"/"away", "over"/"under" ou nome da prop
	Line            *decimal.Decimal // handicap ou total; nil para moneyline/prop
	Stake           decimal.Decimal
	Odds            decimal.Decimal
	PotentialPayout decimal.Decimal
	Currency        string
	Status          BetStatus
	EventStartsAt   time.Time
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BetTerms são os termos informados pelo criador ao abrir a aposta.
type BetTerms struct {
	Type          BetType
	Selection     string
	Line          *decimal.Decimal
	Stake         decimal.Decimal
	Odds          decimal.Decimal
	Currency      string
	EventStartsAt time.Time
	ExpiresAt     *time.Time
}

// NewBet valida os termos e monta a aposta com payout potencial calculado.
// Não movimenta carteira nenhuma.
func NewBet(creatorID, eventID string, terms BetTerms, now time.Time) (*Bet, error) {
	if creatorID == "" || eventID == "" {
		return nil, fmt.Errorf("creator and event required: %w", ErrValidation)
	}
	if !terms.Stake.IsPositive() {
		return nil, fmt.Errorf("stake must be positive: %w", ErrValidation)
	}
	if terms.Odds.LessThan(MinOdds) {
		return nil, fmt.Errorf("odds below %s: %w", MinOdds, ErrValidation)
	}
	if terms.Currency == "" {
		return nil, fmt.Errorf("currency required: %w", ErrValidation)
	}
	if !terms.EventStartsAt.After(now) {
		return nil, fmt.Errorf("event already started: %w", ErrEventStarted)
	}
	if terms.ExpiresAt != nil && !terms.ExpiresAt.After(now) {
		return nil, fmt.Errorf("expiry in the past: %w", ErrValidation)
	}
	switch terms.Type {
	case BetMoneyline, BetProp:
		if terms.Selection == "" {
			return nil, fmt.Errorf("selection required: %w", ErrValidation)
		}
	case BetSpread, BetOverUnder:
		if terms.Selection == "" || terms.Line == nil {
			return nil, fmt.Errorf("selection and line required: %w", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("unknown bet type %q: %w", terms.Type, ErrValidation)
	}

	return &Bet{
		ID:              uuid.NewString(),
		CreatorID:       creatorID,
		EventID:         eventID,
		Type:            terms.Type,
		Selection:       terms.Selection,
		Line:            terms.Line,
		Stake:           terms.Stake,
		Odds:            terms.Odds,
		PotentialPayout: PotentialPayout(terms.Stake, terms.Odds),
		Currency:        terms.Currency,
		Status:          BetOpen,
		EventStartsAt:   terms.EventStartsAt,
		ExpiresAt:       terms.ExpiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// PotentialPayout calcula stake * odds arredondado a 2 casas.
func PotentialPayout(stake, odds decimal.Decimal) decimal.Decimal {
	return stake.Mul(odds).Round(2)
}

// TakerStake é quanto o tomador precisa arriscar para fechar o pote:
// potential_payout - creator_stake.
func (b *Bet) TakerStake() decimal.Decimal {
	return b.PotentialPayout.Sub(b.Stake)
}
