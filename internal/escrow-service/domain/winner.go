package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EventResult é o placar final fornecido pelo feed de eventos.
// Props mapeia a seleção de uma prop bet para "won", "lost" ou "void".
type EventResult struct {
	EventID   string
	HomeScore int
	AwayScore int
	Cancelled bool
	Props     map[string]string
}

// DetermineWinner mapeia o tipo de aposta e o placar final para o usuário
// vencedor. Função pura; é o gatilho externo de liquidação que a invoca.
// Retorna ErrPush quando o resultado anula a aposta (evento cancelado,
// handicap ou total exatamente na linha, prop anulada).
func DetermineWinner(bet *Bet, match *BetMatch, res EventResult) (string, error) {
	if res.EventID != bet.EventID {
		return "", fmt.Errorf("result for event %s, bet on %s: %w", res.EventID, bet.EventID, ErrValidation)
	}
	if res.Cancelled {
		return "", ErrPush
	}

	creatorWins := false
	switch bet.Type {
	case BetMoneyline:
		if res.HomeScore == res.AwayScore {
			return "", ErrPush
		}
		winner := "away"
		if res.HomeScore > res.AwayScore {
			winner = "home"
		}
		creatorWins = bet.Selection == winner

	case BetSpread:
		// A linha aplica-se ao time escolhido pelo criador.
		picked, other := sideScores(bet.Selection, res)
		adjusted := bet.Line.Add(intDecimal(picked))
		cmp := adjusted.Cmp(intDecimal(other))
		if cmp == 0 {
			return "", ErrPush
		}
		creatorWins = cmp > 0

	case BetOverUnder:
		total := intDecimal(res.HomeScore + res.AwayScore)
		cmp := total.Cmp(*bet.Line)
		if cmp == 0 {
			return "", ErrPush
		}
		if bet.Selection == "over" {
			creatorWins = cmp > 0
		} else {
			creatorWins = cmp < 0
		}

	case BetProp:
		outcome, ok := res.Props[bet.Selection]
		if !ok {
			return "", fmt.Errorf("no outcome for prop %q: %w", bet.Selection, ErrValidation)
		}
		switch outcome {
		case "won":
			creatorWins = true
		case "lost":
			creatorWins = false
		case "void":
			return "", ErrPush
		default:
			return "", fmt.Errorf("unknown prop outcome %q: %w", outcome, ErrValidation)
		}

	default:
		return "", fmt.Errorf("unknown bet type %q: %w", bet.Type, ErrValidation)
	}

	if creatorWins {
		return bet.CreatorID, nil
	}
	return match.TakerID, nil
}

func intDecimal(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func sideScores(selection string, res EventResult) (picked, other int) {
	if selection == "home" {
		return res.HomeScore, res.AwayScore
	}
	return res.AwayScore, res.HomeScore
}
