package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultBet(typ BetType, selection string, line *decimalPtrArg) *Bet {
	b := &Bet{
		CreatorID: "alice",
		EventID:   "evt-1",
		Type:      typ,
		Selection: selection,
	}
	if line != nil {
		b.Line = dptr(line.s)
	}
	return b
}

type decimalPtrArg struct{ s string }

func line(s string) *decimalPtrArg { return &decimalPtrArg{s} }

var resultMatch = &BetMatch{TakerID: "bob"}

func TestDetermineWinner_Moneyline(t *testing.T) {
	bet := resultBet(BetMoneyline, "home", nil)

	winner, err := DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-1", HomeScore: 2, AwayScore: 1})
	require.NoError(t, err)
	assert.Equal(t, "alice", winner)

	winner, err = DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-1", HomeScore: 0, AwayScore: 3})
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)

	_, err = DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-1", HomeScore: 1, AwayScore: 1})
	assert.ErrorIs(t, err, ErrPush)
}

func TestDetermineWinner_Spread(t *testing.T) {
	// Criador pegou o mandante com handicap de -3.5.
	bet := resultBet(BetSpread, "home", line("-3.5"))

	winner, err := DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-1", HomeScore: 30, AwayScore: 20})
	require.NoError(t, err)
	assert.Equal(t, "alice", winner)

	winner, err = DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-1", HomeScore: 23, AwayScore: 20})
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)

	// Linha inteira caindo exatamente no placar ajustado: push.
	betWhole := resultBet(BetSpread, "home", line("-3"))
	_, err = DetermineWinner(betWhole, resultMatch, EventResult{EventID: "evt-1", HomeScore: 23, AwayScore: 20})
	assert.ErrorIs(t, err, ErrPush)

	// O handicap acompanha o lado escolhido, visitante incluso.
	betAway := resultBet(BetSpread, "away", line("5.5"))
	winner, err = DetermineWinner(betAway, resultMatch, EventResult{EventID: "evt-1", HomeScore: 24, AwayScore: 20})
	require.NoError(t, err)
	assert.Equal(t, "alice", winner)
}

func TestDetermineWinner_OverUnder(t *testing.T) {
	over := resultBet(BetOverUnder, "over", line("45.5"))
	under := resultBet(BetOverUnder, "under", line("45.5"))
	res := EventResult{EventID: "evt-1", HomeScore: 28, AwayScore: 21} // total 49

	winner, err := DetermineWinner(over, resultMatch, res)
	require.NoError(t, err)
	assert.Equal(t, "alice", winner)

	winner, err = DetermineWinner(under, resultMatch, res)
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)

	exact := resultBet(BetOverUnder, "over", line("49"))
	_, err = DetermineWinner(exact, resultMatch, res)
	assert.ErrorIs(t, err, ErrPush)
}

func TestDetermineWinner_Prop(t *testing.T) {
	bet := resultBet(BetProp, "first_goal_home", nil)

	winner, err := DetermineWinner(bet, resultMatch, EventResult{
		EventID: "evt-1", Props: map[string]string{"first_goal_home": "won"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", winner)

	winner, err = DetermineWinner(bet, resultMatch, EventResult{
		EventID: "evt-1", Props: map[string]string{"first_goal_home": "lost"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)

	_, err = DetermineWinner(bet, resultMatch, EventResult{
		EventID: "evt-1", Props: map[string]string{"first_goal_home": "void"},
	})
	assert.ErrorIs(t, err, ErrPush)

	_, err = DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-1", Props: map[string]string{}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = DetermineWinner(bet, resultMatch, EventResult{
		EventID: "evt-1", Props: map[string]string{"first_goal_home": "maybe"},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDetermineWinner_EventoCancelado(t *testing.T) {
	bet := resultBet(BetMoneyline, "home", nil)
	_, err := DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-1", Cancelled: true})
	assert.ErrorIs(t, err, ErrPush)
}

func TestDetermineWinner_EventoErrado(t *testing.T) {
	bet := resultBet(BetMoneyline, "home", nil)
	_, err := DetermineWinner(bet, resultMatch, EventResult{EventID: "evt-2", HomeScore: 1})
	assert.ErrorIs(t, err, ErrValidation)
}
