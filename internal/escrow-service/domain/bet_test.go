package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dptr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func validTerms() BetTerms {
	return BetTerms{
		Type:          BetMoneyline,
		Selection:     "home",
		Stake:         d("100.00"),
		Odds:          d("1.95"),
		Currency:      "BRL",
		EventStartsAt: testNow.Add(2 * time.Hour),
	}
}

func TestNewBet_PayoutETakerStake(t *testing.T) {
	b, err := NewBet("alice", "evt-1", validTerms(), testNow)
	require.NoError(t, err)

	// 100 * 1.95 = 195.00; o tomador cobre a diferença de 95.00.
	assert.True(t, b.PotentialPayout.Equal(d("195.00")), "payout: %s", b.PotentialPayout)
	assert.True(t, b.TakerStake().Equal(d("95.00")), "taker stake: %s", b.TakerStake())
	assert.Equal(t, BetOpen, b.Status)
	assert.NotEmpty(t, b.ID)
}

func TestNewBet_ArredondaPayout(t *testing.T) {
	terms := validTerms()
	terms.Stake = d("33.33")
	terms.Odds = d("2.15")

	b, err := NewBet("alice", "evt-1", terms, testNow)
	require.NoError(t, err)

	// 33.33 * 2.15 = 71.6595 -> 71.66
	assert.True(t, b.PotentialPayout.Equal(d("71.66")), "payout: %s", b.PotentialPayout)
}

func TestNewBet_Validacao(t *testing.T) {
	cases := []struct {
		name   string
		mut    func(*BetTerms)
		expect error
	}{
		{"stake zero", func(tm *BetTerms) { tm.Stake = d("0") }, ErrValidation},
		{"stake negativo", func(tm *BetTerms) { tm.Stake = d("-5") }, ErrValidation},
		{"odds abaixo do minimo", func(tm *BetTerms) { tm.Odds = d("1.00") }, ErrValidation},
		{"sem moeda", func(tm *BetTerms) { tm.Currency = "" }, ErrValidation},
		{"evento ja comecou", func(tm *BetTerms) { tm.EventStartsAt = testNow.Add(-time.Minute) }, ErrEventStarted},
		{"expiracao no passado", func(tm *BetTerms) {
			past := testNow.Add(-time.Hour)
			tm.ExpiresAt = &past
		}, ErrValidation},
		{"spread sem linha", func(tm *BetTerms) { tm.Type = BetSpread }, ErrValidation},
		{"over_under sem linha", func(tm *BetTerms) { tm.Type = BetOverUnder; tm.Selection = "over" }, ErrValidation},
		{"tipo desconhecido", func(tm *BetTerms) { tm.Type = "parlay" }, ErrValidation},
		{"sem selecao", func(tm *BetTerms) { tm.Selection = "" }, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			terms := validTerms()
			tc.mut(&terms)
			_, err := NewBet("alice", "evt-1", terms, testNow)
			assert.ErrorIs(t, err, tc.expect)
		})
	}

	_, err := NewBet("", "evt-1", validTerms(), testNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewBet_OddsMinimasAceitas(t *testing.T) {
	terms := validTerms()
	terms.Odds = d("1.01")
	_, err := NewBet("alice", "evt-1", terms, testNow)
	assert.NoError(t, err)
}

func TestNewBet_SpreadComLinha(t *testing.T) {
	terms := validTerms()
	terms.Type = BetSpread
	terms.Line = dptr("-3.5")

	b, err := NewBet("alice", "evt-1", terms, testNow)
	require.NoError(t, err)
	assert.True(t, b.Line.Equal(d("-3.5")))
}
