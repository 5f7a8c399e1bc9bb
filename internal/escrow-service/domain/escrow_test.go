package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to EscrowStatus }{
		{EscrowActive, EscrowCompleted},
		{EscrowActive, EscrowDisputed},
		{EscrowActive, EscrowRefunded},
		{EscrowActive, EscrowCancelled},
		{EscrowDisputed, EscrowCompleted},
		{EscrowDisputed, EscrowRefunded},
	}
	for _, tr := range legal {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s deveria ser legal", tr.from, tr.to)
	}

	illegal := []struct{ from, to EscrowStatus }{
		{EscrowCompleted, EscrowRefunded},
		{EscrowCompleted, EscrowActive},
		{EscrowRefunded, EscrowCompleted},
		{EscrowCancelled, EscrowActive},
		{EscrowDisputed, EscrowCancelled},
		{EscrowDisputed, EscrowActive},
	}
	for _, tr := range illegal {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s deveria ser ilegal", tr.from, tr.to)
	}
}

func TestEscrow_IsTerminal(t *testing.T) {
	for _, s := range []EscrowStatus{EscrowCompleted, EscrowRefunded, EscrowCancelled} {
		e := &Escrow{Status: s}
		assert.True(t, e.IsTerminal(), "%s", s)
	}
	for _, s := range []EscrowStatus{EscrowActive, EscrowDisputed} {
		e := &Escrow{Status: s}
		assert.False(t, e.IsTerminal(), "%s", s)
	}
}

func TestComputePlatformFee_EConservacao(t *testing.T) {
	// Pote de 195.00 a 3%: taxa 5.85, vencedor leva 189.15.
	amount := d("195.00")
	fee := ComputePlatformFee(amount, d("0.03"))
	assert.True(t, fee.Equal(d("5.85")), "fee: %s", fee)

	e := &Escrow{Amount: amount, PlatformFee: fee}
	winnings := e.Winnings()
	assert.True(t, winnings.Equal(d("189.15")), "winnings: %s", winnings)

	// Conservação: tudo que entrou sai, entre vencedor e plataforma.
	assert.True(t, winnings.Add(fee).Equal(amount))
}

func TestComputePlatformFee_Arredonda(t *testing.T) {
	// 71.66 * 0.03 = 2.1498 -> 2.15
	fee := ComputePlatformFee(d("71.66"), d("0.03"))
	assert.True(t, fee.Equal(d("2.15")), "fee: %s", fee)
}

func TestComputePlatformFee_TaxaZero(t *testing.T) {
	fee := ComputePlatformFee(d("195.00"), d("0"))
	assert.True(t, fee.IsZero())

	e := &Escrow{Amount: d("195.00"), PlatformFee: fee}
	assert.True(t, e.Winnings().Equal(d("195.00")))
}
