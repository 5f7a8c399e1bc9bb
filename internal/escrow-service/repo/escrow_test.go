package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
)

func TestTagParty_MarcaAParteSemSaldo(t *testing.T) {
	// Carteira criada sob demanda nasce zerada: o débito do financiamento falha
	// por saldo insuficiente e sai marcado com a parte, nunca como not_found.
	err := tagParty(domain.PartyTaker, domain.ErrInsufficientFunds)

	var ife *domain.InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, domain.PartyTaker, ife.Party)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, "insufficient_funds", domain.ErrorKind(err))

	err = tagParty(domain.PartyCreator, fmt.Errorf("debit: %w", domain.ErrInsufficientFunds))
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, domain.PartyCreator, ife.Party)
}

func TestTagParty_OutrosErrosPassamIntactos(t *testing.T) {
	inactive := error(domain.ErrWalletInactive)
	assert.Same(t, inactive, tagParty(domain.PartyCreator, inactive))

	var ife *domain.InsufficientFundsError
	assert.False(t, errors.As(tagParty(domain.PartyTaker, assert.AnError), &ife))
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, checkTransition(domain.EscrowActive, domain.EscrowCompleted))
	assert.NoError(t, checkTransition(domain.EscrowDisputed, domain.EscrowCompleted))
	assert.NoError(t, checkTransition(domain.EscrowActive, domain.EscrowRefunded))
	assert.NoError(t, checkTransition(domain.EscrowDisputed, domain.EscrowRefunded))

	// Estados terminais não saem do lugar, nem com flip condicional correto.
	for _, from := range []domain.EscrowStatus{
		domain.EscrowCompleted, domain.EscrowRefunded, domain.EscrowCancelled,
	} {
		err := checkTransition(from, domain.EscrowCompleted)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s", from)
		assert.Equal(t, "invalid_state", domain.ErrorKind(err))
	}
}
