package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{ErrWalletNotFound, "not_found"},
		{ErrBetNotFound, "not_found"},
		{ErrMatchNotFound, "not_found"},
		{ErrEscrowNotFound, "not_found"},
		{ErrInsufficientFunds, "insufficient_funds"},
		{ErrWalletInactive, "invalid_state"},
		{ErrBetNotOpen, "invalid_state"},
		{ErrEscrowNotActive, "invalid_state"},
		{ErrEscrowNotDisputed, "invalid_state"},
		{ErrInvalidTransition, "invalid_state"},
		{ErrEscrowExists, "invalid_state"},
		{ErrEventStarted, "invalid_state"},
		{ErrPush, "invalid_state"},
		{ErrNotParty, "unauthorized"},
		{ErrWinnerNotParty, "unauthorized"},
		{ErrSelfMatch, "validation_error"},
		{ErrValidation, "validation_error"},
		{ErrConflict, "concurrency_conflict"},
		{errors.New("driver: bad connection"), "persistence_error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, ErrorKind(tc.err), "%v", tc.err)
	}
}

func TestErrorKind_ErroEmbrulhado(t *testing.T) {
	err := fmt.Errorf("debiting creator leg: %w", ErrInsufficientFunds)
	assert.Equal(t, "insufficient_funds", ErrorKind(err))
}

func TestInsufficientFundsError_ApontaAParte(t *testing.T) {
	err := error(&InsufficientFundsError{Party: PartyTaker})

	// Continua respondendo ao sentinel genérico.
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "insufficient_funds", ErrorKind(err))

	var ife *InsufficientFundsError
	wrapped := fmt.Errorf("funding escrow: %w", err)
	assert.True(t, errors.As(wrapped, &ife))
	assert.Equal(t, PartyTaker, ife.Party)
}
