package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
)

func TestConflictErr_RetriesEsgotadosViramConflito(t *testing.T) {
	// O WithTx devolve o erro do driver quando os retries acabam; o repositório
	// traduz para o erro terminal que o chamador pode reexecutar.
	raw := fmt.Errorf("debiting wallet: %w", &pq.Error{Code: "40001"})

	err := conflictErr(raw)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "concurrency_conflict", domain.ErrorKind(err))

	err = conflictErr(&pq.Error{Code: "40P01"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConflictErr_OutrosErrosPassamIntactos(t *testing.T) {
	assert.NoError(t, conflictErr(nil))

	unique := error(&pq.Error{Code: "23505"})
	assert.Same(t, unique, conflictErr(unique))
	assert.Equal(t, "persistence_error", domain.ErrorKind(conflictErr(unique)))

	business := domain.ErrEscrowNotActive
	assert.Same(t, business, conflictErr(business))
	assert.False(t, errors.Is(conflictErr(business), domain.ErrConflict))
}
