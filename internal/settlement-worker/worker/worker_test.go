package worker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/repo"
	"github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type released struct{ escrowID, winnerID string }

// fakeEngine registra as liberações e reembolsos pedidos pelo Settler.
type fakeEngine struct {
	candidates []repo.SettlementCandidate
	loadErr    error
	releaseErr map[string]error
	refundErr  map[string]error

	released []released
	refunded []string
}

func (f *fakeEngine) OpenEscrowsByEvent(ctx context.Context, eventID string) ([]repo.SettlementCandidate, error) {
	return f.candidates, f.loadErr
}

func (f *fakeEngine) Release(ctx context.Context, escrowID, winnerID string) (*domain.Payout, error) {
	if err := f.releaseErr[escrowID]; err != nil {
		return nil, err
	}
	f.released = append(f.released, released{escrowID, winnerID})
	return &domain.Payout{ID: "p-" + escrowID, UserID: winnerID, EscrowID: escrowID}, nil
}

func (f *fakeEngine) RefundVoid(ctx context.Context, escrowID, reason string) (*domain.Escrow, error) {
	if err := f.refundErr[escrowID]; err != nil {
		return nil, err
	}
	f.refunded = append(f.refunded, escrowID)
	return &domain.Escrow{ID: escrowID, Status: domain.EscrowRefunded}, nil
}

func candidate(escrowID, creator, taker, selection string) repo.SettlementCandidate {
	return repo.SettlementCandidate{
		EscrowID: escrowID,
		Bet: domain.Bet{
			ID:        "b-" + escrowID,
			CreatorID: creator,
			EventID:   "evt-1",
			Type:      domain.BetMoneyline,
			Selection: selection,
			Stake:     d("100.00"),
			Odds:      d("1.95"),
		},
		Match: domain.BetMatch{ID: "m-" + escrowID, TakerID: taker, TakerStake: d("95.00")},
	}
}

func TestProcessResult_LiberaParaOVencedor(t *testing.T) {
	eng := &fakeEngine{candidates: []repo.SettlementCandidate{
		candidate("e1", "alice", "bob", "home"),
		candidate("e2", "carol", "dave", "away"),
	}}
	s := New(zap.NewNop(), eng)

	err := s.ProcessResult(context.Background(), events.EventResult{
		EventID: "evt-1", HomeScore: 2, AwayScore: 1,
	})
	require.NoError(t, err)

	// Mandante venceu: criador de "home" leva, tomador de "away" leva.
	assert.Equal(t, []released{{"e1", "alice"}, {"e2", "dave"}}, eng.released)
	assert.Empty(t, eng.refunded)
}

func TestProcessResult_PushReembolsa(t *testing.T) {
	eng := &fakeEngine{candidates: []repo.SettlementCandidate{
		candidate("e1", "alice", "bob", "home"),
	}}
	s := New(zap.NewNop(), eng)

	err := s.ProcessResult(context.Background(), events.EventResult{
		EventID: "evt-1", HomeScore: 1, AwayScore: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, eng.refunded)
	assert.Empty(t, eng.released)
}

func TestProcessResult_EventoCanceladoReembolsaTodos(t *testing.T) {
	eng := &fakeEngine{candidates: []repo.SettlementCandidate{
		candidate("e1", "alice", "bob", "home"),
		candidate("e2", "carol", "dave", "away"),
	}}
	s := New(zap.NewNop(), eng)

	err := s.ProcessResult(context.Background(), events.EventResult{
		EventID: "evt-1", Cancelled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, eng.refunded)
}

func TestProcessResult_EscrowJaLiquidadoEPulado(t *testing.T) {
	eng := &fakeEngine{
		candidates: []repo.SettlementCandidate{
			candidate("e1", "alice", "bob", "home"),
			candidate("e2", "carol", "dave", "away"),
		},
		releaseErr: map[string]error{"e1": domain.ErrEscrowNotActive},
	}
	s := New(zap.NewNop(), eng)

	// Corrida perdida com outra liquidação não derruba o lote.
	err := s.ProcessResult(context.Background(), events.EventResult{
		EventID: "evt-1", HomeScore: 2, AwayScore: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []released{{"e2", "dave"}}, eng.released)
}

func TestProcessResult_ErroRealVaiParaDLQ(t *testing.T) {
	eng := &fakeEngine{
		candidates: []repo.SettlementCandidate{
			candidate("e1", "alice", "bob", "home"),
			candidate("e2", "carol", "dave", "away"),
		},
		releaseErr: map[string]error{"e1": assert.AnError},
	}
	s := New(zap.NewNop(), eng)

	err := s.ProcessResult(context.Background(), events.EventResult{
		EventID: "evt-1", HomeScore: 2, AwayScore: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	// O restante do lote ainda é processado antes do erro subir.
	assert.Equal(t, []released{{"e2", "dave"}}, eng.released)
}

func TestProcessResult_SemCandidatos(t *testing.T) {
	eng := &fakeEngine{}
	s := New(zap.NewNop(), eng)
	err := s.ProcessResult(context.Background(), events.EventResult{EventID: "evt-1", HomeScore: 1})
	require.NoError(t, err)
}
