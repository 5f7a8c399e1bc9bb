package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/repo"
	"github.com/radieske/p2p-wager-platform/internal/shared/metrics"
	"github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

// Engine são as operações do motor de escrow usadas na liquidação por resultado.
type Engine interface {
	OpenEscrowsByEvent(ctx context.Context, eventID string) ([]repo.SettlementCandidate, error)
	Release(ctx context.Context, escrowID, winnerID string) (*domain.Payout, error)
	RefundVoid(ctx context.Context, escrowID, reason string) (*domain.Escrow, error)
}

// Settler aplica um resultado final de evento aos escrows ativos: determina o
// vencedor por aposta e libera (ou reembolsa num push). Escrows disputados não
// são tocados: ficam para a arbitragem.
type Settler struct {
	log    *zap.Logger
	engine Engine
}

func New(log *zap.Logger, engine Engine) *Settler {
	return &Settler{log: log, engine: engine}
}

// ProcessResult liquida todos os escrows ativos do evento. Erro retornado
// manda a mensagem para a DLQ; corrida perdida com outra liquidação ou com uma
// disputa recém-aberta é pulada, não é erro.
func (s *Settler) ProcessResult(ctx context.Context, res events.EventResult) error {
	candidates, err := s.engine.OpenEscrowsByEvent(ctx, res.EventID)
	if err != nil {
		return fmt.Errorf("load open escrows: %w", err)
	}

	domRes := domain.EventResult{
		EventID:   res.EventID,
		HomeScore: res.HomeScore,
		AwayScore: res.AwayScore,
		Cancelled: res.Cancelled,
		Props:     res.Props,
	}

	var firstErr error
	for _, c := range candidates {
		if err := s.settleOne(ctx, c, domRes); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Settler) settleOne(ctx context.Context, c repo.SettlementCandidate, res domain.EventResult) error {
	winner, err := domain.DetermineWinner(&c.Bet, &c.Match, res)
	switch {
	case errors.Is(err, domain.ErrPush):
		if _, rerr := s.engine.RefundVoid(ctx, c.EscrowID, "void result"); rerr != nil {
			if errors.Is(rerr, domain.ErrEscrowNotActive) {
				s.log.Info("escrow no longer active, skipping refund",
					zap.String("escrowId", c.EscrowID))
				return nil
			}
			return fmt.Errorf("refund escrow %s: %w", c.EscrowID, rerr)
		}
		metrics.EscrowsRefunded.Inc()
		s.log.Info("escrow refunded on push",
			zap.String("escrowId", c.EscrowID), zap.String("eventId", res.EventID))
		return nil

	case err != nil:
		return fmt.Errorf("determine winner for escrow %s: %w", c.EscrowID, err)
	}

	payout, err := s.engine.Release(ctx, c.EscrowID, winner)
	if err != nil {
		if errors.Is(err, domain.ErrEscrowNotActive) {
			s.log.Info("escrow no longer active, skipping release",
				zap.String("escrowId", c.EscrowID))
			return nil
		}
		return fmt.Errorf("release escrow %s: %w", c.EscrowID, err)
	}
	metrics.EscrowsSettled.Inc()
	s.log.Info("escrow settled",
		zap.String("escrowId", c.EscrowID),
		zap.String("winnerId", winner),
		zap.String("payoutId", payout.ID))
	return nil
}
