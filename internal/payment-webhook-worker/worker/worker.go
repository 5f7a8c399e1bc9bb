package worker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
	"github.com/radieske/p2p-wager-platform/internal/shared/metrics"
	"github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

// Ledger são as operações do ledger acionadas por callbacks do gateway.
type Ledger interface {
	ApplyDeposit(ctx context.Context, userID, currency string, amount decimal.Decimal, gatewayRef string) error
	SettleWithdrawal(ctx context.Context, gatewayRef string, succeeded bool) error
}

// Applier traduz eventos do gateway de pagamento em mutações idempotentes do
// ledger: o gateway_ref é a chave — reentrega do mesmo evento é no-op.
type Applier struct {
	log    *zap.Logger
	ledger Ledger
}

func New(log *zap.Logger, ledger Ledger) *Applier {
	return &Applier{log: log, ledger: ledger}
}

// Process aplica um evento do gateway. Erro retornado manda a mensagem para a DLQ.
func (a *Applier) Process(ctx context.Context, ev events.PaymentEvent) error {
	if ev.GatewayRef == "" {
		return fmt.Errorf("payment event without gateway_ref: %w", domain.ErrValidation)
	}

	switch ev.Kind {
	case events.PaymentDepositCompleted:
		amount, err := decimal.NewFromString(ev.Amount)
		if err != nil {
			return fmt.Errorf("invalid deposit amount %q: %w", ev.Amount, domain.ErrValidation)
		}
		if err := a.ledger.ApplyDeposit(ctx, ev.UserID, ev.Currency, amount, ev.GatewayRef); err != nil {
			return fmt.Errorf("apply deposit %s: %w", ev.GatewayRef, err)
		}
		metrics.LedgerEntries.WithLabelValues(string(domain.TxDeposit)).Inc()
		a.log.Info("deposit applied",
			zap.String("userId", ev.UserID), zap.String("gatewayRef", ev.GatewayRef))
		return nil

	case events.PaymentWithdrawalSettled, events.PaymentWithdrawalFailed:
		ok := ev.Kind == events.PaymentWithdrawalSettled
		if err := a.ledger.SettleWithdrawal(ctx, ev.GatewayRef, ok); err != nil {
			return fmt.Errorf("settle withdrawal %s: %w", ev.GatewayRef, err)
		}
		a.log.Info("withdrawal settled",
			zap.String("gatewayRef", ev.GatewayRef), zap.Bool("succeeded", ok))
		return nil

	default:
		return fmt.Errorf("unknown payment event kind %q: %w", ev.Kind, domain.ErrValidation)
	}
}
