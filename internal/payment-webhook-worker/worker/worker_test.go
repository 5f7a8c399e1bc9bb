package worker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
	"github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

type depositCall struct {
	userID, currency, gatewayRef string
	amount                       decimal.Decimal
}

type settleCall struct {
	gatewayRef string
	succeeded  bool
}

type fakeLedger struct {
	depositErr error
	settleErr  error

	deposits []depositCall
	settles  []settleCall
}

func (f *fakeLedger) ApplyDeposit(ctx context.Context, userID, currency string, amount decimal.Decimal, gatewayRef string) error {
	if f.depositErr != nil {
		return f.depositErr
	}
	f.deposits = append(f.deposits, depositCall{userID, currency, gatewayRef, amount})
	return nil
}

func (f *fakeLedger) SettleWithdrawal(ctx context.Context, gatewayRef string, succeeded bool) error {
	if f.settleErr != nil {
		return f.settleErr
	}
	f.settles = append(f.settles, settleCall{gatewayRef, succeeded})
	return nil
}

func TestProcess_DepositoCreditaACarteira(t *testing.T) {
	ledger := &fakeLedger{}
	a := New(zap.NewNop(), ledger)

	err := a.Process(context.Background(), events.PaymentEvent{
		Kind:       events.PaymentDepositCompleted,
		UserID:     "alice",
		Currency:   "BRL",
		Amount:     "150.00",
		GatewayRef: "gw-1",
	})
	require.NoError(t, err)

	require.Len(t, ledger.deposits, 1)
	dep := ledger.deposits[0]
	assert.Equal(t, "alice", dep.userID)
	assert.Equal(t, "gw-1", dep.gatewayRef)
	assert.True(t, dep.amount.Equal(decimal.RequireFromString("150.00")))
}

func TestProcess_SaqueLiquidadoEFalho(t *testing.T) {
	ledger := &fakeLedger{}
	a := New(zap.NewNop(), ledger)

	require.NoError(t, a.Process(context.Background(), events.PaymentEvent{
		Kind: events.PaymentWithdrawalSettled, GatewayRef: "gw-2",
	}))
	require.NoError(t, a.Process(context.Background(), events.PaymentEvent{
		Kind: events.PaymentWithdrawalFailed, GatewayRef: "gw-3",
	}))

	assert.Equal(t, []settleCall{{"gw-2", true}, {"gw-3", false}}, ledger.settles)
}

func TestProcess_EventoInvalido(t *testing.T) {
	a := New(zap.NewNop(), &fakeLedger{})

	cases := []struct {
		name string
		ev   events.PaymentEvent
	}{
		{"sem gateway_ref", events.PaymentEvent{Kind: events.PaymentDepositCompleted, Amount: "10"}},
		{"valor invalido", events.PaymentEvent{Kind: events.PaymentDepositCompleted, Amount: "dez", GatewayRef: "gw-4"}},
		{"kind desconhecido", events.PaymentEvent{Kind: "chargeback", GatewayRef: "gw-5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Process(context.Background(), tc.ev)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestProcess_ErroDePersistenciaSobe(t *testing.T) {
	ledger := &fakeLedger{depositErr: assert.AnError}
	a := New(zap.NewNop(), ledger)

	err := a.Process(context.Background(), events.PaymentEvent{
		Kind: events.PaymentDepositCompleted, UserID: "alice",
		Currency: "BRL", Amount: "10.00", GatewayRef: "gw-6",
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, domain.ErrValidation)
}
