package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores das operações do core de escrow/ledger.
var (
	EscrowsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrows_created_total",
		Help: "Escrows criados (matches financiados)",
	})

	EscrowsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrows_settled_total",
		Help: "Escrows liberados para um vencedor",
	})

	EscrowsRefunded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrows_refunded_total",
		Help: "Escrows reembolsados (disputa ou push)",
	})

	DisputesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disputes_opened_total",
		Help: "Disputas abertas por uma das partes",
	})

	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_total",
		Help: "Lançamentos no ledger por tipo",
	}, []string{"kind"})

	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "core_operation_errors_total",
		Help: "Erros de operação por tipo de erro",
	}, []string{"op", "kind"})
)
