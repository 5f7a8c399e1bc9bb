package topics

const (
	// Ciclo de vida do escrow
	EscrowOpened   = "escrow_opened"
	EscrowSettled  = "escrow_settled"
	EscrowRefunded = "escrow_refunded"
	DisputeOpened  = "dispute_opened"

	// Resultados finais de eventos (feed externo)
	EventResults = "event_results"

	// Callbacks do gateway de pagamento
	PaymentEvents = "payment_events"

	// DLQs
	EventResultsDLQ  = "event_results_dlq"
	PaymentEventsDLQ = "payment_events_dlq"
)
