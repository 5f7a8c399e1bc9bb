package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de ciclo de vida do escrow para
// consumidores downstream (notificações, relatórios). Publicação é melhor
// esforço: falha aqui não desfaz a operação já commitada.
type KafkaPublisher struct {
	Opened   *kafka.Writer
	Settled  *kafka.Writer
	Refunded *kafka.Writer
	Disputed *kafka.Writer
}

func (p *KafkaPublisher) PublishEscrowOpened(ctx context.Context, e events.EscrowOpened) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.Opened, e.EscrowID, e)
}

func (p *KafkaPublisher) PublishEscrowSettled(ctx context.Context, e events.EscrowSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.Settled, e.EscrowID, e)
}

func (p *KafkaPublisher) PublishEscrowRefunded(ctx context.Context, e events.EscrowRefunded) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.Refunded, e.EscrowID, e)
}

func (p *KafkaPublisher) PublishDisputeOpened(ctx context.Context, e events.DisputeOpened) error {
	e.Ts = time.Now()
	return writeJSON(ctx, p.Disputed, e.EscrowID, e)
}

func writeJSON(ctx context.Context, w *kafka.Writer, key string, v any) error {
	if w == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}
