package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/domain"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/repo"
	"github.com/radieske/p2p-wager-platform/internal/payment-webhook-worker/worker"
	"github.com/radieske/p2p-wager-platform/internal/shared/config"
	"github.com/radieske/p2p-wager-platform/internal/shared/db"
	"github.com/radieske/p2p-wager-platform/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform/internal/shared/logger"
	"github.com/radieske/p2p-wager-platform/internal/shared/metrics"
	ev "github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("payment-webhook-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	feeRate, err := decimal.NewFromString(cfg.PlatformFeeRate)
	if err != nil {
		log.Fatal("invalid PLATFORM_FEE_RATE", zap.String("value", cfg.PlatformFeeRate), zap.Error(err))
	}

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: callbacks do gateway de pagamento
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPaymentEvents, "payment-webhook")
	defer reader.Close()

	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPaymentsDLQ)
	defer dlqWriter.Close()

	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)

	ledger := repo.NewPostgres(pg, feeRate, cfg.PlatformAccountID)
	applier := worker.New(log, ledger)

	log.Info("payment-webhook-worker started", zap.String("consume", cfg.TopicPaymentEvents))

	ctx := context.Background()

	// Loop principal: aplica cada evento do gateway no ledger, idempotente por
	// gateway_ref; evento malformado vai para a DLQ
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var pe ev.PaymentEvent
		if jerr := json.Unmarshal(msg.Value, &pe); jerr != nil {
			log.Error("unmarshal payment_event", zap.Error(jerr))
			_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			continue
		}

		if err := applier.Process(ctx, pe); err != nil {
			log.Error("process payment event",
				zap.String("gatewayRef", pe.GatewayRef), zap.Error(err))
			if errors.Is(err, domain.ErrValidation) {
				_ = kafka.WriteJSON(ctx, dlqWriter, pe.GatewayRef, msg.Value)
				continue
			}
			// Falha de persistência: backoff e manda para a DLQ para reprocesso manual
			time.Sleep(500 * time.Millisecond)
			_ = kafka.WriteJSON(ctx, dlqWriter, pe.GatewayRef, msg.Value)
		}
	}
}
