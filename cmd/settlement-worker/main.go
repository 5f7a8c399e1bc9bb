package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/repo"
	"github.com/radieske/p2p-wager-platform/internal/settlement-worker/worker"
	"github.com/radieske/p2p-wager-platform/internal/shared/config"
	"github.com/radieske/p2p-wager-platform/internal/shared/db"
	"github.com/radieske/p2p-wager-platform/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform/internal/shared/logger"
	"github.com/radieske/p2p-wager-platform/internal/shared/metrics"
	ev "github.com/radieske/p2p-wager-platform/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
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

	// Kafka consumer: resultados finais de eventos publicados pelo feed
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicEventResults, "settlement")
	defer reader.Close()

	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventResultsDLQ)
	defer dlqWriter.Close()

	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)

	engine := repo.NewPostgres(pg, feeRate, cfg.PlatformAccountID)
	settler := worker.New(log, engine)

	log.Info("settlement-worker started", zap.String("consume", cfg.TopicEventResults))

	ctx := context.Background()

	// Loop principal: consome resultados e liquida os escrows do evento
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var res ev.EventResult
		if jerr := json.Unmarshal(msg.Value, &res); jerr != nil {
			log.Error("unmarshal event_result", zap.Error(jerr))
			_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			continue
		}

		if err := settler.ProcessResult(ctx, res); err != nil {
			log.Error("process result", zap.String("eventId", res.EventID), zap.Error(err))
			_ = kafka.WriteJSON(ctx, dlqWriter, res.EventID, msg.Value)
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}
