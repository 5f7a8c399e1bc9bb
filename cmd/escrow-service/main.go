package main

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform/internal/escrow-service/cache"
	ehttp "github.com/radieske/p2p-wager-platform/internal/escrow-service/http"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/producer"
	"github.com/radieske/p2p-wager-platform/internal/escrow-service/repo"
	sharedcache "github.com/radieske/p2p-wager-platform/internal/shared/cache"
	"github.com/radieske/p2p-wager-platform/internal/shared/config"
	"github.com/radieske/p2p-wager-platform/internal/shared/db"
	"github.com/radieske/p2p-wager-platform/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform/internal/shared/logger"
	"github.com/radieske/p2p-wager-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("escrow-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	feeRate, err := decimal.NewFromString(cfg.PlatformFeeRate)
	if err != nil {
		log.Fatal("invalid PLATFORM_FEE_RATE", zap.String("value", cfg.PlatformFeeRate), zap.Error(err))
	}

	// Conexão com Postgres: única fonte de verdade do core
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis é cache de leitura opcional; sem ele o serviço segue direto no banco
	var rcache *cache.ReadCache
	if rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr); err != nil {
		log.Warn("redis unavailable, running without read cache", zap.Error(err))
	} else {
		rcache = cache.New(rdb)
		defer rdb.Close()
	}

	// Publicador dos eventos de ciclo de vida do escrow
	publ := &producer.KafkaPublisher{
		Opened:   kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEscrowOpened),
		Settled:  kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEscrowSettled),
		Refunded: kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEscrowRefunded),
		Disputed: kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDisputeOpened),
	}
	defer publ.Opened.Close()
	defer publ.Settled.Close()
	defer publ.Refunded.Close()
	defer publ.Disputed.Close()

	engine := repo.NewPostgres(pg, feeRate, cfg.PlatformAccountID)
	api := ehttp.NewServer(log, engine, publ, rcache)

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)

	// Servidor HTTP público (API do core)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
