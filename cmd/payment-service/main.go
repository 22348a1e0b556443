package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	pcache "github.com/radieske/payments-ledger/internal/payment-service/cache"
	"github.com/radieske/payments-ledger/internal/payment-service/engine"
	phttp "github.com/radieske/payments-ledger/internal/payment-service/http"
	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
	"github.com/radieske/payments-ledger/internal/payment-service/producer"
	"github.com/radieske/payments-ledger/internal/payment-service/repo"
	"github.com/radieske/payments-ledger/internal/shared/cache"
	"github.com/radieske/payments-ledger/internal/shared/config"
	"github.com/radieske/payments-ledger/internal/shared/db"
	skafka "github.com/radieske/payments-ledger/internal/shared/kafka"
	"github.com/radieske/payments-ledger/internal/shared/logger"
	"github.com/radieske/payments-ledger/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	// Inicializa logger estruturado
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres guarda usuários, requisições, transações e IBANs
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	store := repo.NewPostgres(pg)
	if cfg.AutoMigrate {
		if err := store.ApplySchema(ctx); err != nil {
			log.Fatal("apply schema", zap.Error(err))
		}
	}

	// Redis só cacheia a lista de IBANs ativos
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPaymentEvents)
	defer writer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	policy := engine.PolicyFor(cfg.Env, cfg.AutoApproveDeposits)
	eng := engine.New(store, engine.Options{
		Limits: engine.Limits{
			Deposit:    ledger.NewBounds(cfg.MinDeposit, cfg.MaxDeposit),
			Withdrawal: ledger.NewBounds(cfg.MinWithdrawal, cfg.MaxWithdrawal),
		},
		Policy:    policy,
		Publisher: producer.NewKafkaPublisher(writer, cfg.TopicPaymentEvents),
		Ibans:     pcache.NewRedisCache(rdb, cfg.IbanCacheTTL, log),
		Metrics:   engine.NewMetrics(reg),
		Logger:    log,
	})
	log.Info("starting service",
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
		zap.Bool("autoApproveDeposits", policy.AutoApprove()))

	api := phttp.NewServer(log, eng, phttp.Company{
		IBAN:          cfg.CompanyIBAN,
		BankName:      cfg.CompanyBankName,
		AccountHolder: cfg.CompanyAccountHolder,
		BranchCode:    cfg.CompanyBranchCode,
	}, cfg.JWTSecret)

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, reg, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	}, func(err error) {
		log.Error("metrics srv", zap.Error(err))
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api srv", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
