package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/vms-retention/internal/audit"
	"github.com/xela07ax/vms-retention/internal/console/handler"
	"github.com/xela07ax/vms-retention/internal/console/server"
	"github.com/xela07ax/vms-retention/internal/console/service"
	"github.com/xela07ax/vms-retention/internal/infra"
	"github.com/xela07ax/vms-retention/internal/repository/memory"
	"github.com/xela07ax/vms-retention/internal/repository/postgres"
	"github.com/xela07ax/vms-retention/internal/retention"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Контекст жизненного цикла фоновых горутин: SIGTERM отменяет его
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Хранилище реестра: Postgres, либо память для локального запуска
	var (
		repo      service.RetentionPolicyRepository
		changeLog audit.StorageInterface
	)
	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(appCtx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("database unreachable", zap.Error(err))
		}
		defer pool.Close()
		repo = postgres.NewRetentionPolicyRepo(pool)
		changeLog = postgres.NewChangeLogRepo(pool)
	} else {
		logger.Warn("database.url is empty: retention registry is kept in memory only")
		repo = memory.NewRetentionPolicyRepo()
		changeLog = memory.NewChangeLogRepo(0)
	}

	// 3. Redis: рассылка и приём сигналов обновления реестра
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	notifier := infra.NewRedisNotifier(rdb, cfg.Retention.RefreshChannel)

	// 4. Журнал изменений
	auditor := audit.NewChangeLog(changeLog, cfg.Retention.AuditBufferSize, cfg.Retention.AuditFlushInterval, logger)
	auditor.Start()

	// 5. Метрики, кэш реестра, сервис
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry := retention.NewRegistry(repo, retention.NewMetrics(reg), logger)

	svc := service.NewRetentionPolicyService(repo, notifier, auditor, cfg.Retention.KnownTables, logger).
		WithLocalRefresh(registry)

	if cfg.Retention.SeedFile != "" {
		policies, err := retention.LoadSeedFile(cfg.Retention.SeedFile)
		if err != nil {
			logger.Fatal("failed to load seed policies", zap.Error(err))
		}
		n, err := retention.Seed(appCtx, svc, policies, logger)
		if err != nil {
			logger.Fatal("failed to seed retention policies", zap.Error(err))
		}
		logger.Info("seed policies applied", zap.Int("created", n), zap.Int("in_file", len(policies)))
	}

	if err := registry.Refresh(appCtx); err != nil {
		logger.Fatal("initial registry load failed", zap.Error(err))
	}
	go registry.Listen(appCtx, rdb, cfg.Retention.RefreshChannel)

	// 6. HTTP
	h := handler.NewRetentionPolicyHandler(svc, registry, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.NewConsoleServer(cfg.Server, logger, reg, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("retention console started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 7. Graceful Shutdown
	<-appCtx.Done()
	logger.Info("retention console stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	// после остановки HTTP новых изменений нет — дописываем журнал
	auditor.Stop()
	logger.Info("retention console exited properly")
}
