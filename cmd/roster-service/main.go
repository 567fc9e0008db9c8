// Package main запускает HTTP-сервис состава команд коллективов
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"team-roster-service/internal/auth"
	"team-roster-service/internal/cache"
	"team-roster-service/internal/config"
	httpapi "team-roster-service/internal/http"
	"team-roster-service/internal/metrics"
	"team-roster-service/internal/repository"
	"team-roster-service/internal/service"
)

func main() {
	// Контекст для корректного завершения
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Чтение конфигурации из ENV и .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Инициализация логгера (JSON)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	// Миграции схемы
	if cfg.Migrate {
		if err := repository.Migrate(cfg.DBDSN); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		logger.Info("migrations applied")
	}

	// Подключение к БД
	db, err := repository.NewPostgres(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to init postgres: %v", err)
	}
	defer db.Close()

	// Кеш снимков (необязателен)
	var snapshots service.SnapshotCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRosterCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("failed to init redis: %v", err)
		}
		defer rc.Close()
		snapshots = rc
	}

	// 1. Инициализация репозиториев
	collectiveRepo := repository.NewCollectiveRepo(db)
	memberRepo := repository.NewMemberRepo(db)
	invitationRepo := repository.NewInvitationRepo(db)
	personRepo := repository.NewPersonRepo(db)

	// 2. Инициализация Менеджера Транзакций
	txManager := repository.NewTransactionManager(db)

	// 3. Инициализация сервисов
	rosterService := service.NewRosterService(collectiveRepo, memberRepo, invitationRepo, personRepo, txManager, snapshots, logger)
	personService := service.NewPersonService(personRepo)
	userService := service.NewUserService(personRepo, memberRepo)

	// 4. Инициализация HTTP-обработчика
	handler := httpapi.NewHandler(rosterService, personService, userService, auth.NewTokens(cfg.JWTSecret), logger,
		httpapi.WithMetrics(metrics.New()),
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		logger.Info("starting http server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("err", err))
			cancel()
		}
	}()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server shutdown error", slog.Any("err", err))
	}

	logger.Info("server stopped")
}
