package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/volkovda/chess-arena/config"
	"github.com/volkovda/chess-arena/db"
	"github.com/volkovda/chess-arena/engine"
	"github.com/volkovda/chess-arena/handlers"
	"github.com/volkovda/chess-arena/live"
	"github.com/volkovda/chess-arena/repositories"
	api "github.com/volkovda/chess-arena/routes"
	"github.com/volkovda/chess-arena/services"
	"github.com/volkovda/chess-arena/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("engine", cfg.PairingEnginePath),
		slog.Bool("allow_open_round_generation", cfg.AllowOpenRoundGeneration))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Архив PGN (Cloudflare R2) - опционален.
	var uploader storage.FileUploader
	if cfg.PGNArchiveEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("PGN archive uploader initialized")
	} else {
		logger.Warn("PGN archive disabled: R2 credentials not configured")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	logger.Info("Repositories initialized")

	// Внешний движок жеребьевки
	runner := engine.NewExecRunner(cfg.PairingEnginePath, cfg.PairingEngineTimeout)

	// Инициализация сервисов
	tournamentService := services.NewTournamentService(tournamentRepo)
	registrationService := services.NewRegistrationService(tournamentRepo, registrationRepo)
	roundService := services.NewRoundService(
		dbConn,
		tournamentRepo,
		registrationRepo,
		gameRepo,
		runner,
		wsHub,
		logger,
		services.RoundServiceConfig{AllowOpenRoundGeneration: cfg.AllowOpenRoundGeneration},
	)
	resultService := services.NewResultService(dbConn, gameRepo, uploader, wsHub, logger)
	standingsService := services.NewStandingsService(tournamentRepo, registrationRepo, gameRepo)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, registrationService)
	roundHandler := handlers.NewRoundHandler(roundService, standingsService)
	gameHandler := handlers.NewGameHandler(resultService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, tournamentHandler, roundHandler, gameHandler, webSocketHandler)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute, // Генерация тура ждет внешний движок
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
