package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ccodesido/zentiumassist-all/internal/alert"
	"github.com/ccodesido/zentiumassist-all/internal/auth"
	"github.com/ccodesido/zentiumassist-all/internal/config"
	"github.com/ccodesido/zentiumassist-all/internal/core"
	"github.com/ccodesido/zentiumassist-all/internal/db"
	httpserver "github.com/ccodesido/zentiumassist-all/internal/http"
	"github.com/ccodesido/zentiumassist-all/internal/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	var (
		store  core.Store
		dbConn *sql.DB
	)
	if cfg.DatabaseURL != "" {
		dbConn, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer dbConn.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = dbConn.PingContext(pingCtx)
		cancel()
		if err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		store = db.NewRepository(dbConn)
		logger.Info("using postgres store")
	} else {
		store = db.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	if !cfg.AgentConfigured() {
		logger.Warn("OPENAI_API_KEY not set, chat will answer with the fallback reply")
	}
	llmClient := llm.NewOpenAIClient(llm.Options{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		ChatModel:       cfg.ChatModel,
		ClassifierModel: cfg.ClassifierModel,
	})

	alerters := core.MultiAlerter{core.LogAlerter{Logger: logger}}
	if cfg.CrisisNotifyChannel != "" && dbConn != nil {
		alerters = append(alerters, db.NewNotifier(dbConn, cfg.CrisisNotifyChannel))
		logger.Info("crisis alerts via postgres notify", zap.String("channel", cfg.CrisisNotifyChannel))
	}
	if cfg.CrisisAlertQueue != "" {
		publisher, err := alert.NewSQSPublisher(ctx, cfg.CrisisAlertQueue)
		if err != nil {
			logger.Fatal("failed to set up crisis alert queue", zap.Error(err))
		}
		alerters = append(alerters, publisher)
		logger.Info("crisis alerts via sqs", zap.String("queue_url", publisher.QueueURL))
	}

	chat := core.NewChatService(llmClient, store, store, logger)
	chat.Policy = core.NewCrisisPolicy(cfg.ExtraCrisisKeywords...)
	chat.Alerter = alerters
	chat.Timeout = cfg.AgentTimeout
	chat.HistoryLimit = cfg.HistoryDefaultLimit

	analyzer := core.NewAnalyzer(llmClient, logger)
	records := core.NewRecordService(store, analyzer, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), logger)

	handler := httpserver.NewServer(records, chat, store, logger, httpserver.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		RequestTimeout:  cfg.RequestTimeout,
		AgentConfigured: cfg.AgentConfigured(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
