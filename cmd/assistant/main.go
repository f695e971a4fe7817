// cmd/assistant/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Samtoosoon/bankgpt/internal/audit"
	awsclients "github.com/Samtoosoon/bankgpt/internal/common/aws"
	"github.com/Samtoosoon/bankgpt/internal/common/config"
	"github.com/Samtoosoon/bankgpt/internal/common/database"
	"github.com/Samtoosoon/bankgpt/internal/common/logger"
	"github.com/Samtoosoon/bankgpt/internal/common/observability"
	"github.com/Samtoosoon/bankgpt/internal/conversation"
	"github.com/Samtoosoon/bankgpt/internal/conversation/extractor"
	"github.com/Samtoosoon/bankgpt/internal/directory"
	"github.com/Samtoosoon/bankgpt/internal/notification"
	"github.com/Samtoosoon/bankgpt/internal/renderer"
	"github.com/Samtoosoon/bankgpt/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = operation(); err == nil {
			return nil
		}
		log.Warn("operation failed, retrying",
			zap.String("operation", operationName),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Applicant directory ---
	var dir directory.Directory
	switch cfg.Directory.Source {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, time.Second, zapLog, "postgres connection")
		if err != nil {
			zapLog.Fatal("postgres unavailable", zap.Error(err))
		}
		defer pg.Close()

		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 5, time.Second, zapLog, "redis connection")
		if err != nil {
			zapLog.Fatal("redis unavailable", zap.Error(err))
		}
		defer rdb.Close()

		dir = directory.NewPostgresDirectory(
			pg.GetDB(),
			rdb.GetClient(),
			time.Duration(cfg.Directory.CacheTTL)*time.Second,
			log,
		)
	default:
		dir, err = directory.NewStaticDirectory(cfg.Directory.SeedPath)
		if err != nil {
			zapLog.Fatal("seed directory load failed", zap.Error(err))
		}
	}

	// --- Session store ---
	var sessionRedis *database.RedisClient
	err = retryWithBackoff(func() error {
		sessionRedis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return sessionRedis.Ping(ctx)
	}, 5, time.Second, zapLog, "session redis connection")
	if err != nil {
		zapLog.Fatal("session store unavailable", zap.Error(err))
	}
	defer sessionRedis.Close()
	sessions := server.NewSessionStore(
		sessionRedis.GetClient(),
		time.Duration(cfg.Conversation.SessionTTL)*time.Second,
	)

	// --- Audit trail ---
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 5, time.Second, zapLog, "elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch unavailable", zap.Error(err))
		}
		recorder = audit.NewRecorder(es.Client, cfg.Audit.Index, log)
	}

	// --- Notifications ---
	var notifier *notification.Notifier
	if cfg.Notifications.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		notifier = notification.NewNotifier(&notification.Config{
			Enabled:      true,
			SenderEmail:  cfg.Notifications.SenderEmail,
			SMSEnabled:   cfg.Notifications.SMSEnabled,
			AnnualRate:   cfg.Conversation.InterestRate,
			TenureMonths: cfg.Conversation.TenureMonths,
		}, sesClient, snsClient, log)
	}

	// --- Conversation core ---
	genai := renderer.NewGenAI(&renderer.Config{
		BaseURL:        cfg.GenAI.BaseURL,
		Timeout:        time.Duration(cfg.GenAI.Timeout) * time.Millisecond,
		MaxRetries:     cfg.GenAI.MaxRetries,
		MaxTokens:      cfg.GenAI.MaxTokens,
		Temperature:    cfg.GenAI.Temperature,
		MinReplyLength: cfg.Conversation.MinReplyLength,
	}, log)
	machine := conversation.NewMachine(extractor.New(dir, log), genai, cfg.Conversation.HistoryWindow, log)

	srv := server.New(&server.Config{
		AnnualRate:   cfg.Conversation.InterestRate,
		TenureMonths: cfg.Conversation.TenureMonths,
	}, machine, sessions, dir, recorder, notifier, obs, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("assistant listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("directory", cfg.Directory.Source),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("assistant stopped")
}
