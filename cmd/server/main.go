package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/himanshu-dandle/telco-customer-churn/internal/config"
	"github.com/himanshu-dandle/telco-customer-churn/internal/database"
	"github.com/himanshu-dandle/telco-customer-churn/internal/handler"
	"github.com/himanshu-dandle/telco-customer-churn/internal/logging"
	"github.com/himanshu-dandle/telco-customer-churn/internal/metrics"
	"github.com/himanshu-dandle/telco-customer-churn/internal/repository"
	"github.com/himanshu-dandle/telco-customer-churn/internal/secrets"
	"github.com/himanshu-dandle/telco-customer-churn/internal/service"
)

// main is the single entry‑point for the REST API.
func main() {
	// Load configuration
	cfg := config.Load()

	logFile := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Console:    os.Stdout,
	})
	defer logFile.Close()

	log.Info().
		Str("port", cfg.Port).
		Str("model_backend", cfg.ModelBackend).
		Str("secret_provider", cfg.SecretProvider).
		Bool("audit", cfg.AuditEnabled()).
		Msg("[Startup] configuration loaded")

	ctx := context.Background()

	apiKey := loadAPIKey(ctx, cfg)
	model, closeModel := loadModel(ctx, cfg)
	defer closeModel()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// The audit store is optional; without it predictions are only logged.
	var (
		recorder service.PredictionRecorder
		auditDB  *mongo.Client
	)
	if cfg.AuditEnabled() {
		client, err := database.NewMongo(ctx, cfg.MongoURI, 10*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("[Startup] failed to connect to MongoDB; prediction audit disabled")
		} else {
			defer client.Disconnect(context.Background())
			repo := repository.NewPredictionRepository(client.Database(cfg.DBName), 5*time.Second)
			if err := repo.EnsureIndexes(ctx); err != nil {
				log.Warn().Err(err).Msg("[Startup] failed to create prediction indexes")
			}
			recorder = repo
			auditDB = client
			log.Info().Str("db", cfg.DBName).Msg("[Startup] prediction audit enabled")
		}
	}

	predictions := service.NewPredictionService(model, recorder, m)

	app := handler.NewApp(handler.ServerOptions{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, handler.Dependencies{
		Predictions: predictions,
		APIKey:      apiKey,
		Metrics:     m,
		AuditDB:     auditDB,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("[Shutdown] signal received, draining connections")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("[Shutdown] graceful shutdown failed")
		}
	}()

	// Start server
	log.Info().Str("port", cfg.Port).Msg("[Startup] server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("[Startup] server failed to start")
	}
	log.Info().Msg("[Shutdown] server stopped")
}

// loadAPIKey fetches the key once. A failure leaves the key unconfigured and
// /predict answers 500 until the service is restarted.
func loadAPIKey(ctx context.Context, cfg config.Config) secrets.APIKey {
	ctx, cancel := context.WithTimeout(ctx, cfg.SecretTimeout)
	defer cancel()

	store, err := secrets.NewStore(ctx, secrets.Options{
		Provider:        cfg.SecretProvider,
		KeyVaultName:    cfg.KeyVaultName,
		ProjectID:       cfg.ProjectID,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		log.Error().Err(err).Str("provider", cfg.SecretProvider).Msg("[Startup] failed to create secret store")
		return secrets.APIKey{}
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	return secrets.LoadAPIKey(ctx, store, cfg.SecretName)
}

// loadModel returns the model state and a cleanup func for the backend.
func loadModel(ctx context.Context, cfg config.Config) (service.ModelState, func()) {
	switch cfg.ModelBackend {
	case "vertex":
		vp, err := service.NewVertexPredictor(ctx, cfg.ProjectID, cfg.Location, cfg.VertexEndpointID, cfg.CredentialsFile)
		if err != nil {
			log.Error().Err(err).Msg("[Model] failed to initialize Vertex AI predictor")
			return service.NotLoaded(), func() {}
		}
		log.Info().Str("endpoint", vp.Name()).Msg("[Model] using Vertex AI endpoint")
		return service.Loaded(vp), func() { _ = vp.Close() }
	case "local", "":
		return service.LoadModel(filepath.Clean(cfg.ModelPath)), func() {}
	default:
		log.Error().Str("backend", cfg.ModelBackend).Msg("[Model] unknown model backend")
		return service.NotLoaded(), func() {}
	}
}
