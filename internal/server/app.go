// Package server initializes and runs the school media server: it connects
// the database and object storage, runs migrations, wires the ingestion and
// moderation services, and starts the HTTP API with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/config"
	"schoolmedia/internal/server/gateway"
	httpapi "schoolmedia/internal/server/http"
	"schoolmedia/internal/server/ingest"
	"schoolmedia/internal/server/moderation"
	"schoolmedia/internal/server/repositories/repomanager"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	gw, err := gateway.NewS3Gateway(ctx, gateway.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		PresignTTL:   cfg.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("media gateway init error: %w", err)
	}

	mediaRepo := rm.Media(db)

	coord := ingest.NewCoordinator(gw, logger, cfg.RollbackRetryAttempts, cfg.RollbackRetryBackoff)
	orch := ingest.NewOrchestrator(gw, mediaRepo, coord, logger, cfg.OpTimeout)
	ingestService := ingest.NewService(orch, coord, mediaRepo, logger)
	moderationService := moderation.NewService(gw, rm.Staged(db), mediaRepo, logger)

	srv := httpapi.NewServer(logger, cfg.EndpointAddrHTTP, cfg.SecretKey,
		httpapi.NewAuthHandler(rm.Users(db), cfg.SecretKey, cfg.AccessTokenValidityDuration, logger),
		httpapi.NewBatchesHandler(ingestService, logger),
		httpapi.NewMediaHandler(ingestService, mediaRepo, gw, logger),
		httpapi.NewModerationHandler(moderationService, logger),
	)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}

	wg.Wait()
}
