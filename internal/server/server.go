package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/alaris-labs/papergraph/internal/config"
	"github.com/alaris-labs/papergraph/internal/db"
	"github.com/alaris-labs/papergraph/internal/queue"
	mid "github.com/alaris-labs/papergraph/internal/server/middleware"
	"github.com/alaris-labs/papergraph/internal/storage"
	"github.com/alaris-labs/papergraph/pkg/logger"
	s3loader "github.com/alaris-labs/papergraph/pkg/loader/s3"
	pgstore "github.com/alaris-labs/papergraph/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app.
func New(app *mid.App, bodyLimit string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	RegisterRoutes(e)
	return e
}

// Run wires the collaborators from cfg and serves until ctx is done.
func Run(ctx context.Context, cfg config.Config) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(db.MigrateParams{DatabaseURL: cfg.DatabaseURL, Dir: cfg.MigrationsPath}); err != nil {
			return err
		}
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	app := &mid.App{
		Store:        pgstore.NewGraphDBStorageWithConnection(pool),
		MasterAPIKey: cfg.Auth.MasterAPIKey,
		AuthEnabled:  cfg.Auth.Enabled(),
	}

	if cfg.Auth.URL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.Auth.URL + "/jwks"})
		if err != nil {
			return fmt.Errorf("failed to load jwks keys: %w", err)
		}
		app.Keyfunc = k.Keyfunc
	}

	if client, err := cfg.AI.NewAIClient(); err != nil {
		logger.Warn("[Server] Explanations disabled", "err", err)
	} else {
		app.AIClient = client
	}

	if cfg.S3.Bucket != "" {
		s3Client, err := s3loader.NewClient(ctx, cfg.S3.LoaderParams())
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		app.Uploads = storage.New(cfg.S3.Bucket, s3Client)
	}

	que, err := queue.Dial(cfg.RabbitMQ.URL())
	if err != nil {
		logger.Warn("[Server] Ingestion disabled", "err", err)
	} else {
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			return fmt.Errorf("failed to open channel: %w", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
			return err
		}
		app.Queue = ch
	}

	e := New(app, "100M")

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
	return nil
}
