package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/analysis"
	"github.com/rahul4469/crisis-analyzer/internal/config"
	"github.com/rahul4469/crisis-analyzer/internal/controllers"
	"github.com/rahul4469/crisis-analyzer/internal/cronjobs"
	"github.com/rahul4469/crisis-analyzer/internal/crypto"
	"github.com/rahul4469/crisis-analyzer/internal/logging"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"github.com/rahul4469/crisis-analyzer/internal/services"
	"github.com/rahul4469/crisis-analyzer/migrations"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.MustLoad()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// deps are the long-lived collaborators shared by the handlers.
type deps struct {
	store    models.HandoffStore
	recorder models.AnalysisRecorder
	history  bool
	archive  controllers.RunArchive
	geocoder services.Geocoder
	backend  *services.BackendClient
	catalog  *scenario.Catalog
	registry *analysis.Registry
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	d := deps{
		store:    models.NewMemoryHandoffStore(cfg.Security.HandoffTTL),
		recorder: models.NopRecorder{},
		catalog:  scenario.MustLoad(),
		backend:  services.NewBackendClient(cfg.Backend.URL, cfg.Backend.Timeout, logger),
		registry: analysis.NewRegistry(cfg.Runs.TTL, logger),
	}
	defer d.registry.Close()

	// Setup the Database (optional) ---------------
	if cfg.HasDatabase() {
		logger.Info("connecting to database")
		db, err := models.NewDatabase(ctx, models.DefaultDatabaseConfig(cfg.Database.URL))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.MigrateFS(migrations.FS, "."); err != nil {
			return err
		}

		encryptor, err := crypto.NewEncryptorFromSecret(cfg.Security.HandoffSecret)
		if err != nil {
			return fmt.Errorf("handoff encryption: %w", err)
		}
		d.store = models.NewPostgresHandoffStore(db.Pool, encryptor, cfg.Security.HandoffTTL)
		analyses := models.NewAnalysisService(db.Pool, encryptor)
		d.recorder = analyses
		d.archive = analyses
		d.history = true
		logger.Info("database connected, handoffs and history persisted")
	} else {
		logger.Warn("DATABASE_URL not set, handoffs kept in memory and history disabled")
	}

	// Geocoding ---------------
	static := services.NewStaticGeocoder()
	d.geocoder = static
	if cfg.Maps.APIKey != "" {
		mg, err := services.NewMapsGeocoder(cfg.Maps.APIKey, logger)
		if err != nil {
			logger.Warn("maps geocoder unavailable", zap.Error(err))
		} else {
			d.geocoder = &services.FallbackGeocoder{Primary: mg, Secondary: static, Logger: logger}
		}
	}

	checkBackend(ctx, d.backend, logger)

	// Housekeeping ---------------
	scheduler := cronjobs.New(logger)
	jobs := []cronjobs.Job{
		{
			Name: "sweep-runs",
			Spec: "@every 1m",
			Run: func(ctx context.Context) (int, error) {
				return d.registry.Sweep(), nil
			},
		},
		{
			Name: "purge-handoffs",
			Spec: "@every 5m",
			Run:  d.store.Purge,
		},
	}
	for _, job := range jobs {
		if err := scheduler.Add(job); err != nil {
			return err
		}
	}
	scheduler.Start()

	// requests see this context cancelled once shutdown starts, which ends
	// open event streams
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           routes(cfg, d, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Environment),
			zap.String("backend", cfg.Backend.URL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		cancelRequests()
		err := srv.Shutdown(shutdownCtx)
		if serr := scheduler.Stop(shutdownCtx); serr != nil {
			logger.Warn("cron jobs did not stop in time", zap.Error(serr))
		}
		return err
	})

	return g.Wait()
}

// checkBackend logs whether the analysis backend answers. A missing backend
// is not fatal: live runs fail with the user-facing message instead.
func checkBackend(ctx context.Context, backend *services.BackendClient, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := backend.Health(ctx); err != nil {
		logger.Warn("analysis backend not reachable", zap.String("url", backend.BaseURL), zap.Error(err))
		return
	}
	logger.Info("analysis backend reachable", zap.String("url", backend.BaseURL))
}
