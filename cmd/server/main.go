package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/cactilog/internal/auth"
	"github.com/iliyamo/cactilog/internal/config"
	"github.com/iliyamo/cactilog/internal/database"
	"github.com/iliyamo/cactilog/internal/handler"
	"github.com/iliyamo/cactilog/internal/knowledge"
	"github.com/iliyamo/cactilog/internal/logging"
	"github.com/iliyamo/cactilog/internal/queue"
	"github.com/iliyamo/cactilog/internal/repository"
	"github.com/iliyamo/cactilog/internal/router"
	"github.com/iliyamo/cactilog/internal/service"
	"github.com/iliyamo/cactilog/internal/storage"
	"github.com/iliyamo/cactilog/internal/wikimedia"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:           "cactilog",
		Short:         "Cactus and succulent collection tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, migrateCmd(), workerCmd())
	return root
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDev())
			if err := serve(cmd.Context(), cfg, log, migrate); err != nil {
				log.WithError(err).Error("server stopped")
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDev())
			db, err := openDB(cfg)
			if err != nil {
				log.WithError(err).Error("database unavailable")
				return err
			}
			defer db.Close()
			n, err := db.Migrate(cmd.Context())
			if err != nil {
				log.WithError(err).Error("migrate failed")
				return err
			}
			log.WithFields(logrus.Fields{"dialect": db.Dialect, "applied": n}).Info("schema applied")
			return nil
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume activity events into the activity log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDev())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := &queue.Consumer{URL: cfg.RabbitURL, Dir: cfg.ActivityLogDir, Log: log}
			log.WithField("dir", cfg.ActivityLogDir).Info("activity worker started")
			return c.Run(ctx)
		},
	}
}

func openDB(cfg config.Config) (*database.DB, error) {
	return database.Open(database.Options{
		URL:    cfg.DatabaseURL,
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
	})
}

func serve(parent context.Context, cfg config.Config, log *logrus.Logger, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		n, err := db.Migrate(ctx)
		if err != nil {
			return err
		}
		log.WithField("applied", n).Info("migrations applied")
	}

	files, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		return err
	}
	kb, err := knowledge.Load()
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.RabbitURL, log)
	}

	plants := repository.NewPlantRepo(db)
	growth := repository.NewGrowthRepo(db)

	e := router.New(router.Deps{
		Cfg:       cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Log:       log,
		Redis:     rdb,
		DB:        db,
		Auth: &handler.AuthHandler{
			Cfg:       cfg,
			Users:     repository.NewUserRepo(db),
			Tokens:    repository.NewTokenRepo(db),
			Providers: auth.FromConfig(cfg),
			Log:       log,
		},
		Plants: &handler.PlantHandler{
			Plants: plants,
			Growth: growth,
			Photos: repository.NewPhotoRepo(db),
			Files:  files,
			Events: events,
			Log:    log,
		},
		Seeds: &handler.SeedHandler{
			Seeds:  repository.NewSeedRepo(db),
			Events: events,
			Log:    log,
		},
		Dashboard: &handler.DashboardHandler{
			Stats:  repository.NewDashboardRepo(db),
			Plants: plants,
			Growth: growth,
			Log:    log,
		},
		Knowledge: &handler.KnowledgeHandler{
			Base:   kb,
			Images: wikimedia.New(cfg.WikimediaAPIURL),
			Log:    log,
		},
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "dialect": db.Dialect}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
