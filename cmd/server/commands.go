package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"walkcanvas/internal/config"
	"walkcanvas/internal/controllers"
	"walkcanvas/internal/events"
	"walkcanvas/internal/logger"
	"walkcanvas/internal/routes"
	"walkcanvas/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "walkcanvas",
		Short:         "Walking route sharing API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate the schema and serve the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate()
			},
		},
	)
	return root
}

// bootstrap loads configuration, sets up logging and opens the database.
func bootstrap() (*config.Config, *store.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := logger.Setup(cfg.LogFile, cfg.LogLevel); err != nil {
		return nil, nil, nil, err
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := config.Migrate(db); err != nil {
		closeDB(db)
		return nil, nil, nil, err
	}
	logrus.WithField("driver", cfg.DBDriver).Info("database schema up to date")

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logrus.WithField("topic", cfg.KafkaTopic).Info("publishing domain events to kafka")
	}

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logrus.WithError(err).Warn("close event publisher")
		}
		closeDB(db)
	}
	return cfg, store.New(db, store.WithPublisher(publisher)), cleanup, nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Warn("close database")
	}
}

func migrate() error {
	_, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	cleanup()
	return nil
}

func serve(ctx context.Context) error {
	cfg, st, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	gin.SetMode(gin.ReleaseMode)
	router := routes.SetupRouter(controllers.New(st), routes.Options{
		AccessLog:      logger.Output(),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("server listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shut down: %w", err)
	}
	logrus.Info("server stopped")
	return nil
}
