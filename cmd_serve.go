package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"onlyfails/internal/app"
	"onlyfails/internal/config"
	"onlyfails/internal/logger"
	"onlyfails/internal/services"
	"onlyfails/internal/token"
	"onlyfails/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

// onlyfails serve: run the HTTP API until SIGINT or SIGTERM.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, store, err := boot(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	tokens, err := token.NewManager(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	users := services.NewUserService(store.Users, tokens, publisher)
	products := services.NewProductService(store.Products, store.Users, publisher)
	server := app.New(users, products, tokens)

	listenErr := make(chan error, 1)
	go func() {
		logger.Log.Infow("starting server", "addr", cfg.AppPort, "driver", cfg.Database.Driver)
		listenErr <- server.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	logger.Log.Infow("shutting down server", "timeout", cfg.ShutdownTimeout)
	if err := server.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.Log.Errorw("error during shutdown", "err", err)
		return err
	}
	logger.Log.Info("server gracefully stopped")
	return nil
}

// newPublisher connects to RabbitMQ when RABBITMQ_URL is set and otherwise
// drops events.
func newPublisher(cfg *config.Config) (services.EventPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		logger.Log.Info("RABBITMQ_URL not set, domain events disabled")
		return services.NopPublisher{}, func() {}, nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Log.Errorw("failed to close RabbitMQ client", "err", err)
		}
	}, nil
}

// onlyfails events: log every domain event from the queue.
func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Consume the domain event queue and log each event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Initialize(cfg.LogLevel); err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.RabbitMQURL == "" {
				return errors.New("RABBITMQ_URL is not set")
			}

			client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Log.Infow("consuming events", "queue", rabbitmq.EventQueue)
			return client.ConsumeEvents(ctx, rabbitmq.LogEvent)
		},
	}
}
