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

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/spendsplit/internal/auth"
	"github.com/mmynk/spendsplit/internal/config"
	"github.com/mmynk/spendsplit/internal/ledger"
	"github.com/mmynk/spendsplit/internal/middleware"
	"github.com/mmynk/spendsplit/internal/notify"
	"github.com/mmynk/spendsplit/internal/service"
	"github.com/mmynk/spendsplit/internal/storage"
	"github.com/mmynk/spendsplit/internal/storage/memory"
	"github.com/mmynk/spendsplit/internal/storage/mongo"
	"github.com/mmynk/spendsplit/internal/storage/sqlstore"
	"github.com/mmynk/spendsplit/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.StoreDriver)

	var sender notify.Sender = notify.NopSender{}
	if cfg.SMTPEnabled() {
		sender = notify.NewSMTPSender(cfg.SMTP)
		slog.Info("Email enabled", "smtp_host", cfg.SMTP.Host)
	}

	identity := auth.NewContextIdentity(store)
	engine, err := ledger.New(store, identity, ledger.WithSender(sender))
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	ledgerPath, ledgerHandler := service.NewLedgerServiceHandler(
		service.NewLedgerService(engine),
		connect.WithInterceptors(
			middleware.MetricsInterceptor(metrics),
			middleware.RequireAuth(jwtManager),
			middleware.LoggingInterceptor(),
		),
	)
	authPath, authHandler := service.NewAuthServiceHandler(
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, identity),
		connect.WithInterceptors(
			middleware.MetricsInterceptor(metrics),
			middleware.OptionalAuth(jwtManager),
			middleware.LoggingInterceptor(),
		),
	)

	router := newRouter(store, reg, map[string]http.Handler{
		ledgerPath: ledgerHandler,
		authPath:   authHandler,
	})

	reminders, err := notify.NewReminder(store, sender).Start(cfg.ReminderSchedule)
	if err != nil {
		return err
	}
	defer func() { <-reminders.Stop().Done() }()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(cfg.DBPath)
	case config.DriverMySQL:
		return sqlstore.OpenMySQL(cfg.MySQLDSN)
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
