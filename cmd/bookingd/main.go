package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/api"
	"github.com/HastyAy/RoomManagementSystem/internal/booking"
	"github.com/HastyAy/RoomManagementSystem/internal/clients"
	"github.com/HastyAy/RoomManagementSystem/internal/config"
	"github.com/HastyAy/RoomManagementSystem/internal/database"
	"github.com/HastyAy/RoomManagementSystem/internal/events"
	"github.com/HastyAy/RoomManagementSystem/internal/metrics"
	"github.com/HastyAy/RoomManagementSystem/internal/report"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("service", "bookingd").Logger()

	cfg, err := config.Load(os.Getenv("ROOMMGR_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.BookingPath, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	roomClient := clients.NewRoomClient(cfg.Services.RoomBaseURL, &logger)
	personClient := clients.NewPersonClient(cfg.Services.UserBaseURL, &logger)

	var rdb *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		roomClient.UseRedisCache(rdb, cfg.CacheTTL())
		personClient.UseRedisCache(rdb, cfg.CacheTTL())
	}

	bus := events.NewBus()
	logEvent := func(e events.Event) error {
		logger.Info().Str("event", e.Type).RawJSON("payload", e.Payload).Msg("Booking event")
		return nil
	}
	for _, eventType := range []string{"booking.created", "booking.updated", "booking.cancelled"} {
		bus.Subscribe(eventType, logEvent)
	}

	svc := booking.NewService(db, roomClient, personClient, bus, cfg.GraceWindow(), &logger)
	reporter := report.NewExporter(db, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}
	go startReadyServer(ctx, db, rdb, &logger)

	if cfg.Backup.Enabled {
		go db.RunBackupLoop(ctx, cfg.Backup.Path, cfg.BackupInterval(), cfg.BackupRetention(), &logger)
	}

	server := api.NewHTTPServer(cfg.Server.BookingAddr, svc, reporter,
		cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, &logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("booking server error")
	}
}

func startReadyServer(ctx context.Context, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: ":8090", Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("ready server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", port).Msg("Prometheus metrics listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
