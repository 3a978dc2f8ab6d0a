package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/config"
	"github.com/HastyAy/RoomManagementSystem/internal/metrics"
	"github.com/HastyAy/RoomManagementSystem/internal/rooms"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("service", "roomd").Logger()

	cfg, err := config.Load(os.Getenv("ROOMMGR_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := rooms.NewStore(cfg.Database.RoomPath, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer store.Close()

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := rooms.NewHTTPServer(cfg.Server.RoomAddr, store, &logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("room server error")
	}
}
