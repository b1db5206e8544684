package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/log"

	"github.com/topi314/buttercup/buttercup"
)

const (
	Name      = "buttercup"
	Namespace = "github.com/topi314/buttercup"
)

var Version = "dev"

func main() {
	path := flag.String("config", "./config.yml", "Path to the config file")
	flag.Parse()

	cfg, err := buttercup.ReadConfig(*path)
	if err != nil {
		log.Fatal("failed to read config: ", err)
	}
	if err = cfg.Validate(); err != nil {
		log.Fatal("invalid config: ", err)
	}

	logger := log.New(cfg.Log.Flags())
	logger.SetLevel(cfg.Log.Level)
	logger.Infof("Starting buttercup version: %s", Version)
	logger.Infof("Config: %s", cfg)

	meter, shutdownMeter, err := newMeter(cfg.Otel)
	if err != nil {
		logger.Fatal("failed to create meter: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMeter(ctx); err != nil {
			logger.Error("failed to shutdown metrics: ", err)
		}
	}()

	var db *buttercup.DB
	if cfg.Database.Enabled {
		if db, err = buttercup.NewDB(cfg.Database, buttercup.Schema); err != nil {
			logger.Fatal("failed to connect to database: ", err)
		}
	}

	b := buttercup.New(cfg, Version, logger, meter, db)
	if err = b.InitMetrics(); err != nil {
		logger.Fatal("failed to init metrics: ", err)
	}

	if err = b.Setup(); err != nil {
		logger.Fatal("failed to setup bot: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Close(ctx)
	}()

	if cfg.Discord.SyncCommands {
		b.RegisterCommands()
	}

	if err = b.Start(context.Background()); err != nil {
		logger.Error("failed to open gateway: ", err)
		return
	}

	logger.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	logger.Info("Shutting down...")
}
