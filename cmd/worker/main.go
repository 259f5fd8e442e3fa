package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"storyforge/config"
	"storyforge/internal/platform"
	"storyforge/tasks"
	"storyforge/worker"
)

func main() {
	log := platform.NewLogger("worker")

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	db, err := platform.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	rdb := platform.NewRedisClient(cfg.RedisURL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	processor := worker.NewProcessor(db, rdb, cfg, log)
	processor.Register(tasks.QueueVideoGenerate, processor.HandleGenerate)
	processor.Register(tasks.QueueVideoAssemble, processor.HandleAssemble)

	log.WithFields(logrus.Fields{
		"demo_mode": cfg.DemoMode,
		"assembler": processor.Pipeline.Assembler.Available(),
	}).Info("worker starting")

	processor.Listen(ctx, tasks.QueueVideoGenerate, tasks.QueueVideoAssemble)
}
