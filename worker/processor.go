package worker

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storyforge/config"
	"storyforge/pipeline"
	"storyforge/tasks"
	"storyforge/usage"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// Processor holds dependencies and registered task handlers.
type Processor struct {
	DB       *gorm.DB
	RDB      *redis.Client
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Limiter  *usage.Limiter
	Log      *logrus.Logger
	handlers map[string]TaskHandler
}

// NewProcessor creates a worker processor with the generation pipeline wired.
func NewProcessor(db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *logrus.Logger) *Processor {
	return &Processor{
		DB:       db,
		RDB:      rdb,
		Config:   cfg,
		Pipeline: pipeline.New(cfg, log),
		Limiter:  usage.NewLimiter(&usage.GormStore{DB: db}, cfg.DailyStoryLimit, cfg.AdminUsers, log),
		Log:      log,
		handlers: make(map[string]TaskHandler),
	}
}

// Register maps a queue name to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	p.Log.WithField("queue", queueName).Info("registered handler")
}

// Enqueue adds a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return p.RDB.LPush(ctx, queueName, payloadStr).Err()
}

// Listen starts the worker, blocking on all registered queues.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	p.Log.WithField("queues", queueNames).Info("worker listening")

	for {
		// BRPop blocks until a task is available on any of the listed queues.
		result, err := p.RDB.BRPop(ctx, 0, queueNames...).Result()
		if err != nil {
			if ctx.Err() != nil {
				p.Log.Info("worker shutting down")
				return
			}
			p.Log.WithError(err).Error("error popping from queue")
			continue
		}

		queueName := result[0]
		payload := result[1]

		handler, ok := p.handlers[queueName]
		if !ok {
			p.Log.WithField("queue", queueName).Error("no handler registered")
			continue
		}

		p.Log.WithField("queue", queueName).Info("received task")
		if err := handler(ctx, payload); err != nil {
			p.Log.WithError(err).WithField("queue", queueName).Error("task failed")
		}
	}
}
