package alerts

import (
	"context"
	"fmt"

	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes queued hot-lead alert tasks and delivers them over SMTP.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender Deliverer
	log    *logger.Logger
}

// NewWorker creates the asynq consumer for the alert queue.
func NewWorker(cfg config.SchedulerConfig, sender Deliverer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskHotLeadAlert, w.handleHotLeadAlert)

	return w, nil
}

func (w *Worker) handleHotLeadAlert(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseHotLeadPayload(task)
	if err != nil {
		return err
	}

	if err := w.sender.SendHotLeadAlert(ctx, payload); err != nil {
		w.log.AlertFailure(payload.Phone, err)
		return err
	}

	w.log.Info("hot lead alert delivered", "phone", payload.Phone)
	return nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("alert worker stopped", "error", err)
	}
}
