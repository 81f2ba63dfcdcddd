package scheduler

import (
	"context"
	"fmt"

	"contactcenter_backend/internal/dialer/service"
	"contactcenter_backend/platform/config"
	"contactcenter_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker processes deferred recycle tasks against the dialer service.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	dialer *service.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, dialer *service.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
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
		dialer: dialer,
		log:    log,
	}

	mux.HandleFunc(TaskCampaignRecycle, w.handleCampaignRecycle)

	return w, nil
}

func (w *Worker) handleCampaignRecycle(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCampaignRecyclePayload(task)
	if err != nil {
		return err
	}

	campaignID, err := uuid.Parse(payload.CampaignID)
	if err != nil {
		return err
	}

	qualificationID, err := uuid.Parse(payload.QualificationID)
	if err != nil {
		return err
	}

	affected, err := w.dialer.Recycle(ctx, campaignID, qualificationID)
	if err != nil {
		return err
	}

	w.log.Info("deferred recycle executed",
		"campaignID", campaignID, "qualificationID", qualificationID, "affected", affected)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
