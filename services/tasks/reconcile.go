package tasks

import (
	"encoding/json"
	"fmt"

	"parcelio/config"
	"parcelio/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeBookingReconcile = "booking:reconcile"

// Enqueuer announces work for the out-of-process reconciliation worker. The
// booking core never retries backend calls itself.
type Enqueuer interface {
	EnqueueReconcile(payload models.ReconcilePayload) error
}

// NewReconcileTask wraps a reconcile payload in an asynq task.
func NewReconcileTask(payload models.ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reconcile payload: %w", err)
	}
	return asynq.NewTask(TypeBookingReconcile, data), nil
}

// AsynqEnqueuer pushes reconcile tasks onto the shared Redis-backed queue.
type AsynqEnqueuer struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewAsynqEnqueuer(logger *zap.Logger) *AsynqEnqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	return &AsynqEnqueuer{client: client, logger: logger}
}

func (e *AsynqEnqueuer) EnqueueReconcile(payload models.ReconcilePayload) error {
	task, err := NewReconcileTask(payload)
	if err != nil {
		return err
	}

	info, err := e.client.Enqueue(task, asynq.MaxRetry(10), asynq.Queue("default"))
	if err != nil {
		return fmt.Errorf("failed to enqueue reconcile task: %w", err)
	}

	e.logger.Info("reconciliation task enqueued",
		zap.String("taskId", info.ID),
		zap.String("provisionalId", payload.ProvisionalID),
	)
	return nil
}

// Close releases the underlying queue connection.
func (e *AsynqEnqueuer) Close() error {
	return e.client.Close()
}
