package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/online-payments/internal/obs"
)

// TypeNotification is the asynq task type for accepted notifications.
const TypeNotification = "webhook:notification"

// Processor handles a notification whose signature has been verified.
type Processor interface {
	Process(ctx context.Context, item NotificationItem) error
}

// LogProcessor records the notification in the structured log.
type LogProcessor struct {
	Logger *zerolog.Logger
}

func (p LogProcessor) Process(ctx context.Context, item NotificationItem) error {
	logger := p.Logger
	if logger == nil {
		logger = zerolog.Ctx(ctx)
	}
	logger.Info().
		Str("event_code", item.EventCode).
		Str("merchant_reference", item.MerchantReference).
		Str("alias", item.AdditionalData["alias"]).
		Str("psp_reference", item.PSPReference).
		Bool("success", item.Succeeded()).
		Msg("webhook_notification")
	return nil
}

// Enqueuer is the subset of asynq.Client used by QueueProcessor.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueProcessor hands notifications to the worker through asynq. The task id
// is derived from the notification so provider re-deliveries collapse into
// one task while it is retained.
type QueueProcessor struct {
	Client    Enqueuer
	Queue     string
	MaxRetry  int
	Retention time.Duration
}

// TaskID identifies a notification across re-deliveries.
func TaskID(item NotificationItem) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%t", item.PSPReference, item.EventCode, item.Succeeded()))
	return hex.EncodeToString(sum[:])
}

// NewNotificationTask encodes item as an asynq task.
func NewNotificationTask(item NotificationItem) (*asynq.Task, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("webhook: encode task: %w", err)
	}
	return asynq.NewTask(TypeNotification, payload), nil
}

func (p QueueProcessor) Process(ctx context.Context, item NotificationItem) error {
	if p.Client == nil {
		return errors.New("webhook: queue client not configured")
	}
	task, err := NewNotificationTask(item)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(TaskID(item))}
	if p.Queue != "" {
		opts = append(opts, asynq.Queue(p.Queue))
	}
	if p.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(p.MaxRetry))
	}
	retention := p.Retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	opts = append(opts, asynq.Retention(retention))

	info, err := p.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		obs.IncWebhookNotification(item.EventCode, "duplicate")
		zerolog.Ctx(ctx).Info().Str("psp_reference", item.PSPReference).Str("event_code", item.EventCode).Msg("webhook_duplicate")
		return nil
	}
	if err != nil {
		return fmt.Errorf("webhook: enqueue: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("webhook_enqueued")
	return nil
}
