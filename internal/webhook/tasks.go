package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/online-payments/internal/lock"
)

// TaskHandler consumes notification tasks in the worker.
type TaskHandler struct {
	Processor Processor
	// Locker serialises processing per payment when set.
	Locker  *lock.Locker
	LockTTL time.Duration
}

// ProcessTask implements asynq.Handler. Undecodable payloads are not retried.
func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var item NotificationItem
	if err := json.Unmarshal(t.Payload(), &item); err != nil {
		return fmt.Errorf("webhook: decode task: %v: %w", err, asynq.SkipRetry)
	}
	processor := h.Processor
	if processor == nil {
		processor = LogProcessor{}
	}
	if h.Locker == nil || item.PSPReference == "" {
		return processor.Process(ctx, item)
	}
	ttl := h.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return h.Locker.WithLock(ctx, h.Locker.Key("notification", item.PSPReference), ttl, func(ctx context.Context) error {
		return processor.Process(ctx, item)
	})
}
