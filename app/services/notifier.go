package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/billdesk/app/models"
	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
	"github.com/shashiranjanraj/billdesk/pkg/metrics"
	"github.com/shashiranjanraj/billdesk/pkg/workerpool"
)

const notifyTimeout = 5 * time.Second

// Notifier records customer notifications off the request path.
type Notifier struct {
	repo repositories.Notifications
	pool *workerpool.Pool
	now  func() time.Time
}

func NewNotifier(repo repositories.Notifications, pool *workerpool.Pool) *Notifier {
	return &Notifier{repo: repo, pool: pool, now: time.Now}
}

// Enqueue schedules n for delivery. It never blocks; a full queue drops the
// notification with a warning.
func (n *Notifier) Enqueue(note *models.Notification) {
	if note.Kind == "" {
		note.Kind = models.NotificationInstant
	}

	err := n.pool.Submit(func() { n.deliver(note) })
	if err == nil {
		return
	}

	status := "dropped"
	if errors.Is(err, workerpool.ErrPoolClosed) {
		status = "closed"
	}
	metrics.NotificationsSent.WithLabelValues(status).Inc()
	logger.Warn("notification not queued", "customer_id", note.CustomerID, "error", err)
}

func (n *Notifier) deliver(note *models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	note.SentAt = n.now().UTC()
	note.Status = models.NotificationSent

	if err := n.repo.Insert(ctx, note); err != nil {
		metrics.NotificationsSent.WithLabelValues(models.NotificationFailed).Inc()
		logger.Error("notification write failed", "customer_id", note.CustomerID, "error", err)
		return
	}
	metrics.NotificationsSent.WithLabelValues(models.NotificationSent).Inc()
}
