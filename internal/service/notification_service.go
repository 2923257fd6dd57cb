package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
	"github.com/noah-isme/siliya-electrical-api/pkg/jobs"
	"github.com/noah-isme/siliya-electrical-api/pkg/mailer"
)

const replayBatchSize = 500

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	ListPending(ctx context.Context, limit int) ([]models.Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkAttempt(ctx context.Context, id, lastError string) error
	MarkFailed(ctx context.Context, id, lastError string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// notifier is what domain services use to request emails. It never fails.
type notifier interface {
	Notify(ctx context.Context, req models.NotificationRequest)
	NotifyMany(ctx context.Context, reqs []models.NotificationRequest)
}

// NotificationService writes outbox rows and hands them to the worker queue.
// Failures are logged and counted; they never reach the caller.
type NotificationService struct {
	repo       notificationRepository
	dispatcher jobDispatcher
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewNotificationService constructs the dispatcher.
func NewNotificationService(repo notificationRepository, dispatcher jobDispatcher, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, dispatcher: dispatcher, metrics: metrics, logger: logger}
}

// Notify records one email and schedules its delivery.
func (s *NotificationService) Notify(ctx context.Context, req models.NotificationRequest) {
	// the outbox write must survive a client disconnect after the mutation committed
	ctx = context.WithoutCancel(ctx)

	if req.Recipient == "" {
		s.logger.Warn("notification skipped, no recipient", zap.String("kind", string(req.Kind)))
		s.metrics.RecordNotification(req.Kind, NotificationResultDropped)
		return
	}

	payload := models.NotificationPayload{}
	for k, v := range req.Data {
		payload[k] = v
	}
	if req.RecipientName != "" {
		payload["name"] = req.RecipientName
	}

	row := &models.Notification{
		Kind:      req.Kind,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Payload:   payload,
		Status:    models.NotificationStatusPending,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("code", appErrors.ErrNotificationFailure.Code),
			zap.String("kind", string(req.Kind)),
			zap.String("recipient", req.Recipient),
			zap.Error(err),
		)
		s.metrics.RecordNotification(req.Kind, NotificationResultDropped)
		return
	}

	s.enqueue(row)
}

// NotifyMany records one email per request. Order is not significant.
func (s *NotificationService) NotifyMany(ctx context.Context, reqs []models.NotificationRequest) {
	for _, req := range reqs {
		s.Notify(ctx, req)
	}
}

// ReplayPending re-enqueues rows left pending by a previous process. It stops
// early when the queue is full; the remaining rows wait for the next replay.
func (s *NotificationService) ReplayPending(ctx context.Context) (int, error) {
	rows, err := s.repo.ListPending(ctx, replayBatchSize)
	if err != nil {
		return 0, fmt.Errorf("replay pending notifications: %w", err)
	}
	replayed := 0
	for i := range rows {
		if err := s.dispatcher.Enqueue(notificationJob(&rows[i])); err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				s.logger.Warn("notification replay paused, queue full", zap.Int("replayed", replayed), zap.Int("pending", len(rows)))
				break
			}
			return replayed, fmt.Errorf("replay notification %s: %w", rows[i].ID, err)
		}
		replayed++
	}
	if replayed > 0 {
		s.logger.Info("pending notifications replayed", zap.Int("count", replayed))
	}
	return replayed, nil
}

func (s *NotificationService) enqueue(row *models.Notification) {
	if s.dispatcher == nil {
		s.metrics.RecordNotification(row.Kind, NotificationResultDeferred)
		return
	}
	if err := s.dispatcher.Enqueue(notificationJob(row)); err != nil {
		s.logger.Warn("notification enqueue failed, left pending for replay",
			zap.String("id", row.ID),
			zap.String("kind", string(row.Kind)),
			zap.Error(err),
		)
		s.metrics.RecordNotification(row.Kind, NotificationResultDeferred)
		return
	}
	s.metrics.RecordNotification(row.Kind, NotificationResultQueued)
}

func notificationJob(row *models.Notification) jobs.Job {
	return jobs.Job{ID: row.ID, Type: string(row.Kind), Payload: row.ID}
}

type emailRenderer interface {
	Render(name string, to mail.Address, subject string, data map[string]string) (mailer.Message, error)
}

// NotificationWorker delivers outbox rows. It is the queue handler.
type NotificationWorker struct {
	repo     notificationRepository
	renderer emailRenderer
	mailer   mailer.Mailer
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	timeout  time.Duration
}

// DefaultSendTimeout bounds one delivery attempt when no timeout is configured.
const DefaultSendTimeout = 30 * time.Second

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(repo notificationRepository, renderer emailRenderer, m mailer.Mailer, metrics *MetricsService, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{repo: repo, renderer: renderer, mailer: m, metrics: metrics, logger: logger, now: time.Now, timeout: DefaultSendTimeout}
}

// WithSendTimeout sets the deadline applied to each delivery attempt.
func (w *NotificationWorker) WithSendTimeout(d time.Duration) *NotificationWorker {
	if d > 0 {
		w.timeout = d
	}
	return w
}

// Handle renders and sends one row. A returned error makes the queue retry.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	row, err := w.repo.FindByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("notification row missing", zap.String("id", job.ID))
			return nil
		}
		return fmt.Errorf("load notification %s: %w", job.ID, err)
	}
	if row.Status != models.NotificationStatusPending {
		return nil
	}

	to := mail.Address{Name: row.Payload["name"], Address: row.Recipient}
	msg, err := w.renderer.Render(string(row.Kind), to, row.Subject, row.Payload)
	if err != nil {
		// a template error will not fix itself on retry
		w.fail(ctx, row.ID, row.Kind, err)
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err = w.mailer.Send(sendCtx, msg)
	cancel()
	if err != nil {
		if markErr := w.repo.MarkAttempt(ctx, row.ID, err.Error()); markErr != nil {
			w.logger.Warn("failed to record notification attempt", zap.String("id", row.ID), zap.Error(markErr))
		}
		w.metrics.RecordNotification(row.Kind, NotificationResultRetry)
		return fmt.Errorf("send notification %s: %w", row.ID, err)
	}

	if err := w.repo.MarkSent(ctx, row.ID, w.now().UTC()); err != nil {
		w.logger.Warn("failed to mark notification sent", zap.String("id", row.ID), zap.Error(err))
	}
	w.metrics.RecordNotification(row.Kind, NotificationResultSent)
	w.logger.Debug("notification sent", zap.String("id", row.ID), zap.String("kind", string(row.Kind)))
	return nil
}

// OnDrop is the queue's drop hook: the row is marked failed after retries run out.
func (w *NotificationWorker) OnDrop(ctx context.Context, job jobs.Job, cause error) {
	w.fail(ctx, job.ID, models.NotificationKind(job.Type), cause)
}

func (w *NotificationWorker) fail(ctx context.Context, id string, kind models.NotificationKind, cause error) {
	ctx = context.WithoutCancel(ctx)
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := w.repo.MarkFailed(ctx, id, msg); err != nil {
		w.logger.Warn("failed to mark notification failed", zap.String("id", id), zap.Error(err))
	}
	w.metrics.RecordNotification(kind, NotificationResultFailed)
	w.logger.Error("notification delivery failed",
		zap.String("code", appErrors.ErrNotificationFailure.Code),
		zap.String("id", id),
		zap.String("kind", string(kind)),
		zap.Error(cause),
	)
}
