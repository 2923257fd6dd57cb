package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/pkg/jobs"
	"github.com/noah-isme/siliya-electrical-api/pkg/mailer"
)

type memoryNotificationRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.Notification
	order     []string
	createErr error
	seq       int
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{rows: make(map[string]*models.Notification)}
}

func (m *memoryNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	if n.ID == "" {
		n.ID = fmt.Sprintf("n%d", m.seq)
	}
	copyRow := *n
	m.rows[n.ID] = &copyRow
	m.order = append(m.order, n.ID)
	return nil
}

func (m *memoryNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copyRow := *row
	return &copyRow, nil
}

func (m *memoryNotificationRepo) ListPending(ctx context.Context, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, id := range m.order {
		if row := m.rows[id]; row.Status == models.NotificationStatusPending {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memoryNotificationRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.Status = models.NotificationStatusSent
	row.Attempts++
	row.SentAt = &at
	return nil
}

func (m *memoryNotificationRepo) MarkAttempt(ctx context.Context, id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.Attempts++
	row.LastError = lastError
	return nil
}

func (m *memoryNotificationRepo) MarkFailed(ctx context.Context, id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.Status = models.NotificationStatusFailed
	row.LastError = lastError
	return nil
}

func (m *memoryNotificationRepo) all() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.rows[id])
	}
	return out
}

type recordingDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (d *recordingDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type flakyMailer struct {
	failures int
	calls    int
	sent     []mailer.Message
}

func (m *flakyMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(name string, to mail.Address, subject string, data map[string]string) (mailer.Message, error) {
	if r.err != nil {
		return mailer.Message{}, r.err
	}
	return mailer.Message{To: to, Subject: subject, TextContent: name + ":" + data["new_status"]}, nil
}

func TestNotifyWritesOutboxAndEnqueues(t *testing.T) {
	repo := newMemoryNotificationRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewNotificationService(repo, dispatcher, NewMetricsService(), zap.NewNop())

	svc.Notify(context.Background(), models.NotificationRequest{
		Kind:          models.NotificationRepairStatus,
		Recipient:     "jane@example.com",
		RecipientName: "Jane",
		Subject:       "Repair update",
		Data:          map[string]string{"new_status": "completed"},
	})

	rows := repo.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationStatusPending, rows[0].Status)
	assert.Equal(t, "Jane", rows[0].Payload["name"])
	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, rows[0].ID, dispatcher.jobs[0].ID)
}

func TestNotifySwallowsFailures(t *testing.T) {
	repo := newMemoryNotificationRepo()
	repo.createErr = errors.New("db down")
	dispatcher := &recordingDispatcher{}
	svc := NewNotificationService(repo, dispatcher, nil, zap.NewNop())

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), models.NotificationRequest{Kind: models.NotificationWelcome, Recipient: "a@b.c"})
		svc.Notify(context.Background(), models.NotificationRequest{Kind: models.NotificationWelcome})
	})
	assert.Empty(t, dispatcher.jobs)

	repo.createErr = nil
	dispatcher.err = jobs.ErrQueueFull
	svc.Notify(context.Background(), models.NotificationRequest{Kind: models.NotificationWelcome, Recipient: "a@b.c"})
	rows := repo.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationStatusPending, rows[0].Status)
}

func TestNotifyIgnoresCancelledRequestContext(t *testing.T) {
	repo := newMemoryNotificationRepo()
	svc := NewNotificationService(repo, &recordingDispatcher{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Notify(ctx, models.NotificationRequest{Kind: models.NotificationWelcome, Recipient: "a@b.c"})
	assert.Len(t, repo.all(), 1)
}

func TestReplayPending(t *testing.T) {
	repo := newMemoryNotificationRepo()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(context.Background(), &models.Notification{Kind: models.NotificationWelcome, Recipient: "a@b.c", Status: models.NotificationStatusPending}))
	}
	require.NoError(t, repo.MarkSent(context.Background(), repo.order[0], time.Now()))

	dispatcher := &recordingDispatcher{}
	svc := NewNotificationService(repo, dispatcher, nil, nil)
	n, err := svc.ReplayPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, dispatcher.jobs, 2)
}

func TestWorkerDeliversAndMarksSent(t *testing.T) {
	repo := newMemoryNotificationRepo()
	row := &models.Notification{Kind: models.NotificationRepairStatus, Recipient: "jane@example.com", Subject: "Repair update", Payload: models.NotificationPayload{"name": "Jane", "new_status": "completed"}, Status: models.NotificationStatusPending}
	require.NoError(t, repo.Create(context.Background(), row))

	m := &flakyMailer{}
	worker := NewNotificationWorker(repo, stubRenderer{}, m, nil, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: row.ID}))

	require.Len(t, m.sent, 1)
	assert.Equal(t, "Jane", m.sent[0].To.Name)
	assert.Equal(t, "repair_status:completed", m.sent[0].TextContent)
	stored, _ := repo.FindByID(context.Background(), row.ID)
	assert.Equal(t, models.NotificationStatusSent, stored.Status)

	// a duplicate delivery of the same job is a no-op
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: row.ID}))
	assert.Len(t, m.sent, 1)
}

func TestWorkerSendFailureIsRetried(t *testing.T) {
	repo := newMemoryNotificationRepo()
	row := &models.Notification{Kind: models.NotificationWelcome, Recipient: "a@b.c", Status: models.NotificationStatusPending}
	require.NoError(t, repo.Create(context.Background(), row))

	worker := NewNotificationWorker(repo, stubRenderer{}, &flakyMailer{failures: 1}, nil, nil)
	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: row.ID}))
	stored, _ := repo.FindByID(context.Background(), row.ID)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, "smtp unavailable", stored.LastError)
	assert.Equal(t, models.NotificationStatusPending, stored.Status)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: row.ID}))
	stored, _ = repo.FindByID(context.Background(), row.ID)
	assert.Equal(t, models.NotificationStatusSent, stored.Status)
}

type hangingMailer struct{}

func (hangingMailer) Send(ctx context.Context, _ mailer.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWorkerSendTimeoutFreesWorker(t *testing.T) {
	repo := newMemoryNotificationRepo()
	row := &models.Notification{Kind: models.NotificationWelcome, Recipient: "a@b.c", Status: models.NotificationStatusPending}
	require.NoError(t, repo.Create(context.Background(), row))

	worker := NewNotificationWorker(repo, stubRenderer{}, hangingMailer{}, nil, nil).WithSendTimeout(50 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- worker.Handle(context.Background(), jobs.Job{ID: row.ID}) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("worker stayed blocked on the mailer")
	}
	stored, _ := repo.FindByID(context.Background(), row.ID)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, models.NotificationStatusPending, stored.Status)
}

func TestWorkerTemplateErrorFailsImmediately(t *testing.T) {
	repo := newMemoryNotificationRepo()
	row := &models.Notification{Kind: "unknown", Recipient: "a@b.c", Status: models.NotificationStatusPending}
	require.NoError(t, repo.Create(context.Background(), row))

	m := &flakyMailer{}
	worker := NewNotificationWorker(repo, stubRenderer{err: errors.New("unknown email template")}, m, nil, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: row.ID}))
	assert.Zero(t, m.calls)
	stored, _ := repo.FindByID(context.Background(), row.ID)
	assert.Equal(t, models.NotificationStatusFailed, stored.Status)
}

func TestWorkerWithQueueMarksDroppedRowsFailed(t *testing.T) {
	repo := newMemoryNotificationRepo()
	row := &models.Notification{Kind: models.NotificationWelcome, Recipient: "a@b.c", Status: models.NotificationStatusPending}
	require.NoError(t, repo.Create(context.Background(), row))

	worker := NewNotificationWorker(repo, stubRenderer{}, &flakyMailer{failures: 10}, nil, nil)
	dropped := make(chan struct{})
	queue := jobs.NewQueue("notifications", worker.Handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: 5 * time.Millisecond,
		OnDrop: func(ctx context.Context, job jobs.Job, err error) {
			worker.OnDrop(ctx, job, err)
			close(dropped)
		},
	})
	queue.Start(context.Background())
	defer queue.Stop()

	svc := NewNotificationService(repo, queue, nil, nil)
	_, err := svc.ReplayPending(context.Background())
	require.NoError(t, err)

	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not dropped")
	}
	stored, _ := repo.FindByID(context.Background(), row.ID)
	assert.Equal(t, models.NotificationStatusFailed, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
}
