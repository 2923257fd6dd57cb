package service

import (
	"context"
	"sync"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

type recordingNotifier struct {
	mu   sync.Mutex
	reqs []models.NotificationRequest
}

func (n *recordingNotifier) Notify(ctx context.Context, req models.NotificationRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reqs = append(n.reqs, req)
}

func (n *recordingNotifier) NotifyMany(ctx context.Context, reqs []models.NotificationRequest) {
	for _, req := range reqs {
		n.Notify(ctx, req)
	}
}

func (n *recordingNotifier) sent() []models.NotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.NotificationRequest, len(n.reqs))
	copy(out, n.reqs)
	return out
}

type recordingInvalidator struct {
	patterns []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

type recordingAuditor struct {
	logs []*models.AuditLog
}

func (r *recordingAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}
