package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	Delete(ctx context.Context, id string) error
}

type accountLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PaymentService records and lists manual payments.
type PaymentService struct {
	repo      paymentRepository
	users     accountLookup
	notifier  notifier
	cache     cacheInvalidator
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(repo paymentRepository, users accountLookup, notify notifier, cache cacheInvalidator, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{repo: repo, users: users, notifier: notify, cache: cache, audit: audit, validator: validate, logger: logger}
}

// Create records a payment. Users record their own payments; admins may record
// one for any account through UserID.
func (s *PaymentService) Create(ctx context.Context, req models.CreatePaymentRequest, actor *models.JWTClaims) (*models.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid payment payload")
	}

	ownerID := actor.UserID
	ownerName, ownerEmail := actor.Name, actor.Email
	if req.UserID != "" && req.UserID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only record your own payments")
		}
		owner, err := s.users.FindByID(ctx, req.UserID)
		if err != nil {
			return nil, lookupError(err, "user")
		}
		ownerID, ownerName, ownerEmail = owner.ID, owner.Name, owner.Email
	}

	currency := req.Currency
	if currency == "" {
		currency = models.CurrencyMWK
	}
	payment := &models.Payment{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Amount:        req.Amount,
		Currency:      currency,
		Method:        req.Method,
		Reference:     strings.TrimSpace(req.Reference),
		TransactionID: strings.TrimSpace(req.TransactionID),
		Description:   strings.TrimSpace(req.Description),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        models.PaymentStatusPending,
		OwnerName:     ownerName,
		OwnerEmail:    ownerEmail,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Persistence(err, "failed to record payment")
	}

	if s.notifier != nil && ownerEmail != "" {
		s.notifier.Notify(ctx, models.NotificationRequest{
			Kind:          models.NotificationPaymentReceived,
			Recipient:     ownerEmail,
			RecipientName: ownerName,
			Subject:       "Payment Received",
			Data: map[string]string{
				"currency":    payment.Currency,
				"amount":      strconv.FormatFloat(payment.Amount, 'f', 2, 64),
				"method":      payment.Method,
				"reference":   paymentReference(payment),
				"description": payment.Description,
			},
		})
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return payment, nil
}

// ListMine returns the caller's payments newest first.
func (s *PaymentService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, models.PaymentFilter{OwnerID: actor.UserID})
}

// ListAll returns every payment, optionally filtered by status. Admin only.
func (s *PaymentService) ListAll(ctx context.Context, status string, actor *models.JWTClaims) ([]models.Payment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter := models.PaymentFilter{}
	if status != "" {
		st := models.PaymentStatus(status)
		if !st.IsValid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid payment status %q", status))
		}
		filter.Status = &st
	}
	return s.list(ctx, filter)
}

// Get returns a payment to its owner or an admin.
func (s *PaymentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "payment")
	}
	if err := requireOwnerOrAdmin(actor, payment.OwnerID); err != nil {
		return nil, err
	}
	return payment, nil
}

// Delete removes a payment record. Admin only.
func (s *PaymentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "payment", "failed to delete payment")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRecordDelete, "payment", id, nil, nil)
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

func (s *PaymentService) list(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list payments")
	}
	return items, nil
}
