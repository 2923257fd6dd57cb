package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
	"github.com/noah-isme/siliya-electrical-api/pkg/export"
	"github.com/noah-isme/siliya-electrical-api/pkg/storage"
)

type repairRepository interface {
	Create(ctx context.Context, ticket *models.RepairTicket) error
	FindByID(ctx context.Context, id string) (*models.RepairTicket, error)
	List(ctx context.Context, filter models.RepairFilter) ([]models.RepairTicket, error)
	UpdateDetails(ctx context.Context, id, notes string, amount float64, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type photoStorage interface {
	SaveStream(filename string, r io.Reader, limit int64) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type urlSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (string, string, time.Time, error)
}

type repairTransitioner interface {
	TransitionRepair(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.RepairTicket, error)
}

// DatasetExporter renders tabular data into a downloadable file format.
type DatasetExporter interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// PhotoUpload is one image attached to a new repair ticket.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StoredPhoto is an opened repair photo.
type StoredPhoto struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.ReadCloser
}

// RepairConfig controls photo handling.
type RepairConfig struct {
	MaxPhotos      int
	MaxFileSize    int64
	AllowedMIMEs   []string
	PhotoURLPrefix string
}

// RepairServiceParams groups the collaborators of RepairService.
type RepairServiceParams struct {
	Repo        repairRepository
	Storage     photoStorage
	Signer      urlSigner
	Transitions repairTransitioner
	Notifier    notifier
	Cache       cacheInvalidator
	Audit       auditRecorder
	Exporters   map[string]DatasetExporter
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      RepairConfig
}

// RepairService manages repair tickets and their photos.
type RepairService struct {
	repo        repairRepository
	storage     photoStorage
	signer      urlSigner
	transitions repairTransitioner
	notifier    notifier
	cache       cacheInvalidator
	audit       auditRecorder
	exporters   map[string]DatasetExporter
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         RepairConfig
	mimeSet     map[string]struct{}
	now         func() time.Time
}

// NewRepairService constructs the repair service.
func NewRepairService(params RepairServiceParams) *RepairService {
	cfg := params.Config
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = 3
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png"}
	}
	cfg.PhotoURLPrefix = strings.TrimRight(cfg.PhotoURLPrefix, "/")
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	exporters := params.Exporters
	if exporters == nil {
		exporters = map[string]DatasetExporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		}
	}

	return &RepairService{
		repo:        params.Repo,
		storage:     params.Storage,
		signer:      params.Signer,
		transitions: params.Transitions,
		notifier:    params.Notifier,
		cache:       params.Cache,
		audit:       params.Audit,
		exporters:   exporters,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		mimeSet:     mimeSet,
		now:         time.Now,
	}
}

// MaxPhotos is the number of images a single ticket accepts.
func (s *RepairService) MaxPhotos() int {
	return s.cfg.MaxPhotos
}

// Create stores a new ticket for the caller with up to MaxPhotos images.
func (s *RepairService) Create(ctx context.Context, req models.CreateRepairRequest, photos []PhotoUpload, actor *models.JWTClaims) (*models.RepairTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.DeviceType = strings.TrimSpace(req.DeviceType)
	req.Issue = strings.TrimSpace(req.Issue)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid repair payload")
	}
	if len(photos) > s.cfg.MaxPhotos {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d photos are allowed", s.cfg.MaxPhotos))
	}

	ticket := &models.RepairTicket{
		ID:         uuid.NewString(),
		OwnerID:    actor.UserID,
		DeviceType: req.DeviceType,
		Brand:      strings.TrimSpace(req.Brand),
		Model:      strings.TrimSpace(req.Model),
		Issue:      req.Issue,
		Status:     models.RepairStatusPending,
		OwnerName:  actor.Name,
		OwnerEmail: actor.Email,
	}

	saved, err := s.savePhotos(ticket.ID, photos)
	if err != nil {
		return nil, err
	}
	ticket.Photos = pq.StringArray(saved)

	if err := s.repo.Create(ctx, ticket); err != nil {
		s.removePhotos(saved)
		return nil, appErrors.Persistence(err, "failed to create repair ticket")
	}

	s.notify(ctx, models.NotificationRequest{
		Kind:          models.NotificationRepairSubmitted,
		Recipient:     actor.Email,
		RecipientName: actor.Name,
		Subject:       "Repair Request Received",
		Data: map[string]string{
			"reference": models.ShortReference(ticket.ID),
			"device":    ticket.DeviceType,
			"brand":     ticket.Brand,
			"model":     ticket.Model,
			"issue":     ticket.Issue,
		},
	})
	invalidateDashboard(ctx, s.cache, s.logger)

	s.decorate(ticket)
	return ticket, nil
}

// ListMine returns the caller's tickets newest first.
func (s *RepairService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.RepairTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, models.RepairFilter{OwnerID: actor.UserID})
}

// ListAll returns every ticket, optionally filtered by status. Admin only.
func (s *RepairService) ListAll(ctx context.Context, status string, actor *models.JWTClaims) ([]models.RepairTicket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter := models.RepairFilter{}
	if status != "" {
		st := models.RepairStatus(status)
		if !st.IsValid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid repair status %q", status))
		}
		filter.Status = &st
	}
	return s.list(ctx, filter)
}

// Get returns one ticket to its owner or an admin.
func (s *RepairService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RepairTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "repair ticket")
	}
	if err := requireOwnerOrAdmin(actor, ticket.OwnerID); err != nil {
		return nil, err
	}
	s.decorate(ticket)
	return ticket, nil
}

// Update edits technician notes and amount, and optionally moves the status
// through the transition handler. Admin only.
func (s *RepairService) Update(ctx context.Context, id string, req models.UpdateRepairRequest, actor *models.JWTClaims) (*models.RepairTicket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid repair update payload")
	}
	if req.Status != nil && !models.RepairStatus(*req.Status).IsValid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid repair status %q", *req.Status))
	}

	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "repair ticket")
	}

	if req.TechnicianNotes != nil || req.Amount != nil {
		notes, amount := ticket.TechnicianNotes, ticket.Amount
		if req.TechnicianNotes != nil {
			notes = strings.TrimSpace(*req.TechnicianNotes)
		}
		if req.Amount != nil {
			amount = *req.Amount
		}
		if err := s.repo.UpdateDetails(ctx, id, notes, amount, s.now().UTC()); err != nil {
			return nil, writeError(err, "repair ticket", "failed to update repair ticket")
		}
		recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRecordUpdate, "repair", id,
			map[string]interface{}{"technician_notes": ticket.TechnicianNotes, "amount": ticket.Amount},
			map[string]interface{}{"technician_notes": notes, "amount": amount})
		invalidateDashboard(ctx, s.cache, s.logger)
	}

	if req.Status != nil {
		updated, err := s.transitions.TransitionRepair(ctx, id, *req.Status, actor)
		if err != nil {
			return nil, err
		}
		s.decorate(updated)
		return updated, nil
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "repair ticket")
	}
	s.decorate(updated)
	return updated, nil
}

// Delete removes a ticket and its photo files. Admin only.
func (s *RepairService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "repair ticket")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "repair ticket", "failed to delete repair ticket")
	}
	s.removePhotos(ticket.Photos)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRecordDelete, "repair", id,
		map[string]interface{}{"status": ticket.Status, "owner_id": ticket.OwnerID}, nil)
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// OpenPhoto resolves a signed photo token for the ticket and opens the file.
func (s *RepairService) OpenPhoto(ctx context.Context, id string, index int, token string) (*StoredPhoto, error) {
	tokenID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired photo link")
	}
	if tokenID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "photo link does not match repair ticket")
	}

	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "repair ticket")
	}
	if index < 0 || index >= len(ticket.Photos) || ticket.Photos[index] != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "photo file missing")
	}
	photo := &StoredPhoto{Name: path.Base(relPath), ContentType: photoContentType(relPath), Content: file, Size: -1}
	if info, err := file.Stat(); err == nil {
		photo.Size = info.Size()
	}
	return photo, nil
}

// Export renders every ticket as CSV or PDF. Admin only.
func (s *RepairService) Export(ctx context.Context, format string, actor *models.JWTClaims) (*ExportFile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	tickets, err := s.repo.List(ctx, models.RepairFilter{})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list repair tickets")
	}

	dataset := export.Dataset{
		Title:   "Repair Requests",
		Headers: []string{"ID", "Customer", "Device", "Brand", "Model", "Status", "Amount", "Date"},
		Rows:    make([][]string, 0, len(tickets)),
	}
	for _, t := range tickets {
		dataset.Rows = append(dataset.Rows, []string{
			models.ShortReference(t.ID),
			t.OwnerName,
			t.DeviceType,
			t.Brand,
			t.Model,
			string(t.Status),
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.CreatedAt.Format("2006-01-02"),
		})
	}

	data, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("repairs-%s.%s", s.now().UTC().Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}

func (s *RepairService) list(ctx context.Context, filter models.RepairFilter) ([]models.RepairTicket, error) {
	tickets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list repair tickets")
	}
	for i := range tickets {
		s.decorate(&tickets[i])
	}
	return tickets, nil
}

func (s *RepairService) savePhotos(ticketID string, photos []PhotoUpload) ([]string, error) {
	saved := make([]string, 0, len(photos))
	for i, photo := range photos {
		rel, err := s.savePhoto(ticketID, i, photo)
		if err != nil {
			s.removePhotos(saved)
			return nil, err
		}
		saved = append(saved, rel)
	}
	return saved, nil
}

func (s *RepairService) savePhoto(ticketID string, index int, photo PhotoUpload) (string, error) {
	if photo.Content == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "photo content missing")
	}
	if photo.Size > s.cfg.MaxFileSize {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("photo %s exceeds %d MB", photo.Filename, s.cfg.MaxFileSize/(1024*1024)))
	}
	mimeType, err := sniffContentType(photo.Content)
	if err != nil {
		return "", err
	}
	if _, ok := s.mimeSet[mimeType]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "only JPG and PNG images are allowed")
	}

	name := fmt.Sprintf("repairs/%s/photo-%d%s", ticketID, index+1, photoExtension(mimeType))
	rel, err := s.storage.SaveStream(name, photo.Content, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("photo %s exceeds %d MB", photo.Filename, s.cfg.MaxFileSize/(1024*1024)))
		}
		return "", appErrors.Internal(err, "failed to store photo")
	}
	return rel, nil
}

func (s *RepairService) removePhotos(paths []string) {
	for _, p := range paths {
		if err := s.storage.Delete(p); err != nil {
			s.logger.Warn("failed to delete repair photo", zap.String("path", p), zap.Error(err))
		}
	}
}

// decorate fills PhotoURLs with signed links.
func (s *RepairService) decorate(ticket *models.RepairTicket) {
	ticket.PhotoURLs = make([]string, 0, len(ticket.Photos))
	if s.signer == nil {
		return
	}
	for i, p := range ticket.Photos {
		token, _, err := s.signer.Generate(ticket.ID, p)
		if err != nil {
			s.logger.Warn("failed to sign photo url", zap.String("repair_id", ticket.ID), zap.Error(err))
			continue
		}
		ticket.PhotoURLs = append(ticket.PhotoURLs,
			fmt.Sprintf("%s/repairs/%s/photos/%d?token=%s", s.cfg.PhotoURLPrefix, ticket.ID, i, url.QueryEscape(token)))
	}
}

func (s *RepairService) notify(ctx context.Context, req models.NotificationRequest) {
	if s.notifier != nil && req.Recipient != "" {
		s.notifier.Notify(ctx, req)
	}
}

func sniffContentType(r io.ReadSeeker) (string, error) {
	header := make([]byte, 512)
	n, err := r.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Internal(err, "failed to inspect photo")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Internal(err, "failed to reset photo stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "photo is empty")
	}
	return strings.ToLower(http.DetectContentType(header[:n])), nil
}

func photoExtension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}

func photoContentType(relPath string) string {
	if strings.HasSuffix(strings.ToLower(relPath), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
