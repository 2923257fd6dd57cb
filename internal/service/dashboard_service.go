package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/dto"
	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

type dashboardRepairSource interface {
	List(ctx context.Context, filter models.RepairFilter) ([]models.RepairTicket, error)
}

type dashboardEnrollmentSource interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error)
}

type dashboardCourseSource interface {
	List(ctx context.Context, activeOnly bool) ([]models.Course, error)
}

type dashboardUserSource interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
	MaxRecent   int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repairs     dashboardRepairSource
	Enrollments dashboardEnrollmentSource
	Courses     dashboardCourseSource
	Users       dashboardUserSource
	Cache       snapshotCache
	Metrics     *MetricsService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes the admin snapshot from every collection.
type DashboardService struct {
	repairs     dashboardRepairSource
	enrollments dashboardEnrollmentSource
	courses     dashboardCourseSource
	users       dashboardUserSource
	cache       snapshotCache
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.MaxRecent <= 0 {
		cfg.MaxRecent = 50
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repairs:     params.Repairs,
		enrollments: params.Enrollments,
		courses:     params.Courses,
		users:       params.Users,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Snapshot returns the admin dashboard and whether it came from cache.
// A failing collection marks only its own section as failed.
func (s *DashboardService) Snapshot(ctx context.Context, query dto.DashboardQuery, actor *models.JWTClaims) (*dto.DashboardSnapshot, bool, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, false, err
	}
	recent := query.Recent
	if recent <= 0 {
		recent = s.cfg.RecentLimit
	}
	if recent > s.cfg.MaxRecent {
		recent = s.cfg.MaxRecent
	}
	search := strings.ToLower(strings.TrimSpace(query.Search))
	cacheKey := fmt.Sprintf("dash:admin:%d", recent)

	if search == "" {
		if snapshot, hit := s.fromCache(ctx, cacheKey); hit {
			return snapshot, true, nil
		}
	}

	snapshot := s.compose(ctx, recent)
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if search != "" {
		snapshot = filterSnapshot(snapshot, search, recent)
		snapshot.Search = query.Search
		return snapshot, false, nil
	}
	if !snapshot.Partial {
		s.persist(ctx, cacheKey, snapshot)
	}
	return snapshot, false, nil
}

func (s *DashboardService) compose(ctx context.Context, recent int) *dto.DashboardSnapshot {
	var (
		wg          sync.WaitGroup
		repairs     []models.RepairTicket
		enrollments []models.Enrollment
		courses     []models.Course
		users       []models.User
		repairErr   error
		enrollErr   error
		courseErr   error
		userErr     error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		repairs, repairErr = s.repairs.List(ctx, models.RepairFilter{})
	}()
	go func() {
		defer wg.Done()
		enrollments, enrollErr = s.enrollments.List(ctx, models.EnrollmentFilter{})
	}()
	go func() {
		defer wg.Done()
		courses, courseErr = s.courses.List(ctx, false)
	}()
	go func() {
		defer wg.Done()
		users, userErr = s.users.ListAll(ctx)
	}()
	wg.Wait()

	snapshot := &dto.DashboardSnapshot{GeneratedAt: s.now().UTC()}
	snapshot.Repairs = buildRepairSection(repairs, recent)
	snapshot.Enrollments = buildEnrollmentSection(enrollments, recent)
	snapshot.Courses = buildCourseSection(courses, recent)
	snapshot.Users = buildUserSection(users, recent)

	s.markFailure(&snapshot.Repairs.SectionSummary, "repairs", repairErr, snapshot)
	s.markFailure(&snapshot.Enrollments.SectionSummary, "enrollments", enrollErr, snapshot)
	s.markFailure(&snapshot.Courses.SectionSummary, "courses", courseErr, snapshot)
	s.markFailure(&snapshot.Users.SectionSummary, "users", userErr, snapshot)
	return snapshot
}

func (s *DashboardService) markFailure(section *dto.SectionSummary, name string, err error, snapshot *dto.DashboardSnapshot) {
	if err == nil {
		return
	}
	section.Failed = true
	section.Error = fmt.Sprintf("failed to load %s", name)
	snapshot.Partial = true
	s.metrics.RecordDashboardSectionFailure(name)
	s.logger.Warn("dashboard section failed", zap.String("section", name), zap.Error(err))
}

func (s *DashboardService) fromCache(ctx context.Context, key string) (*dto.DashboardSnapshot, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached dto.DashboardSnapshot
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persist(ctx context.Context, key string, snapshot *dto.DashboardSnapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, snapshot, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func buildRepairSection(items []models.RepairTicket, recent int) dto.RepairSection {
	if items == nil {
		items = []models.RepairTicket{}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	counts := map[string]int{}
	for _, status := range models.RepairStatuses {
		counts[string(status)] = 0
	}
	for _, item := range items {
		counts[string(item.Status)]++
	}
	return dto.RepairSection{
		SectionSummary: dto.SectionSummary{Total: len(items), Counts: counts},
		Recent:         items[:minInt(recent, len(items))],
		Items:          items,
	}
}

func buildEnrollmentSection(items []models.Enrollment, recent int) dto.EnrollmentSection {
	if items == nil {
		items = []models.Enrollment{}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	counts := map[string]int{}
	for _, status := range models.EnrollmentStatuses {
		counts[string(status)] = 0
	}
	for _, item := range items {
		counts[string(item.Status)]++
	}
	return dto.EnrollmentSection{
		SectionSummary: dto.SectionSummary{Total: len(items), Counts: counts},
		Recent:         items[:minInt(recent, len(items))],
		Items:          items,
	}
}

func buildCourseSection(items []models.Course, recent int) dto.CourseSection {
	if items == nil {
		items = []models.Course{}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	counts := map[string]int{"active": 0, "inactive": 0}
	for _, item := range items {
		if item.IsActive {
			counts["active"]++
		} else {
			counts["inactive"]++
		}
	}
	return dto.CourseSection{
		SectionSummary: dto.SectionSummary{Total: len(items), Counts: counts},
		Recent:         items[:minInt(recent, len(items))],
		Items:          items,
	}
}

func buildUserSection(items []models.User, recent int) dto.UserSection {
	if items == nil {
		items = []models.User{}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	counts := map[string]int{string(models.RoleUser): 0, string(models.RoleAdmin): 0}
	for _, item := range items {
		counts[string(item.Role)]++
	}
	return dto.UserSection{
		SectionSummary: dto.SectionSummary{Total: len(items), Counts: counts},
		Recent:         items[:minInt(recent, len(items))],
		Items:          items,
	}
}

// filterSnapshot narrows every healthy section to rows containing term and
// recomputes totals and counts over the remaining rows.
func filterSnapshot(snapshot *dto.DashboardSnapshot, term string, recent int) *dto.DashboardSnapshot {
	out := &dto.DashboardSnapshot{GeneratedAt: snapshot.GeneratedAt, Partial: snapshot.Partial}

	repairs := make([]models.RepairTicket, 0)
	for _, r := range snapshot.Repairs.Items {
		if matches(term, r.ID, r.DeviceType, r.Brand, r.Model, r.Issue, string(r.Status), r.OwnerName, r.OwnerEmail) {
			repairs = append(repairs, r)
		}
	}
	out.Repairs = buildRepairSection(repairs, recent)
	out.Repairs.Failed, out.Repairs.Error = snapshot.Repairs.Failed, snapshot.Repairs.Error

	enrollments := make([]models.Enrollment, 0)
	for _, e := range snapshot.Enrollments.Items {
		if matches(term, e.ID, e.FullName, e.Email, e.Phone, e.CourseName, string(e.Status), e.Reference()) {
			enrollments = append(enrollments, e)
		}
	}
	out.Enrollments = buildEnrollmentSection(enrollments, recent)
	out.Enrollments.Failed, out.Enrollments.Error = snapshot.Enrollments.Failed, snapshot.Enrollments.Error

	courses := make([]models.Course, 0)
	for _, c := range snapshot.Courses.Items {
		if matches(term, c.ID, c.Name, c.Description, string(c.Level)) {
			courses = append(courses, c)
		}
	}
	out.Courses = buildCourseSection(courses, recent)
	out.Courses.Failed, out.Courses.Error = snapshot.Courses.Failed, snapshot.Courses.Error

	users := make([]models.User, 0)
	for _, u := range snapshot.Users.Items {
		if matches(term, u.ID, u.Name, u.Email, u.Phone, string(u.Role)) {
			users = append(users, u)
		}
	}
	out.Users = buildUserSection(users, recent)
	out.Users.Failed, out.Users.Error = snapshot.Users.Failed, snapshot.Users.Error

	return out
}

func matches(term string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
