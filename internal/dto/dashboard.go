package dto

import (
	"time"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

// DashboardQuery parameterises the admin snapshot.
type DashboardQuery struct {
	Recent int    `form:"recent"`
	Search string `form:"search"`
}

// DashboardSnapshot aggregates every admin collection in one payload.
// Partial is true when at least one section failed to load.
type DashboardSnapshot struct {
	Repairs     RepairSection     `json:"repairs"`
	Enrollments EnrollmentSection `json:"enrollments"`
	Courses     CourseSection     `json:"courses"`
	Users       UserSection       `json:"users"`
	Search      string            `json:"search,omitempty"`
	Partial     bool              `json:"partial"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// SectionSummary is shared by every dashboard section.
type SectionSummary struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
	Failed bool           `json:"failed"`
	Error  string         `json:"error,omitempty"`
}

// RepairSection lists repair tickets newest first.
type RepairSection struct {
	SectionSummary
	Recent []models.RepairTicket `json:"recent"`
	Items  []models.RepairTicket `json:"items"`
}

// EnrollmentSection lists enrollments newest first.
type EnrollmentSection struct {
	SectionSummary
	Recent []models.Enrollment `json:"recent"`
	Items  []models.Enrollment `json:"items"`
}

// CourseSection lists every course, active or not, newest first.
type CourseSection struct {
	SectionSummary
	Recent []models.Course `json:"recent"`
	Items  []models.Course `json:"items"`
}

// UserSection lists accounts newest first.
type UserSection struct {
	SectionSummary
	Recent []models.User `json:"recent"`
	Items  []models.User `json:"items"`
}
