package models

import "time"

// CourseLevel grades course difficulty.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "beginner"
	CourseLevelIntermediate CourseLevel = "intermediate"
	CourseLevelAdvanced     CourseLevel = "advanced"
)

// Course is a training course offered by the shop. Deleting sets IsActive to false.
type Course struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Description  string      `db:"description" json:"description"`
	Duration     string      `db:"duration" json:"duration"`
	Price        float64     `db:"price" json:"price"`
	Image        string      `db:"image" json:"image"`
	Syllabus     string      `db:"syllabus" json:"syllabus"`
	SyllabusHTML string      `db:"-" json:"syllabus_html,omitempty"`
	Level        CourseLevel `db:"level" json:"level"`
	IsActive     bool        `db:"is_active" json:"is_active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// CreateCourseRequest defines a new course.
type CreateCourseRequest struct {
	Name        string      `json:"name" validate:"required,max=50"`
	Description string      `json:"description" validate:"required,max=2000"`
	Duration    string      `json:"duration" validate:"required,max=50"`
	Price       float64     `json:"price" validate:"gte=0"`
	Image       string      `json:"image" validate:"omitempty,max=500"`
	Syllabus    string      `json:"syllabus" validate:"max=20000"`
	Level       CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// UpdateCourseRequest patches a course. Nil fields are left unchanged.
type UpdateCourseRequest struct {
	Name        *string      `json:"name" validate:"omitempty,max=50"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	Duration    *string      `json:"duration" validate:"omitempty,max=50"`
	Price       *float64     `json:"price" validate:"omitempty,gte=0"`
	Image       *string      `json:"image" validate:"omitempty,max=500"`
	Syllabus    *string      `json:"syllabus" validate:"omitempty,max=20000"`
	Level       *CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	IsActive    *bool        `json:"is_active"`
}
