package models

import "gorm.io/gorm"

// Slide attachment kinds for Lesson.SlidesType.
const (
	SlidesTypeFile  = "file"
	SlidesTypeEmbed = "embed"
)

type Course struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description string
	ImageURL    string

	// Legacy single-teacher field, superseded by CourseTeacherAssignment.
	// Kept in sync by the assignment ledger for older read paths.
	TeacherID *uint

	Modules []Module
}

type Module struct {
	gorm.Model
	CourseID uint   `gorm:"not null;index"`
	Title    string `gorm:"not null"`

	// Lesson order within a module is id order; there is no sequence column.
	Lessons []Lesson
}

type Lesson struct {
	gorm.Model
	ModuleID uint   `gorm:"not null;index"`
	Title    string `gorm:"not null"`
	Content  string

	SlideURL       string
	SlidesType     string // file, embed
	SlidesEmbedURL string
	VideoURL       string

	Module        Module `json:"-"`
	HtmlResources []LessonHtmlResource
}

type LessonHtmlResource struct {
	gorm.Model
	LessonID         uint   `gorm:"not null;index"`
	Title            string `gorm:"size:200"`
	OriginalFileName string `gorm:"size:260"`
	URL              string `gorm:"size:500"`
}
