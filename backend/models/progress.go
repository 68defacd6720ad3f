package models

import (
	"time"

	"gorm.io/gorm"
)

// StudentLessonProgress is one row per (user, lesson). Teachers reviewing the
// material get rows in the same table; the schema does not separate teacher
// self-progress from student progress.
type StudentLessonProgress struct {
	gorm.Model
	UserID   uint `gorm:"not null;uniqueIndex:idx_user_lesson"`
	LessonID uint `gorm:"not null;uniqueIndex:idx_user_lesson"`

	IsCompleted bool
	CompletedAt *time.Time

	User   User
	Lesson Lesson
}
