package services

import (
	"errors"
	"time"

	"roboticcoders/backend/models"

	"gorm.io/gorm"
)

// Progress computes completion metrics from raw progress rows. All percent
// math in the system goes through this package so the admin, teacher and
// student views agree on the same numbers.
type Progress struct {
	DB *gorm.DB
}

func NewProgress(db *gorm.DB) *Progress {
	return &Progress{DB: db}
}

type StudentCourseProgress struct {
	UserID              uint     `json:"user_id"`
	CompletedLessons    int      `json:"completed_lessons"`
	MissingLessons      int      `json:"missing_lessons"`
	TotalLessons        int      `json:"total_lessons"`
	ProgressPercent     int      `json:"progress_percent"`
	MissingLessonTitles []string `json:"missing_lesson_titles"`
}

type TeacherCourseProgress struct {
	TeacherID        uint   `json:"teacher_id"`
	TeacherEmail     string `json:"teacher_email"`
	CompletedLessons int    `json:"completed_lessons"`
	TotalLessons     int    `json:"total_lessons"`
	ProgressPercent  int    `json:"progress_percent"`
}

// CourseLesson is a lesson in course order: modules by id, lessons by id
// within each module.
type CourseLesson struct {
	LessonID    uint
	ModuleTitle string
	LessonTitle string
}

// Percent is integer floor division; a course with zero lessons is 0%,
// never a division fault.
func Percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return completed * 100 / total
}

// CourseLessonsOrdered flattens the course's modules into a single ordered
// lesson list.
func (p *Progress) CourseLessonsOrdered(courseID uint) ([]CourseLesson, error) {
	var rows []CourseLesson
	err := p.DB.Model(&models.Lesson{}).
		Select("lessons.id AS lesson_id, modules.title AS module_title, lessons.title AS lesson_title").
		Joins("JOIN modules ON modules.id = lessons.module_id AND modules.deleted_at IS NULL").
		Where("modules.course_id = ?", courseID).
		Order("modules.id, lessons.id").
		Scan(&rows).Error
	return rows, err
}

// ComputeProgress returns each student's completion state for the course,
// keyed by student id. Students with no progress rows count as 0 completed.
func (p *Progress) ComputeProgress(courseID uint, studentIDs []uint) (map[uint]*StudentCourseProgress, error) {
	lessons, err := p.CourseLessonsOrdered(courseID)
	if err != nil {
		return nil, err
	}

	total := len(lessons)
	result := make(map[uint]*StudentCourseProgress, len(studentIDs))
	for _, id := range studentIDs {
		result[id] = &StudentCourseProgress{UserID: id, TotalLessons: total}
	}
	if len(studentIDs) == 0 {
		return result, nil
	}

	lessonIDs := make([]uint, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.LessonID
	}

	completedByStudent := make(map[uint]map[uint]bool)
	if total > 0 {
		var completed []models.StudentLessonProgress
		err = p.DB.
			Where("user_id IN ? AND lesson_id IN ? AND is_completed = ?", studentIDs, lessonIDs, true).
			Find(&completed).Error
		if err != nil {
			return nil, err
		}
		for _, row := range completed {
			set := completedByStudent[row.UserID]
			if set == nil {
				set = make(map[uint]bool)
				completedByStudent[row.UserID] = set
			}
			set[row.LessonID] = true
		}
	}

	for _, sp := range result {
		completedSet := completedByStudent[sp.UserID]
		for _, l := range lessons {
			if completedSet[l.LessonID] {
				sp.CompletedLessons++
				continue
			}
			sp.MissingLessonTitles = append(sp.MissingLessonTitles, l.ModuleTitle+": "+l.LessonTitle)
		}
		sp.MissingLessons = len(sp.MissingLessonTitles)
		sp.ProgressPercent = Percent(sp.CompletedLessons, total)
	}

	return result, nil
}

// ComputeCourseTeacherProgress reports, per teacher assigned to the course,
// how much of the material the teacher has reviewed themselves.
func (p *Progress) ComputeCourseTeacherProgress(courseID uint) ([]TeacherCourseProgress, error) {
	var assignments []models.CourseTeacherAssignment
	err := p.DB.Preload("Teacher").
		Where("course_id = ?", courseID).
		Order("id").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	lessons, err := p.CourseLessonsOrdered(courseID)
	if err != nil {
		return nil, err
	}
	total := len(lessons)
	lessonIDs := make([]uint, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.LessonID
	}

	result := make([]TeacherCourseProgress, 0, len(assignments))
	for _, a := range assignments {
		var completed int64
		if total > 0 {
			err = p.DB.Model(&models.StudentLessonProgress{}).
				Where("user_id = ? AND lesson_id IN ? AND is_completed = ?", a.TeacherID, lessonIDs, true).
				Count(&completed).Error
			if err != nil {
				return nil, err
			}
		}
		result = append(result, TeacherCourseProgress{
			TeacherID:        a.TeacherID,
			TeacherEmail:     a.Teacher.Email,
			CompletedLessons: int(completed),
			TotalLessons:     total,
			ProgressPercent:  Percent(int(completed), total),
		})
	}

	return result, nil
}

// MarkLessonComplete upserts the (user, lesson) progress row. Repeated calls
// never create a second row; the completion timestamp always reflects the
// latest call.
func (p *Progress) MarkLessonComplete(userID, lessonID uint) error {
	var lesson models.Lesson
	if err := p.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	now := time.Now().UTC()

	var progress models.StudentLessonProgress
	err := p.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.StudentLessonProgress{
			UserID:      userID,
			LessonID:    lessonID,
			IsCompleted: true,
			CompletedAt: &now,
		}
		return p.DB.Create(&progress).Error
	}
	if err != nil {
		return err
	}

	progress.IsCompleted = true
	progress.CompletedAt = &now
	return p.DB.Save(&progress).Error
}

// CompletedLessonIDs returns the set of the course's lessons the user has
// completed.
func (p *Progress) CompletedLessonIDs(userID, courseID uint) (map[uint]bool, error) {
	var ids []uint
	err := p.DB.Model(&models.StudentLessonProgress{}).
		Joins("JOIN lessons ON lessons.id = student_lesson_progresses.lesson_id AND lessons.deleted_at IS NULL").
		Joins("JOIN modules ON modules.id = lessons.module_id AND modules.deleted_at IS NULL").
		Where("student_lesson_progresses.user_id = ? AND student_lesson_progresses.is_completed = ? AND modules.course_id = ?", userID, true, courseID).
		Pluck("student_lesson_progresses.lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
