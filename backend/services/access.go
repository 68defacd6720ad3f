package services

import (
	"errors"
	"sort"

	"roboticcoders/backend/models"

	"gorm.io/gorm"
)

// TeacherAccess answers "is user U a teacher of course C". The schema moved
// from a single teacher id on the course to the assignment ledger, so both
// sources must always be consulted together; call sites never query either
// one on its own.
type TeacherAccess struct {
	DB *gorm.DB
}

func NewTeacherAccess(db *gorm.DB) *TeacherAccess {
	return &TeacherAccess{DB: db}
}

// IsTeacherOfCourse checks the ledger first, then the legacy field.
func (a *TeacherAccess) IsTeacherOfCourse(teacherID, courseID uint) (bool, error) {
	var count int64
	err := a.DB.Model(&models.CourseTeacherAssignment{}).
		Where("course_id = ? AND teacher_id = ?", courseID, teacherID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = a.DB.Model(&models.Course{}).
		Where("id = ? AND teacher_id = ?", courseID, teacherID).
		Count(&count).Error
	return count > 0, err
}

// AssignmentFor returns the teacher's ledger row for the course, or nil when
// the teacher only has legacy access. Teacher views scope enrollments to the
// assignment when one exists; legacy-only teachers see the whole course.
func (a *TeacherAccess) AssignmentFor(teacherID, courseID uint) (*models.CourseTeacherAssignment, error) {
	var assignment models.CourseTeacherAssignment
	err := a.DB.Where("course_id = ? AND teacher_id = ?", courseID, teacherID).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CoursesTaughtBy unions ledger and legacy matches, de-duplicated by course
// id and ordered by title.
func (a *TeacherAccess) CoursesTaughtBy(teacherID uint) ([]models.Course, error) {
	var assigned []models.Course
	err := a.DB.
		Joins("JOIN course_teacher_assignments ON course_teacher_assignments.course_id = courses.id AND course_teacher_assignments.deleted_at IS NULL").
		Where("course_teacher_assignments.teacher_id = ?", teacherID).
		Find(&assigned).Error
	if err != nil {
		return nil, err
	}

	var legacy []models.Course
	if err := a.DB.Where("teacher_id = ?", teacherID).Find(&legacy).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(assigned))
	courses := make([]models.Course, 0, len(assigned)+len(legacy))
	for _, c := range append(assigned, legacy...) {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		courses = append(courses, c)
	}

	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses, nil
}
