package services

import (
	"errors"
	"sort"

	"roboticcoders/backend/models"

	"gorm.io/gorm"
)

// Ledger maintains which teachers are assigned to a course and which students
// are enrolled under which teacher.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// ReconcileCourseAssignments brings the course's teacher assignments and
// student enrollments in line with the admin's submitted state.
//
// selectedTeacherIDs is the desired teacher set; every id must belong to a
// user with the Docente role or the whole call fails without writing.
// studentTeacherMap maps student id to the teacher the student should be
// delegated to; entries for unknown students or non-teacher users are dropped
// rather than rejected, since they usually come from stale form rows. A
// teacher referenced only through the map is added to the selected set so the
// implied assignment is never lost.
//
// Enrollments are replaced wholesale: they carry no state besides their
// foreign keys, so a full rebuild is simpler than diffing. An empty teacher
// list means "unassign everyone", not "no change".
func (l *Ledger) ReconcileCourseAssignments(courseID uint, selectedTeacherIDs []uint, studentTeacherMap map[uint]uint) error {
	var course models.Course
	if err := l.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	selected := dedupeIDs(selectedTeacherIDs)

	teacherIDSet, err := l.roleIDSet(models.RoleTeacher)
	if err != nil {
		return err
	}
	for _, tid := range selected {
		if !teacherIDSet[tid] {
			return NewValidationError("teachers", "Hay docentes seleccionados que no son válidos.")
		}
	}

	studentIDSet, err := l.roleIDSet(models.RoleStudent)
	if err != nil {
		return err
	}

	// Drop stale map entries, then pull map-implied teachers into the
	// selected set so an assignment set in the student section is not lost
	// when the course-level checkbox was forgotten.
	normalized := make(map[uint]uint)
	for studentID, teacherID := range studentTeacherMap {
		if teacherID == 0 || !studentIDSet[studentID] || !teacherIDSet[teacherID] {
			continue
		}
		normalized[studentID] = teacherID
	}

	selectedSet := make(map[uint]bool, len(selected))
	for _, tid := range selected {
		selectedSet[tid] = true
	}
	var implied []uint
	for _, teacherID := range normalized {
		if !selectedSet[teacherID] {
			selectedSet[teacherID] = true
			implied = append(implied, teacherID)
		}
	}
	sort.Slice(implied, func(i, j int) bool { return implied[i] < implied[j] })
	selected = append(selected, implied...)

	return l.DB.Transaction(func(tx *gorm.DB) error {
		var existing []models.CourseTeacherAssignment
		if err := tx.Where("course_id = ?", courseID).Find(&existing).Error; err != nil {
			return err
		}

		var removedIDs []uint
		existingTeacherIDs := make(map[uint]bool, len(existing))
		for _, a := range existing {
			existingTeacherIDs[a.TeacherID] = true
			if !selectedSet[a.TeacherID] {
				removedIDs = append(removedIDs, a.ID)
			}
		}

		// Enrollments pointing at a removed assignment go first so no row is
		// ever left referencing a dead assignment.
		if len(removedIDs) > 0 {
			if err := tx.Unscoped().
				Where("course_id = ? AND course_teacher_assignment_id IN ?", courseID, removedIDs).
				Delete(&models.CourseEnrollment{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().
				Where("id IN ?", removedIDs).
				Delete(&models.CourseTeacherAssignment{}).Error; err != nil {
				return err
			}
		}

		for _, tid := range selected {
			if existingTeacherIDs[tid] {
				continue
			}
			assignment := models.CourseTeacherAssignment{CourseID: courseID, TeacherID: tid}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}

		// Re-read so newly created assignments get their store-assigned ids.
		var current []models.CourseTeacherAssignment
		if err := tx.Where("course_id = ?", courseID).Find(&current).Error; err != nil {
			return err
		}
		assignmentIDByTeacher := make(map[uint]uint, len(current))
		for _, a := range current {
			assignmentIDByTeacher[a.TeacherID] = a.ID
		}

		if err := tx.Unscoped().
			Where("course_id = ?", courseID).
			Delete(&models.CourseEnrollment{}).Error; err != nil {
			return err
		}

		for _, studentID := range sortedKeys(normalized) {
			assignmentID, ok := assignmentIDByTeacher[normalized[studentID]]
			if !ok {
				continue
			}
			enrollment := models.CourseEnrollment{
				CourseID:                  courseID,
				UserID:                    studentID,
				CourseTeacherAssignmentID: &assignmentID,
			}
			if err := tx.Create(&enrollment).Error; err != nil {
				return err
			}
		}

		// Legacy compatibility: older read paths still look at the single
		// teacher field. First selected teacher wins, nil when none.
		course.TeacherID = nil
		if len(selected) > 0 {
			course.TeacherID = &selected[0]
		}
		return tx.Model(&models.Course{}).
			Where("id = ?", courseID).
			Update("teacher_id", course.TeacherID).Error
	})
}

// ReplaceStudents rebuilds the course's enrollments from a plain student list,
// leaving every enrollment unassigned to any teacher. Used by the bulk
// student-assignment screen.
func (l *Ledger) ReplaceStudents(courseID uint, studentIDs []uint) error {
	var course models.Course
	if err := l.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	ids := dedupeIDs(studentIDs)

	return l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("course_id = ?", courseID).
			Delete(&models.CourseEnrollment{}).Error; err != nil {
			return err
		}
		for _, id := range ids {
			enrollment := models.CourseEnrollment{CourseID: courseID, UserID: id}
			if err := tx.Create(&enrollment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Ledger) roleIDSet(role string) (map[uint]bool, error) {
	var ids []uint
	if err := l.DB.Model(&models.User{}).Where("role = ?", role).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortedKeys(m map[uint]uint) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
