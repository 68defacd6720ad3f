package controllers

import (
	"errors"
	"strconv"
	"time"

	"roboticcoders/backend/middleware"
	"roboticcoders/backend/models"
	"roboticcoders/backend/services"
	"roboticcoders/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TeacherController struct {
	DB       *gorm.DB
	Progress *services.Progress
	Access   *services.TeacherAccess
}

func NewTeacherController(db *gorm.DB) *TeacherController {
	return &TeacherController{
		DB:       db,
		Progress: services.NewProgress(db),
		Access:   services.NewTeacherAccess(db),
	}
}

// Dashboard lists the teacher's courses: ledger assignments merged with
// legacy single-teacher courses, one entry per course.
func (tc *TeacherController) Dashboard(c *fiber.Ctx) error {
	teacherID := middleware.CurrentUserID(c)

	courses, err := tc.Access.CoursesTaughtBy(teacherID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		lessons, err := tc.Progress.CourseLessonsOrdered(course.ID)
		if err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}

		studentIDs, err := tc.enrolledStudentIDs(teacherID, course.ID)
		if err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}

		result = append(result, fiber.Map{
			"course_id":     course.ID,
			"title":         course.Title,
			"total_lessons": len(lessons),
			"student_count": len(studentIDs),
		})
	}

	return c.JSON(result)
}

// Course returns the course details with per-student progress and the set of
// lessons the teacher has already reviewed.
func (tc *TeacherController) Course(c *fiber.Ctx) error {
	teacherID := middleware.CurrentUserID(c)

	courseID, ok, err := tc.authorizeCourse(c, teacherID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !ok {
		return utils.NotFound(c, "Course not found")
	}

	var course models.Course
	err = tc.DB.Preload("Modules.Lessons").First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	studentIDs, err := tc.enrolledStudentIDs(teacherID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	progress, err := tc.Progress.ComputeProgress(courseID, studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not compute progress")
	}

	emails, err := tc.emailsFor(studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	studentViews := make([]fiber.Map, 0, len(studentIDs))
	for _, id := range studentIDs {
		sp := progress[id]
		studentViews = append(studentViews, fiber.Map{
			"student_id":            id,
			"student_email":         emails[id],
			"completed_lessons":     sp.CompletedLessons,
			"missing_lessons":       sp.MissingLessons,
			"progress_percent":      sp.ProgressPercent,
			"missing_lesson_titles": sp.MissingLessonTitles,
		})
	}

	reviewed, err := tc.Progress.CompletedLessonIDs(teacherID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	reviewedIDs := make([]uint, 0, len(reviewed))
	for id := range reviewed {
		reviewedIDs = append(reviewedIDs, id)
	}

	return c.JSON(fiber.Map{
		"course":              course,
		"students":            studentViews,
		"reviewed_lesson_ids": reviewedIDs,
	})
}

// StudentProgress returns the completed-lesson count per student for the
// teacher's slice of the course.
func (tc *TeacherController) StudentProgress(c *fiber.Ctx) error {
	teacherID := middleware.CurrentUserID(c)

	courseID, ok, err := tc.authorizeCourse(c, teacherID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !ok {
		return utils.NotFound(c, "Course not found")
	}

	studentIDs, err := tc.enrolledStudentIDs(teacherID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	progress, err := tc.Progress.ComputeProgress(courseID, studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not compute progress")
	}

	emails, err := tc.emailsFor(studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(studentIDs))
	for _, id := range studentIDs {
		result = append(result, fiber.Map{
			"student_email":     emails[id],
			"completed_lessons": progress[id].CompletedLessons,
		})
	}
	return c.JSON(result)
}

// CompleteLesson records the teacher's own review progress for a lesson of
// a course they teach.
func (tc *TeacherController) CompleteLesson(c *fiber.Ctx) error {
	teacherID := middleware.CurrentUserID(c)

	courseID, ok, err := tc.authorizeCourse(c, teacherID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !ok {
		return utils.NotFound(c, "Course not found")
	}

	lessonID, err := strconv.Atoi(c.Params("lessonId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var belongs int64
	err = tc.DB.Model(&models.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id AND modules.deleted_at IS NULL").
		Where("lessons.id = ? AND modules.course_id = ?", lessonID, courseID).
		Count(&belongs).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if belongs == 0 {
		return utils.NotFound(c, "Lesson not found")
	}

	if err := tc.Progress.MarkLessonComplete(teacherID, uint(lessonID)); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not save progress")
	}

	return c.JSON(fiber.Map{"message": "Lesson marked as reviewed"})
}

// ExportStudentsCSV exports the teacher's slice of the course, without the
// teacher column.
func (tc *TeacherController) ExportStudentsCSV(c *fiber.Ctx) error {
	teacherID := middleware.CurrentUserID(c)

	courseID, ok, err := tc.authorizeCourse(c, teacherID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !ok {
		return utils.NotFound(c, "Course not found")
	}

	var course models.Course
	if err := tc.DB.First(&course, courseID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	studentIDs, err := tc.enrolledStudentIDs(teacherID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	progress, err := tc.Progress.ComputeProgress(courseID, studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not compute progress")
	}

	emails, err := tc.emailsFor(studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	rows := make([]utils.ProgressCSVRow, 0, len(studentIDs))
	for _, id := range studentIDs {
		sp := progress[id]
		rows = append(rows, utils.ProgressCSVRow{
			Email:     emails[id],
			Completed: sp.CompletedLessons,
			Total:     sp.TotalLessons,
			Percent:   sp.ProgressPercent,
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		`attachment; filename="`+utils.StudentsCSVFileName(course.Title, time.Now())+`"`)
	return c.Send(utils.StudentsCSV(rows, false))
}

// authorizeCourse parses the course id and applies the dual ledger/legacy
// teacher check. Unauthorized courses read as not found.
func (tc *TeacherController) authorizeCourse(c *fiber.Ctx, teacherID uint) (uint, bool, error) {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, false, nil
	}

	ok, err := tc.Access.IsTeacherOfCourse(teacherID, uint(courseID))
	if err != nil {
		return 0, false, err
	}
	return uint(courseID), ok, nil
}

// enrolledStudentIDs returns the students the teacher sees in the course:
// the ones delegated to their assignment, or every enrollment when access
// comes only from the legacy field.
func (tc *TeacherController) enrolledStudentIDs(teacherID, courseID uint) ([]uint, error) {
	assignment, err := tc.Access.AssignmentFor(teacherID, courseID)
	if err != nil {
		return nil, err
	}

	query := tc.DB.Model(&models.CourseEnrollment{}).Where("course_id = ?", courseID)
	if assignment != nil {
		query = query.Where("course_teacher_assignment_id = ?", assignment.ID)
	}

	var ids []uint
	err = query.Order("id").Pluck("user_id", &ids).Error
	return ids, err
}

func (tc *TeacherController) emailsFor(userIDs []uint) (map[uint]string, error) {
	emails := make(map[uint]string, len(userIDs))
	if len(userIDs) == 0 {
		return emails, nil
	}

	var users []models.User
	if err := tc.DB.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	return emails, nil
}
