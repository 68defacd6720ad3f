package controllers

import (
	"errors"
	"strconv"

	"roboticcoders/backend/middleware"
	"roboticcoders/backend/models"
	"roboticcoders/backend/services"
	"roboticcoders/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StudentController struct {
	DB       *gorm.DB
	Progress *services.Progress
}

func NewStudentController(db *gorm.DB) *StudentController {
	return &StudentController{
		DB:       db,
		Progress: services.NewProgress(db),
	}
}

// Dashboard lists the student's enrolled courses with percent complete.
func (sc *StudentController) Dashboard(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var enrollments []models.CourseEnrollment
	err := sc.DB.Where("user_id = ?", userID).Preload("Course").Find(&enrollments).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(enrollments))
	for _, e := range enrollments {
		progress, err := sc.Progress.ComputeProgress(e.CourseID, []uint{userID})
		if err != nil {
			return utils.InternalServerError(c, "Could not compute progress")
		}
		sp := progress[userID]

		result = append(result, fiber.Map{
			"course_id":        e.CourseID,
			"title":            e.Course.Title,
			"description":      e.Course.Description,
			"progress_percent": sp.ProgressPercent,
		})
	}

	return c.JSON(result)
}

// Course returns the module tree of a course the student is enrolled in.
// Non-enrolled courses read as not found, hiding their existence.
func (sc *StudentController) Course(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	enrolled, err := sc.isEnrolled(userID, uint(courseID))
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !enrolled {
		return utils.NotFound(c, "Course not found")
	}

	var course models.Course
	err = sc.DB.Preload("Modules.Lessons.HtmlResources").First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	completed, err := sc.Progress.CompletedLessonIDs(userID, uint(courseID))
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	completedIDs := make([]uint, 0, len(completed))
	for id := range completed {
		completedIDs = append(completedIDs, id)
	}

	return c.JSON(fiber.Map{
		"course":               course,
		"completed_lesson_ids": completedIDs,
	})
}

// Lesson returns one lesson with navigation: the id of the next lesson in
// module-then-lesson order, the student's completion flag and the overall
// course progress.
func (sc *StudentController) Lesson(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var lesson models.Lesson
	err = sc.DB.Preload("HtmlResources").Preload("Module").First(&lesson, lessonID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	courseID := lesson.Module.CourseID

	enrolled, err := sc.isEnrolled(userID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !enrolled {
		return utils.NotFound(c, "Lesson not found")
	}

	lessons, err := sc.Progress.CourseLessonsOrdered(courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var nextLessonID *uint
	for i, l := range lessons {
		if l.LessonID == uint(lessonID) && i < len(lessons)-1 {
			next := lessons[i+1].LessonID
			nextLessonID = &next
			break
		}
	}

	completed, err := sc.Progress.CompletedLessonIDs(userID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"lesson":           lesson,
		"course_id":        courseID,
		"next_lesson_id":   nextLessonID,
		"is_completed":     completed[uint(lessonID)],
		"progress_percent": services.Percent(len(completed), len(lessons)),
	})
}

// CompleteLesson marks the lesson complete for the student and returns where
// to go next: the following lesson when there is one, otherwise the course.
func (sc *StudentController) CompleteLesson(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var lesson models.Lesson
	err = sc.DB.Preload("Module").First(&lesson, lessonID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	courseID := lesson.Module.CourseID

	enrolled, err := sc.isEnrolled(userID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !enrolled {
		return utils.NotFound(c, "Lesson not found")
	}

	if err := sc.Progress.MarkLessonComplete(userID, uint(lessonID)); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not save progress")
	}

	lessons, err := sc.Progress.CourseLessonsOrdered(courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	var nextLessonID *uint
	for i, l := range lessons {
		if l.LessonID == uint(lessonID) && i < len(lessons)-1 {
			next := lessons[i+1].LessonID
			nextLessonID = &next
			break
		}
	}

	return c.JSON(fiber.Map{
		"message":        "Lesson completed",
		"course_id":      courseID,
		"next_lesson_id": nextLessonID,
	})
}

func (sc *StudentController) isEnrolled(userID, courseID uint) (bool, error) {
	var count int64
	err := sc.DB.Model(&models.CourseEnrollment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	return count > 0, err
}
