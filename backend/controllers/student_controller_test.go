package controllers_test

import (
	"fmt"
	"testing"

	"roboticcoders/backend/models"
	"roboticcoders/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentDashboard(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)
	course := createCourse(t, db, "Robotics 101")
	lessonIDs := createLessons(t, db, course.ID, 1, 2)
	require.NoError(t, services.NewLedger(db).ReplaceStudents(course.ID, []uint{student.ID}))
	require.NoError(t, services.NewProgress(db).MarkLessonComplete(student.ID, lessonIDs[0]))

	token := tokenFor(t, cfg, student)
	resp := doJSON(t, app, fiber.MethodGet, "/api/student/dashboard", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Robotics 101")
	assert.Contains(t, body, `"progress_percent":50`)
}

func TestStudentCourseRequiresEnrollment(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)
	course := createCourse(t, db, "Robotics 101")

	token := tokenFor(t, cfg, student)
	resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/student/courses/%d", course.ID), token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentCourseWithEnrollment(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)
	course := createCourse(t, db, "Robotics 101")
	lessonIDs := createLessons(t, db, course.ID, 2, 1)
	require.NoError(t, services.NewLedger(db).ReplaceStudents(course.ID, []uint{student.ID}))
	require.NoError(t, services.NewProgress(db).MarkLessonComplete(student.ID, lessonIDs[0]))

	token := tokenFor(t, cfg, student)
	resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/student/courses/%d", course.ID), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	completed := result["completed_lesson_ids"].([]interface{})
	require.Len(t, completed, 1)
	assert.EqualValues(t, lessonIDs[0], completed[0])
}

func TestStudentLessonNavigation(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)
	course := createCourse(t, db, "Robotics 101")
	lessonIDs := createLessons(t, db, course.ID, 2, 2)
	require.NoError(t, services.NewLedger(db).ReplaceStudents(course.ID, []uint{student.ID}))

	token := tokenFor(t, cfg, student)

	// Middle lesson points at the next one, across the module boundary.
	resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/student/lessons/%d", lessonIDs[1]), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.EqualValues(t, lessonIDs[2], result["next_lesson_id"])
	assert.Equal(t, false, result["is_completed"])

	// Last lesson has no successor.
	resp = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/student/lessons/%d", lessonIDs[3]), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	result = decodeBody(t, resp)
	assert.Nil(t, result["next_lesson_id"])
}

func TestStudentLessonRequiresEnrollment(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)
	course := createCourse(t, db, "Robotics 101")
	lessonIDs := createLessons(t, db, course.ID, 1, 1)

	token := tokenFor(t, cfg, student)
	resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/student/lessons/%d", lessonIDs[0]), token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentCompleteLesson(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)
	course := createCourse(t, db, "Robotics 101")
	lessonIDs := createLessons(t, db, course.ID, 1, 2)
	require.NoError(t, services.NewLedger(db).ReplaceStudents(course.ID, []uint{student.ID}))

	token := tokenFor(t, cfg, student)
	resp := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/student/lessons/%d/complete", lessonIDs[0]), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, "Lesson completed", result["message"])
	assert.EqualValues(t, course.ID, result["course_id"])
	assert.EqualValues(t, lessonIDs[1], result["next_lesson_id"])

	// Completing twice stays at a single row.
	resp = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/student/lessons/%d/complete", lessonIDs[0]), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&models.StudentLessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", student.ID, lessonIDs[0]).
		Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestStudentCompleteLessonNotEnrolled(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)
	course := createCourse(t, db, "Robotics 101")
	lessonIDs := createLessons(t, db, course.ID, 1, 1)

	token := tokenFor(t, cfg, student)
	resp := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/student/lessons/%d/complete", lessonIDs[0]), token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var count int64
	db.Model(&models.StudentLessonProgress{}).Where("user_id = ?", student.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}
