package controllers_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicCatalog(t *testing.T) {
	app, db, _ := newTestApp(t)
	createCourse(t, db, "Robotics 101")
	createCourse(t, db, "Robotics 201")

	resp := doJSON(t, app, fiber.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Robotics 101")
	assert.Contains(t, body, "Robotics 201")
}

func TestPublicCourseDetails(t *testing.T) {
	app, db, _ := newTestApp(t)
	course := createCourse(t, db, "Robotics 101")
	createLessons(t, db, course.ID, 1, 2)

	resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Module 1")
	assert.Contains(t, body, "Lesson 1.1")
}

func TestPublicCourseDetailsNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/courses/9999", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
