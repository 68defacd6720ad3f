package controllers

import (
	"errors"
	"strconv"

	"roboticcoders/backend/models"
	"roboticcoders/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CourseController serves the public course catalog.
type CourseController struct {
	DB *gorm.DB
}

func NewCourseController(db *gorm.DB) *CourseController {
	return &CourseController{DB: db}
}

func (cc *CourseController) Index(c *fiber.Ctx) error {
	var courses []models.Course
	if err := cc.DB.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"image_url":   course.ImageURL,
		})
	}
	return c.JSON(result)
}

func (cc *CourseController) Details(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	err = cc.DB.Preload("Modules.Lessons").First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(course)
}
