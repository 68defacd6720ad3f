package controllers

import (
	"errors"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"roboticcoders/backend/models"
	"roboticcoders/backend/services"
	"roboticcoders/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminCourseController manages the catalog: courses, modules, lessons and
// their slide/HTML attachments.
type AdminCourseController struct {
	DB       *gorm.DB
	Storage  *utils.Storage
	Progress *services.Progress
	Logger   *log.Logger
}

func NewAdminCourseController(db *gorm.DB, storage *utils.Storage, logger *log.Logger) *AdminCourseController {
	return &AdminCourseController{
		DB:       db,
		Storage:  storage,
		Progress: services.NewProgress(db),
		Logger:   logger,
	}
}

func (cc *AdminCourseController) ListCourses(c *fiber.Ctx) error {
	var courses []models.Course
	if err := cc.DB.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(courses)
}

func (cc *AdminCourseController) CreateCourse(c *fiber.Ctx) error {
	var input struct {
		Title       string `json:"title" validate:"required,min=3"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(&input); err != nil {
		return utils.ValidationError(c, validationMessages(err))
	}

	course := models.Course{
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return utils.Created(c, course)
}

// GetCourse returns the course with its module tree and, per enrolled
// student, completion status including the titles of the lessons still
// missing.
func (cc *AdminCourseController) GetCourse(c *fiber.Ctx) error {
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

	var enrollments []models.CourseEnrollment
	err = cc.DB.Where("course_id = ?", courseID).Preload("User").Find(&enrollments).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	studentIDs := make([]uint, 0, len(enrollments))
	emailByID := make(map[uint]string, len(enrollments))
	for _, e := range enrollments {
		studentIDs = append(studentIDs, e.UserID)
		emailByID[e.UserID] = e.User.Email
	}

	progress, err := cc.Progress.ComputeProgress(course.ID, studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not compute progress")
	}

	studentViews := make([]fiber.Map, 0, len(studentIDs))
	for _, id := range studentIDs {
		sp := progress[id]
		studentViews = append(studentViews, fiber.Map{
			"student_id":            id,
			"student_email":         emailByID[id],
			"completed_lessons":     sp.CompletedLessons,
			"missing_lessons":       sp.MissingLessons,
			"progress_percent":      sp.ProgressPercent,
			"missing_lesson_titles": sp.MissingLessonTitles,
		})
	}

	totalLessons := 0
	for _, m := range course.Modules {
		totalLessons += len(m.Lessons)
	}

	return c.JSON(fiber.Map{
		"course":        course,
		"total_lessons": totalLessons,
		"students":      studentViews,
	})
}

func (cc *AdminCourseController) CreateModule(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var input struct {
		Title string `json:"title" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(&input); err != nil {
		return utils.ValidationError(c, validationMessages(err))
	}

	module := models.Module{CourseID: course.ID, Title: input.Title}
	if err := cc.DB.Create(&module).Error; err != nil {
		return utils.InternalServerError(c, "Could not create module")
	}

	return utils.Created(c, module)
}

func (cc *AdminCourseController) UpdateModule(c *fiber.Ctx) error {
	moduleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var module models.Module
	if err := cc.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var input struct {
		Title string `json:"title" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(&input); err != nil {
		return utils.ValidationError(c, validationMessages(err))
	}

	module.Title = input.Title
	if err := cc.DB.Save(&module).Error; err != nil {
		return utils.InternalServerError(c, "Could not update module")
	}

	return c.JSON(module)
}

func (cc *AdminCourseController) ModuleLessons(c *fiber.Ctx) error {
	moduleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var module models.Module
	err = cc.DB.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("lessons.id")
	}).Preload("Lessons.HtmlResources").First(&module, moduleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(module)
}

// CreateLesson accepts multipart form data: title, content, video_url and
// either a slides file (.pdf/.ppt/.pptx) or a slides_embed_url. The blob is
// stored before the row; when the row insert fails the blob is removed again
// on a best-effort basis.
func (cc *AdminCourseController) CreateLesson(c *fiber.Ctx) error {
	moduleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var module models.Module
	if err := cc.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return utils.ValidationError(c, map[string]string{"title": "This field is required"})
	}

	lesson := models.Lesson{
		ModuleID: module.ID,
		Title:    title,
		Content:  c.FormValue("content"),
		VideoURL: c.FormValue("video_url"),
	}

	var storedURL string
	if file, err := c.FormFile("slides"); err == nil && file != nil {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !utils.AllowedSlideExtensions[ext] {
			return utils.ValidationError(c, map[string]string{
				"slides": "Formato no permitido. Usa PDF, PPT o PPTX.",
			})
		}
		storedURL, err = cc.Storage.Save(file, "slides")
		if err != nil {
			return utils.InternalServerError(c, "Could not store slides file")
		}
		lesson.SlideURL = storedURL
		lesson.SlidesType = models.SlidesTypeFile
	} else if embed := strings.TrimSpace(c.FormValue("slides_embed_url")); embed != "" {
		lesson.SlidesEmbedURL = embed
		lesson.SlidesType = models.SlidesTypeEmbed
	}

	if err := cc.DB.Create(&lesson).Error; err != nil {
		cc.removeBlob(storedURL)
		return utils.InternalServerError(c, "Could not create lesson")
	}

	return utils.Created(c, lesson)
}

func (cc *AdminCourseController) UpdateLesson(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := cc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if title := strings.TrimSpace(c.FormValue("title")); title != "" {
		lesson.Title = title
	}
	if content := c.FormValue("content"); content != "" {
		lesson.Content = content
	}
	if videoURL := c.FormValue("video_url"); videoURL != "" {
		lesson.VideoURL = videoURL
	}

	previousSlideURL := lesson.SlideURL
	var storedURL string
	if file, err := c.FormFile("slides"); err == nil && file != nil {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !utils.AllowedSlideExtensions[ext] {
			return utils.ValidationError(c, map[string]string{
				"slides": "Formato no permitido. Usa PDF, PPT o PPTX.",
			})
		}
		storedURL, err = cc.Storage.Save(file, "slides")
		if err != nil {
			return utils.InternalServerError(c, "Could not store slides file")
		}
		lesson.SlideURL = storedURL
		lesson.SlidesType = models.SlidesTypeFile
		lesson.SlidesEmbedURL = ""
	} else if embed := strings.TrimSpace(c.FormValue("slides_embed_url")); embed != "" {
		lesson.SlidesEmbedURL = embed
		lesson.SlidesType = models.SlidesTypeEmbed
	}

	if err := cc.DB.Save(&lesson).Error; err != nil {
		cc.removeBlob(storedURL)
		return utils.InternalServerError(c, "Could not update lesson")
	}

	if storedURL != "" && previousSlideURL != "" {
		cc.removeBlob(previousSlideURL)
	}

	return c.JSON(lesson)
}

// DeleteSlides clears the lesson's slide reference. The stored file is
// removed best-effort; the row stays consistent even when the delete fails.
func (cc *AdminCourseController) DeleteSlides(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := cc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	fileURL := lesson.SlideURL
	lesson.SlideURL = ""
	lesson.SlidesType = ""
	lesson.SlidesEmbedURL = ""
	if err := cc.DB.Save(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not update lesson")
	}

	if fileURL != "" {
		cc.removeBlob(fileURL)
	}

	return c.JSON(fiber.Map{"message": "Slides removed"})
}

// AddLessonResource uploads a supplementary HTML attachment for a lesson.
func (cc *AdminCourseController) AddLessonResource(c *fiber.Ctx) error {
	lessonID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var lesson models.Lesson
	if err := cc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	file, err := c.FormFile("file")
	if err != nil || file == nil {
		return utils.ValidationError(c, map[string]string{"file": "This field is required"})
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".html") {
		return utils.ValidationError(c, map[string]string{
			"file": "Formato no permitido. Usa HTML.",
		})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	storedURL, err := cc.Storage.Save(file, "resources")
	if err != nil {
		return utils.InternalServerError(c, "Could not store resource file")
	}

	resource := models.LessonHtmlResource{
		LessonID:         lesson.ID,
		Title:            title,
		OriginalFileName: file.Filename,
		URL:              storedURL,
	}
	if err := cc.DB.Create(&resource).Error; err != nil {
		cc.removeBlob(storedURL)
		return utils.InternalServerError(c, "Could not create resource")
	}

	return utils.Created(c, resource)
}

// removeBlob deletes a stored file and only logs when it cannot. A leftover
// blob must never fail the request that triggered the cleanup.
func (cc *AdminCourseController) removeBlob(url string) {
	if url == "" {
		return
	}
	if err := cc.Storage.Remove(url); err != nil {
		cc.Logger.Printf("could not remove stored file %s: %v", url, err)
	}
}
