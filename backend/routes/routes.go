package routes

import (
	"log"

	"roboticcoders/backend/config"
	"roboticcoders/backend/controllers"
	"roboticcoders/backend/middleware"
	"roboticcoders/backend/models"
	"roboticcoders/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/login", authController.Login)

	// Public course catalog
	courseController := controllers.NewCourseController(db)
	app.Get("/api/courses", courseController.Index)
	app.Get("/api/courses/:id", courseController.Details)

	// Uploaded slide/resource files
	app.Static("/uploads", cfg.UploadDir)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg)

	// Admin routes
	adminController := controllers.NewAdminController(db, cfg)
	adminCourseController := controllers.NewAdminCourseController(db, utils.NewStorage(cfg.UploadDir), logger)

	admin := app.Group("/api/admin", authMiddleware, middleware.RequireRole(models.RoleAdmin))
	admin.Get("/dashboard", adminController.Dashboard)
	admin.Get("/users", adminController.ListUsers)
	admin.Post("/users", adminController.CreateUser)
	admin.Get("/users/:id", adminController.GetUser)
	admin.Put("/users/:id", adminController.UpdateUser)
	admin.Delete("/users/:id", adminController.DeleteUser)
	admin.Get("/enrollments", adminController.Enrollments)

	admin.Get("/courses", adminCourseController.ListCourses)
	admin.Post("/courses", adminCourseController.CreateCourse)
	admin.Get("/courses/:id", adminCourseController.GetCourse)
	admin.Post("/courses/:id/modules", adminCourseController.CreateModule)
	admin.Put("/modules/:id", adminCourseController.UpdateModule)
	admin.Get("/modules/:id/lessons", adminCourseController.ModuleLessons)
	admin.Post("/modules/:id/lessons", adminCourseController.CreateLesson)
	admin.Put("/lessons/:id", adminCourseController.UpdateLesson)
	admin.Delete("/lessons/:id/slides", adminCourseController.DeleteSlides)
	admin.Post("/lessons/:id/resources", adminCourseController.AddLessonResource)

	admin.Get("/courses/:id/assignments", adminController.GetCourseAssignments)
	admin.Put("/courses/:id/assignments", adminController.UpdateCourseAssignments)
	admin.Post("/courses/:id/students", adminController.AssignStudents)
	admin.Get("/courses/:id/export", adminController.ExportStudentsCSV)

	// Teacher routes
	teacherController := controllers.NewTeacherController(db)
	teacher := app.Group("/api/teacher", authMiddleware, middleware.RequireRole(models.RoleTeacher))
	teacher.Get("/dashboard", teacherController.Dashboard)
	teacher.Get("/courses/:id", teacherController.Course)
	teacher.Get("/courses/:id/progress", teacherController.StudentProgress)
	teacher.Post("/courses/:id/lessons/:lessonId/complete", teacherController.CompleteLesson)
	teacher.Get("/courses/:id/export", teacherController.ExportStudentsCSV)

	// Student routes
	studentController := controllers.NewStudentController(db)
	student := app.Group("/api/student", authMiddleware, middleware.RequireRole(models.RoleStudent))
	student.Get("/dashboard", studentController.Dashboard)
	student.Get("/courses/:id", studentController.Course)
	student.Get("/lessons/:id", studentController.Lesson)
	student.Post("/lessons/:id/complete", studentController.CompleteLesson)
}
