package controllers

import (
	"errors"
	"strconv"
	"time"

	"roboticcoders/backend/config"
	"roboticcoders/backend/models"
	"roboticcoders/backend/services"
	"roboticcoders/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Ledger   *services.Ledger
	Progress *services.Progress
	Access   *services.TeacherAccess
}

func NewAdminController(db *gorm.DB, cfg *config.Config) *AdminController {
	return &AdminController{
		DB:       db,
		Cfg:      cfg,
		Ledger:   services.NewLedger(db),
		Progress: services.NewProgress(db),
		Access:   services.NewTeacherAccess(db),
	}
}

// Dashboard returns every course with its per-teacher review progress, plus
// all accounts with their role and, for teachers, the titles they teach
// (assignment ledger merged with the legacy course field).
func (ac *AdminController) Dashboard(c *fiber.Ctx) error {
	var courses []models.Course
	if err := ac.DB.Preload("Modules.Lessons").Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	courseViews := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		teacherProgress, err := ac.Progress.ComputeCourseTeacherProgress(course.ID)
		if err != nil {
			return utils.InternalServerError(c, "Could not compute teacher progress")
		}

		totalLessons := 0
		for _, m := range course.Modules {
			totalLessons += len(m.Lessons)
		}

		courseViews = append(courseViews, fiber.Map{
			"id":               course.ID,
			"title":            course.Title,
			"total_lessons":    totalLessons,
			"teacher_progress": teacherProgress,
		})
	}

	var users []models.User
	if err := ac.DB.Order("email").Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	userViews := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		view := fiber.Map{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName(),
			"city":      user.City,
			"role":      user.Role,
		}

		if user.Role == models.RoleTeacher {
			taught, err := ac.Access.CoursesTaughtBy(user.ID)
			if err != nil {
				return utils.InternalServerError(c, "Could not query database")
			}
			titles := make([]string, 0, len(taught))
			for _, course := range taught {
				titles = append(titles, course.Title)
			}
			view["course_titles"] = titles
		}

		userViews = append(userViews, view)
	}

	return c.JSON(fiber.Map{
		"courses": courseViews,
		"users":   userViews,
	})
}

type userInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Role      string `json:"role" validate:"required,oneof=Admin Docente Estudiante"`
}

func (ac *AdminController) CreateUser(c *fiber.Ctx) error {
	var input userInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Password == "" {
		return utils.ValidationError(c, map[string]string{"password": "This field is required"})
	}
	if err := validate.Struct(&input); err != nil {
		return utils.ValidationError(c, validationMessages(err))
	}

	var existing models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return utils.ValidationError(c, map[string]string{"email": "Email already registered"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Address:      input.Address,
		City:         input.City,
		Role:         input.Role,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not create user")
	}

	return utils.Created(c, fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (ac *AdminController) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := ac.DB.Order("email").Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		result = append(result, fiber.Map{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName(),
			"city":      user.City,
			"role":      user.Role,
		})
	}
	return c.JSON(result)
}

func (ac *AdminController) GetUser(c *fiber.Ctx) error {
	user, err := ac.findUser(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"address":    user.Address,
		"city":       user.City,
		"role":       user.Role,
	})
}

func (ac *AdminController) UpdateUser(c *fiber.Ctx) error {
	user, err := ac.findUser(c)
	if err != nil {
		return err
	}

	// The seeded admin account stays untouchable.
	if user.Email == ac.Cfg.AdminEmail {
		return utils.Forbidden(c, "This administrator cannot be modified")
	}

	var input userInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(&input); err != nil {
		return utils.ValidationError(c, validationMessages(err))
	}

	user.Email = input.Email
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Address = input.Address
	user.City = input.City
	user.Role = input.Role

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := ac.DB.Save(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return c.JSON(fiber.Map{"message": "User updated"})
}

func (ac *AdminController) DeleteUser(c *fiber.Ctx) error {
	user, err := ac.findUser(c)
	if err != nil {
		return err
	}

	if user.Email == ac.Cfg.AdminEmail {
		return utils.Forbidden(c, "This administrator cannot be deleted")
	}

	if err := ac.DB.Delete(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}

	return c.JSON(fiber.Map{"message": "User deleted"})
}

// GetCourseAssignments returns the course-configuration state: the assigned
// teacher set and, per student, the delegated teacher and current progress.
func (ac *AdminController) GetCourseAssignments(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := ac.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	state, err := ac.buildAssignmentState(&course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(state)
}

// UpdateCourseAssignments reconciles the ledger with the admin's submitted
// teacher set and student-to-teacher mapping.
func (ac *AdminController) UpdateCourseAssignments(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	type assignmentsInput struct {
		SelectedTeacherIDs        []uint        `json:"selected_teacher_ids"`
		StudentTeacherAssignments map[uint]uint `json:"student_teacher_assignments"`
	}

	var input assignmentsInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	err = ac.Ledger.ReconcileCourseAssignments(uint(courseID), input.SelectedTeacherIDs, input.StudentTeacherAssignments)
	if err != nil {
		var ve *services.ValidationError
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.NotFound(c, "Course not found")
		case errors.As(err, &ve):
			return utils.ValidationError(c, ve.Fields)
		}
		return utils.InternalServerError(c, "Could not update course assignments")
	}

	var course models.Course
	if err := ac.DB.First(&course, courseID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	state, err := ac.buildAssignmentState(&course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"message":     "Course assignments updated",
		"assignments": state,
	})
}

// AssignStudents is the bulk enrollment operation: replaces the course's
// enrollments with the submitted student list, all unassigned to any teacher.
func (ac *AdminController) AssignStudents(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input struct {
		StudentIDs []uint `json:"student_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if err := ac.Ledger.ReplaceStudents(uint(courseID), input.StudentIDs); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not update enrollments")
	}

	return c.JSON(fiber.Map{"message": "Enrollments updated"})
}

// Enrollments lists every enrollment with its course, student and teacher.
func (ac *AdminController) Enrollments(c *fiber.Ctx) error {
	var enrollments []models.CourseEnrollment
	err := ac.DB.
		Preload("Course").
		Preload("User").
		Preload("CourseTeacherAssignment.Teacher").
		Find(&enrollments).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(enrollments))
	for _, e := range enrollments {
		teacherEmail := ""
		if e.CourseTeacherAssignment != nil {
			teacherEmail = e.CourseTeacherAssignment.Teacher.Email
		}
		result = append(result, fiber.Map{
			"id":            e.ID,
			"course_id":     e.CourseID,
			"course_title":  e.Course.Title,
			"student_email": e.User.Email,
			"teacher_email": teacherEmail,
		})
	}
	return c.JSON(result)
}

// ExportStudentsCSV streams the per-course progress export with the teacher
// column included.
func (ac *AdminController) ExportStudentsCSV(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := ac.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var enrollments []models.CourseEnrollment
	err = ac.DB.
		Where("course_id = ?", courseID).
		Preload("User").
		Preload("CourseTeacherAssignment.Teacher").
		Find(&enrollments).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	studentIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		studentIDs = append(studentIDs, e.UserID)
	}

	progress, err := ac.Progress.ComputeProgress(course.ID, studentIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not compute progress")
	}

	rows := make([]utils.ProgressCSVRow, 0, len(enrollments))
	for _, e := range enrollments {
		teacherEmail := ""
		if e.CourseTeacherAssignment != nil {
			teacherEmail = e.CourseTeacherAssignment.Teacher.Email
		}
		sp := progress[e.UserID]
		rows = append(rows, utils.ProgressCSVRow{
			Email:        e.User.Email,
			TeacherEmail: teacherEmail,
			Completed:    sp.CompletedLessons,
			Total:        sp.TotalLessons,
			Percent:      sp.ProgressPercent,
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		`attachment; filename="`+utils.StudentsCSVFileName(course.Title, time.Now())+`"`)
	return c.Send(utils.StudentsCSV(rows, true))
}

func (ac *AdminController) findUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid user ID")
	}

	var user models.User
	if err := ac.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "User not found")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	return &user, nil
}

func (ac *AdminController) buildAssignmentState(course *models.Course) (fiber.Map, error) {
	var assignments []models.CourseTeacherAssignment
	err := ac.DB.Where("course_id = ?", course.ID).Order("id").Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	selectedTeacherIDs := make([]uint, 0, len(assignments))
	assignmentTeacher := make(map[uint]uint, len(assignments))
	for _, a := range assignments {
		selectedTeacherIDs = append(selectedTeacherIDs, a.TeacherID)
		assignmentTeacher[a.ID] = a.TeacherID
	}

	var enrollments []models.CourseEnrollment
	if err := ac.DB.Where("course_id = ?", course.ID).Find(&enrollments).Error; err != nil {
		return nil, err
	}
	teacherByStudent := make(map[uint]uint, len(enrollments))
	for _, e := range enrollments {
		if e.CourseTeacherAssignmentID != nil {
			teacherByStudent[e.UserID] = assignmentTeacher[*e.CourseTeacherAssignmentID]
		}
	}

	var teachers []models.User
	err = ac.DB.Where("role = ?", models.RoleTeacher).Order("email").Find(&teachers).Error
	if err != nil {
		return nil, err
	}
	teacherViews := make([]fiber.Map, 0, len(teachers))
	for _, t := range teachers {
		teacherViews = append(teacherViews, fiber.Map{"id": t.ID, "email": t.Email})
	}

	var students []models.User
	err = ac.DB.Where("role = ?", models.RoleStudent).Order("email").Find(&students).Error
	if err != nil {
		return nil, err
	}
	studentIDs := make([]uint, 0, len(students))
	for _, s := range students {
		studentIDs = append(studentIDs, s.ID)
	}

	progress, err := ac.Progress.ComputeProgress(course.ID, studentIDs)
	if err != nil {
		return nil, err
	}

	studentViews := make([]fiber.Map, 0, len(students))
	for _, s := range students {
		view := fiber.Map{
			"id":               s.ID,
			"email":            s.Email,
			"progress_percent": progress[s.ID].ProgressPercent,
		}
		if tid, ok := teacherByStudent[s.ID]; ok {
			view["assigned_teacher_id"] = tid
		}
		studentViews = append(studentViews, view)
	}

	return fiber.Map{
		"course_id":            course.ID,
		"course_title":         course.Title,
		"selected_teacher_ids": selectedTeacherIDs,
		"teachers":             teacherViews,
		"students":             studentViews,
	}, nil
}
