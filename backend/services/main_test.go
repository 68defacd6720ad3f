package services_test

import (
	"fmt"
	"strings"
	"testing"

	"roboticcoders/backend/database"
	"roboticcoders/backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test so tests never see
// each other's rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createCourse(t *testing.T, db *gorm.DB, title string) models.Course {
	t.Helper()
	course := models.Course{Title: title}
	require.NoError(t, db.Create(&course).Error)
	return course
}

// createLessons builds `modules` modules with `lessonsPer` lessons each and
// returns the lesson ids in course order.
func createLessons(t *testing.T, db *gorm.DB, courseID uint, modules, lessonsPer int) []uint {
	t.Helper()
	var ids []uint
	for m := 1; m <= modules; m++ {
		module := models.Module{CourseID: courseID, Title: fmt.Sprintf("Module %d", m)}
		require.NoError(t, db.Create(&module).Error)
		for l := 1; l <= lessonsPer; l++ {
			lesson := models.Lesson{ModuleID: module.ID, Title: fmt.Sprintf("Lesson %d.%d", m, l)}
			require.NoError(t, db.Create(&lesson).Error)
			ids = append(ids, lesson.ID)
		}
	}
	return ids
}

func assignmentRows(t *testing.T, db *gorm.DB, courseID uint) []models.CourseTeacherAssignment {
	t.Helper()
	var rows []models.CourseTeacherAssignment
	require.NoError(t, db.Where("course_id = ?", courseID).Order("id").Find(&rows).Error)
	return rows
}

func enrollmentRows(t *testing.T, db *gorm.DB, courseID uint) []models.CourseEnrollment {
	t.Helper()
	var rows []models.CourseEnrollment
	require.NoError(t, db.Where("course_id = ?", courseID).Order("id").Find(&rows).Error)
	return rows
}
