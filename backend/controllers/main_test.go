package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roboticcoders/backend/config"
	"roboticcoders/backend/database"
	"roboticcoders/backend/models"
	"roboticcoders/backend/routes"
	"roboticcoders/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// newTestApp wires the full route table against a fresh in-memory database.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
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

	cfg := &config.Config{
		JWTSecret:     "testsecret",
		UploadDir:     t.TempDir(),
		AdminEmail:    "admin@roboticcoders.com",
		AdminPassword: "Admin123!",
	}

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, utils.InitLogger())
	return app, db, cfg
}

func createUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func tokenFor(t *testing.T, cfg *config.Config, user models.User) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(user.ID, user.Role, cfg)
	require.NoError(t, err)
	return token
}

func createCourse(t *testing.T, db *gorm.DB, title string) models.Course {
	t.Helper()
	course := models.Course{Title: title}
	require.NoError(t, db.Create(&course).Error)
	return course
}

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

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

// doMultipart posts a multipart form with optional file fields, each given as
// field name, file name and content.
func doMultipart(t *testing.T, app *fiber.App, path, token string, fields map[string]string, files map[string][2]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for field, file := range files {
		part, err := writer.CreateFormFile(field, file[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(file[1]))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}
