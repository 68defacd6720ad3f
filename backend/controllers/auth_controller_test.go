package controllers_test

import (
	"testing"

	"roboticcoders/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestLogin(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": testPassword,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.NotEmpty(t, result["token"])
	user := result["user"].(map[string]interface{})
	assert.Equal(t, "admin@example.com", user["email"])
	assert.Equal(t, models.RoleAdmin, user["role"])
}

func TestLoginWrongPassword(t *testing.T) {
	app, db, _ := newTestApp(t)
	createUser(t, db, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginUnknownEmail(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": testPassword,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRouteRejectsStudent(t *testing.T) {
	app, db, cfg := newTestApp(t)
	student := createUser(t, db, "student@example.com", models.RoleStudent)

	resp := doJSON(t, app, fiber.MethodGet, "/api/admin/users", tokenFor(t, cfg, student), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRoleReadFromDatabaseNotToken(t *testing.T) {
	app, db, cfg := newTestApp(t)
	user := createUser(t, db, "user@example.com", models.RoleAdmin)
	token := tokenFor(t, cfg, user)

	// Demote after the token was issued; the stale admin claim must not win.
	db.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleStudent)

	resp := doJSON(t, app, fiber.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
