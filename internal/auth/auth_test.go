package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-backend/internal/config"
	"pos-backend/internal/database/dbtest"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testCfg = &config.Config{JWTSecret: "0123456789abcdef0123456789abcdef"}

func newApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	app.Post("/register-admin", RegisterAdminHandler(db))
	app.Post("/login", LoginHandler(db, testCfg))

	protected := app.Group("", JWTMiddleware(testCfg))
	protected.Get("/me", MeHandler(db))
	protected.Get("/actor", func(c *fiber.Ctx) error {
		a := ActorFromCtx(c)
		return c.JSON(fiber.Map{"id": a.UserID, "name": a.UserName})
	})
	protected.Post("/users", RequireRole(models.RoleAdmin), CreateCashierHandler(db))
	return app
}

func jsonRequest(method, path string, body any, token string) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, err := app.Test(jsonRequest("POST", "/login", LoginRequest{Email: email, Password: password}, ""))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestRegisterLoginAndRoles(t *testing.T) {
	app := newApp(dbtest.New(t))

	resp, err := app.Test(jsonRequest("POST", "/register-admin", RegisterRequest{Name: "Ani", Email: "Ani@Toko.id ", Password: "rahasia123"}, ""))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	// ikinci admin engellenir
	resp, err = app.Test(jsonRequest("POST", "/register-admin", RegisterRequest{Name: "B", Email: "b@toko.id", Password: "rahasia123"}, ""))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	adminToken := login(t, app, "ani@toko.id", "rahasia123")

	resp, err = app.Test(jsonRequest("GET", "/actor", nil, adminToken))
	require.NoError(t, err)
	var actor struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actor))
	assert.Equal(t, "Ani", actor.Name)
	assert.NotZero(t, actor.ID)

	resp, err = app.Test(jsonRequest("POST", "/users", RegisterRequest{Name: "Kasir", Email: "kasir@toko.id", Password: "kasir1234"}, adminToken))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	cashierToken := login(t, app, "kasir@toko.id", "kasir1234")
	resp, err = app.Test(jsonRequest("POST", "/users", RegisterRequest{Name: "X", Email: "x@toko.id", Password: "xxxxxxxx"}, cashierToken))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	resp, err = app.Test(jsonRequest("GET", "/me", nil, cashierToken))
	require.NoError(t, err)
	var me UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, models.RoleCashier, me.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := newApp(dbtest.New(t))
	_, err := app.Test(jsonRequest("POST", "/register-admin", RegisterRequest{Name: "Ani", Email: "ani@toko.id", Password: "rahasia123"}, ""))
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest("POST", "/login", LoginRequest{Email: "ani@toko.id", Password: "salah"}, ""))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	app := newApp(dbtest.New(t))

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode, header)
	}

	other, err := GenerateToken("another-secret-another-secret-123", &models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	resp, err := app.Test(jsonRequest("GET", "/me", nil, other))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
