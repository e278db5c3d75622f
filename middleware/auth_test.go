package middleware

import (
	"net/http/httptest"
	"testing"

	userModel "puretrack/models/user"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(role string, allowed *string) *userModel.User {
	return &userModel.User{
		ID:              42,
		Email:           "ops@example.com",
		Role:            role,
		AllowedCustomer: allowed,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	allowed := "Acme, Globex"
	token, err := IssueToken(testUser(userModel.RoleClient, &allowed))
	require.NoError(t, err)

	session, err := parseSession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), session.UserID)
	assert.Equal(t, "ops@example.com", session.Email)
	assert.Equal(t, userModel.RoleClient, session.Role)
	assert.Equal(t, []string{"Acme", "Globex"}, session.AllowedCustomers)
}

func TestParseSessionRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := IssueToken(testUser(userModel.RoleAdmin, nil))
	require.NoError(t, err)

	_, err = parseSession(token + "x")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "different-secret")
	_, err = parseSession(token)
	assert.Error(t, err)
}

func TestCanSeeCustomer(t *testing.T) {
	unrestricted := &Session{}
	assert.True(t, unrestricted.CanSeeCustomer("Anyone"))

	restricted := &Session{AllowedCustomers: []string{"Acme"}}
	assert.True(t, restricted.CanSeeCustomer("Acme"))
	assert.True(t, restricted.CanSeeCustomer("acme"))
	assert.False(t, restricted.CanSeeCustomer("Globex"))
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Get("/protected", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := IssueToken(testUser(userModel.RoleOps, nil))
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/protected", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString(SessionFrom(c).Email)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesEnforcesRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Get("/admin", RequireAuth(), RequireRoles(userModel.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	clientToken, err := IssueToken(testUser(userModel.RoleClient, nil))
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	adminToken, err := IssueToken(testUser(userModel.RoleAdmin, nil))
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
