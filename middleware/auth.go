package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"puretrack/constants"
	apiKeyModel "puretrack/models/apikey"
	userModel "puretrack/models/user"
	"puretrack/types"
	"puretrack/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// Session is the authenticated identity attached to the request context.
type Session struct {
	UserID           uint
	Email            string
	Role             string
	AllowedCustomers []string
}

// CanSeeCustomer reports whether the session may see shipments of a customer.
// An empty restriction list means unrestricted.
func (s *Session) CanSeeCustomer(customer string) bool {
	if len(s.AllowedCustomers) == 0 {
		return true
	}
	for _, allowed := range s.AllowedCustomers {
		if strings.EqualFold(allowed, customer) {
			return true
		}
	}
	return false
}

const tokenTTL = 24 * time.Hour

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// IssueToken signs a session token for a user.
func IssueToken(u *userModel.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  u.Role,
		"exp":   time.Now().Add(tokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	}
	if allowed := u.AllowedCustomers(); allowed != nil {
		claims["customers"] = allowed
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

// RequireAuth validates the bearer token (header, with cookie fallback) and
// attaches a typed Session to the context.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return c.Status(http.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Authorization token missing", Status: http.StatusUnauthorized,
			})
		}

		session, err := parseSession(token)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Session expired. Login again.", Status: http.StatusUnauthorized,
			})
		}

		c.Locals(constants.LocalSession, session)
		return c.Next()
	}
}

// RequireRoles allows only sessions whose role is in the list. Must run after
// RequireAuth.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFrom(c)
		if session == nil {
			return c.Status(http.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Authorization token missing", Status: http.StatusUnauthorized,
			})
		}
		for _, role := range roles {
			if session.Role == role {
				return c.Next()
			}
		}
		return c.Status(http.StatusForbidden).JSON(types.ApiResponse{
			Message: "Insufficient permissions", Status: http.StatusForbidden,
		})
	}
}

// RequireAPIKey authenticates machine callers via the X-API-Key header. The
// key must be active and carry the given scope. Key usage is timestamped.
func RequireAPIKey(db *gorm.DB, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-API-Key")
		if raw == "" {
			return c.Status(http.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "API key missing", Status: http.StatusUnauthorized,
			})
		}

		var key apiKeyModel.ApiKey
		err := db.First(&key, "key_hash = ? AND is_active = ?", utils.HashAPIKey(raw), true).Error
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Invalid API key", Status: http.StatusUnauthorized,
			})
		}
		if !key.HasScope(scope) {
			return c.Status(http.StatusForbidden).JSON(types.ApiResponse{
				Message: "API key lacks required scope", Status: http.StatusForbidden,
			})
		}

		now := time.Now().UTC()
		db.Model(&key).Update("last_used_at", now)

		c.Locals(constants.LocalAPIKey, &key)
		return c.Next()
	}
}

// SessionFrom returns the typed session, or nil outside RequireAuth.
func SessionFrom(c *fiber.Ctx) *Session {
	session, _ := c.Locals(constants.LocalSession).(*Session)
	return session
}

func extractToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies("access")
}

func parseSession(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	session := &Session{}
	if sub, ok := claims["sub"].(float64); ok {
		session.UserID = uint(sub)
	}
	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		session.Role = role
	}
	if customers, ok := claims["customers"].([]interface{}); ok {
		for _, entry := range customers {
			if customer, ok := entry.(string); ok {
				session.AllowedCustomers = append(session.AllowedCustomers, customer)
			}
		}
	}
	if session.UserID == 0 || session.Email == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return session, nil
}
