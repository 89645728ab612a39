package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/util"
	"gorm.io/gorm"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
	TokenKey     = "access_token"
)

// RevocationChecker reports whether an access token was revoked at logout.
type RevocationChecker interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// UserLookup confirms the token's subject still exists.
type UserLookup interface {
	FindByID(id uint) (*model.User, error)
}

type AuthMiddleware struct {
	jwtSecret  string
	revocation RevocationChecker
	users      UserLookup
}

// NewAuthMiddleware builds the JWT guard. revocation may be nil when Redis is
// disabled; users may be nil to skip the existence check.
func NewAuthMiddleware(jwtSecret string, revocation RevocationChecker, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:  jwtSecret,
		revocation: revocation,
		users:      users,
	}
}

// Authenticate requires a valid "Authorization: Bearer <token>" header.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthHeaderMissing, "authorization header not found")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" {
			if authHeader == "Bearer" {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenMissing, "token not found")
				return
			}
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "invalid authorization header format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenMissing, "token not found")
			return
		}

		if m.authorize(c, token) {
			c.Next()
		}
	}
}

// AuthenticateQuery reads the token from the "token" query parameter, for
// websocket upgrades where browsers cannot set headers.
func (m *AuthMiddleware) AuthenticateQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenMissing, "token not found")
			return
		}
		if m.authorize(c, token) {
			c.Next()
		}
	}
}

// authorize validates token and populates the context. It writes the error
// response and returns false on failure.
func (m *AuthMiddleware) authorize(c *gin.Context, token string) bool {
	log := GetLoggerFromContext(c)

	claims, err := util.ValidateAccessToken(token, m.jwtSecret)
	if err != nil {
		log.Warn("Token validation failed", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		if errors.Is(err, util.ErrExpiredToken) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "token expired")
		} else {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "invalid token")
		}
		return false
	}

	if m.revocation != nil {
		revoked, err := m.revocation.IsTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			// Redis outage should not lock every user out.
			log.Error("Failed to check token revocation", err)
		} else if revoked {
			log.Warn("Revoked token presented", map[string]interface{}{
				"user_id": claims.UserID,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "token revoked")
			return false
		}
	}

	role := model.UserRole(claims.Role)
	if m.users != nil {
		user, err := m.users.FindByID(claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.NotFound(c, apperrors.AuthUserNotFound, "user not found")
				return false
			}
			log.Error("Failed to load authenticated user", err, map[string]interface{}{
				"user_id": claims.UserID,
			})
			apperrors.InternalError(c, "")
			return false
		}
		role = user.Role
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UserRoleKey, role)
	c.Set(TokenKey, token)

	log.Debug("User authenticated successfully", map[string]interface{}{
		"user_id": claims.UserID,
		"role":    role,
	})
	return true
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			apperrors.Forbidden(c, "role information not found")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminOnly, "you are not allowed to access this resource")
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	e, ok := email.(string)
	return e, ok
}

func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(model.UserRole)
	return r, ok
}

// GetToken returns the raw access token the request authenticated with.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
