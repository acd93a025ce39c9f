package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// ContextUserKey is the gin context key holding the authenticated identity.
const ContextUserKey = "current_user"

// CurrentUser is the identity attached to an authenticated request. It is
// re-read from the database on every request rather than trusted from token
// claims, so role and identity changes take effect immediately.
type CurrentUser struct {
	ID       uint
	Username string
	Email    string
	Role     string
}

// IsAdmin reports whether the request identity carries the admin role.
func (u CurrentUser) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

// GetCurrentUser returns the identity set by the auth middlewares.
func GetCurrentUser(ctx *gin.Context) (CurrentUser, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return CurrentUser{}, false
	}
	u, ok := v.(CurrentUser)
	return u, ok
}

// AuthRequired ensures the request carries a valid bearer token backed by an
// existing user row.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !authenticate(ctx, db) {
			return
		}
		ctx.Next()
	}
}

// AdminRequired authenticates like AuthRequired and additionally demands the
// admin role.
func AdminRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !authenticate(ctx, db) {
			return
		}
		user, _ := GetCurrentUser(ctx)
		if !user.IsAdmin() {
			utils.Message(ctx, http.StatusForbidden, "Access denied. Admin only.")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// OptionalAuth attaches the identity when a valid bearer token is present and
// never fails the request. Draft visibility checks use it to distinguish a
// post's author from anonymous callers without leaking existence.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token, ok := bearerToken(ctx); ok {
			if user, ok := lookupTokenUser(db, token); ok {
				ctx.Set(ContextUserKey, user)
			}
		}
		ctx.Next()
	}
}

// authenticate resolves the bearer token and stores the identity in the
// context. On failure it writes the 401 response, aborts, and returns false.
func authenticate(ctx *gin.Context, db *gorm.DB) bool {
	token, ok := bearerToken(ctx)
	if !ok {
		utils.Message(ctx, http.StatusUnauthorized, "No token, authorization denied")
		ctx.Abort()
		return false
	}

	user, ok := lookupTokenUser(db, token)
	if !ok {
		utils.Message(ctx, http.StatusUnauthorized, "Token is not valid")
		ctx.Abort()
		return false
	}

	ctx.Set(ContextUserKey, user)
	return true
}

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func lookupTokenUser(db *gorm.DB, token string) (CurrentUser, bool) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return CurrentUser{}, false
	}

	var user models.User
	if err := db.Select("id", "username", "email", "role").First(&user, claims.UserID).Error; err != nil {
		return CurrentUser{}, false
	}

	return CurrentUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, true
}
