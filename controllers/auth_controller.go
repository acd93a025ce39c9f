package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

const resetTokenTTL = 15 * time.Minute

// forgotPasswordReply is deliberately identical for known and unknown
// addresses so the endpoint cannot be used to probe which emails have
// accounts.
const forgotPasswordReply = "If an account with that email exists, a password reset link has been sent"

// errResetTokenConsumed signals that another request claimed the reset token
// between the lookup and the update.
var errResetTokenConsumed = errors.New("reset token already consumed")

// AuthController handles registration, login, profile, and password recovery.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates an account and returns a bearer token for it.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email" binding:"required,email,max=100"`
		Password string `json:"password" binding:"required,min=6,max=72"`
		FullName string `json:"full_name" binding:"omitempty,max=100"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := a.db.Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error; err != nil {
		utils.ServerError(ctx, "register: existence check failed", err)
		return
	}
	if count > 0 {
		utils.Message(ctx, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ServerError(ctx, "register: password hash failed", err)
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleUser,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// unique index race between the check and the insert
		if isDuplicateKeyErr(err) {
			utils.Message(ctx, http.StatusBadRequest, "User already exists")
			return
		}
		utils.ServerError(ctx, "register: insert failed", err)
		return
	}

	token, err := utils.GenerateToken(user.ID, utils.TokenTTL)
	if err != nil {
		utils.ServerError(ctx, "register: token generation failed", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password answer identically.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusBadRequest, "Invalid credentials")
			return
		}
		utils.ServerError(ctx, "login: user lookup failed", err)
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Message(ctx, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, utils.TokenTTL)
	if err != nil {
		utils.ServerError(ctx, "login: token generation failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetProfile returns the authenticated user's account with a live post count.
func (a *AuthController) GetProfile(ctx *gin.Context) {
	current, _ := middleware.GetCurrentUser(ctx)

	var profile userWithPostCount
	err := a.db.Model(&models.User{}).
		Select("users.*, (?) AS post_count",
			a.db.Model(&models.Post{}).Select("COUNT(*)").Where("author_id = users.id")).
		First(&profile, current.ID).Error
	if err != nil {
		utils.ServerError(ctx, "profile: load failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateProfile changes full name and bio for the authenticated user.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		FullName string `json:"full_name" binding:"omitempty,max=100"`
		Bio      string `json:"bio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	current, _ := middleware.GetCurrentUser(ctx)

	updates := map[string]interface{}{
		"full_name": strings.TrimSpace(req.FullName),
		"bio":       utils.Sanitize(req.Bio),
	}
	if err := a.db.Model(&models.User{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
		utils.ServerError(ctx, "profile: update failed", err)
		return
	}

	var user models.User
	if err := a.db.First(&user, current.ID).Error; err != nil {
		utils.ServerError(ctx, "profile: reload failed", err)
		return
	}

	utils.InvalidateByPrefix("cache:users:detail:" + strconv.Itoa(int(current.ID)))

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ForgotPassword issues a single-use reset token for an existing account.
// The response shape never reveals whether the email is registered.
func (a *AuthController) ForgotPassword(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusOK, forgotPasswordReply)
			return
		}
		utils.ServerError(ctx, "forgot-password: user lookup failed", err)
		return
	}

	token, err := utils.NewResetToken()
	if err != nil {
		utils.ServerError(ctx, "forgot-password: token generation failed", err)
		return
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := a.db.Create(&reset).Error; err != nil {
		utils.ServerError(ctx, "forgot-password: token store failed", err)
		return
	}

	// Mail delivery is best effort; the reply must not depend on the relay.
	go func(to, token string) {
		body := "A password reset was requested for your account.\n\n" +
			"Reset token: " + token + "\n\n" +
			"The token expires in 15 minutes. If you did not request this, ignore this message."
		if err := utils.SendMail(to, "Password reset", body); err != nil {
			utils.Sugar.Warnw("forgot-password: mail send failed", "error", err)
		}
	}(user.Email, token)

	resp := gin.H{"message": forgotPasswordReply}
	if config.Get().ExposeResetToken {
		resp["token"] = token
	}
	ctx.JSON(http.StatusOK, resp)
}

// ResetPassword consumes a reset token and replaces the account password.
func (a *AuthController) ResetPassword(ctx *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=6,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	var reset models.PasswordReset
	if err := a.db.Where("token = ?", req.Token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusBadRequest, "Invalid or already used token")
			return
		}
		utils.ServerError(ctx, "reset-password: token lookup failed", err)
		return
	}
	if reset.Used() {
		utils.Message(ctx, http.StatusBadRequest, "Invalid or already used token")
		return
	}
	if reset.Expired() {
		utils.Message(ctx, http.StatusBadRequest, "Token has expired")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ServerError(ctx, "reset-password: password hash failed", err)
		return
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		// Claim the token first; the IS NULL predicate makes consumption
		// atomic when two requests race on the same token.
		now := time.Now()
		res := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", &now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errResetTokenConsumed
		}
		return tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password_hash", hash).Error
	})
	if err != nil {
		if errors.Is(err, errResetTokenConsumed) {
			utils.Message(ctx, http.StatusBadRequest, "Invalid or already used token")
			return
		}
		utils.ServerError(ctx, "reset-password: update failed", err)
		return
	}

	utils.Message(ctx, http.StatusOK, "Password has been reset successfully")
}
