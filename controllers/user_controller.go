package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// userWithPostCount flattens a user row together with the post_count column
// attached by list and profile queries.
type userWithPostCount struct {
	models.User
	PostCount int64 `json:"post_count"`
}

// UserController serves public profiles and admin user management.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// publishedPostCount builds the subquery counting a user's published posts.
func (u *UserController) publishedPostCount() *gorm.DB {
	return u.db.Model(&models.Post{}).
		Select("COUNT(*)").
		Where("author_id = users.id AND status = ?", models.StatusPublished)
}

// ListUsers returns a paginated public listing of accounts.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	search := strings.TrimSpace(ctx.Query("search"))

	query := u.db.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("username LIKE ? OR full_name LIKE ? OR email LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.ServerError(ctx, "users: count failed", err)
		return
	}

	var users []userWithPostCount
	err := query.Select("users.*, (?) AS post_count", u.publishedPostCount()).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		utils.ServerError(ctx, "users: list failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": buildPagination(page, limit, total),
	})
}

// GetUser returns a public profile with its five most recent published posts.
func (u *UserController) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")
	cacheKey := "cache:users:detail:" + id
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var profile userWithPostCount
	err := u.db.Model(&models.User{}).
		Select("users.*, (?) AS post_count", u.publishedPostCount()).
		First(&profile, "users.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.ServerError(ctx, "users: load failed", err)
		return
	}

	var recent []models.Post
	err = u.db.Where("author_id = ? AND status = ?", profile.ID, models.StatusPublished).
		Preload("Category").
		Order("created_at DESC").
		Limit(5).
		Find(&recent).Error
	if err != nil {
		utils.ServerError(ctx, "users: recent posts failed", err)
		return
	}

	payload := gin.H{
		"user":         profile,
		"recent_posts": recent,
	}
	utils.CacheSetJSON(cacheKey, payload, time.Hour)
	ctx.JSON(http.StatusOK, payload)
}

// GetUserPosts lists a user's posts. The status filter is honored only for
// the profile owner or an admin; everyone else sees published posts.
func (u *UserController) GetUserPosts(ctx *gin.Context) {
	id := ctx.Param("id")

	var target models.User
	if err := u.db.Select("id").First(&target, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.ServerError(ctx, "users: load failed", err)
		return
	}

	page, limit := parsePagination(ctx)
	status := strings.TrimSpace(ctx.Query("status"))

	current, authed := middleware.GetCurrentUser(ctx)
	privileged := authed && (current.ID == target.ID || current.IsAdmin())
	if !privileged {
		status = models.StatusPublished
	}

	query := u.db.Model(&models.Post{}).Where("author_id = ?", target.ID)
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.ServerError(ctx, "users: post count failed", err)
		return
	}

	var posts []models.Post
	err := query.Select(commentCountSelect).
		Preload("Category").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		utils.ServerError(ctx, "users: post list failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"posts":      posts,
		"pagination": buildPagination(page, limit, total),
	})
}

// UpdateRole grants or revokes the admin role. Admins cannot demote
// themselves, so the platform always retains at least one admin.
func (u *UserController) UpdateRole(ctx *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=user admin"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	var target models.User
	if err := u.db.First(&target, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.ServerError(ctx, "users: load failed", err)
		return
	}

	current, _ := middleware.GetCurrentUser(ctx)
	if current.ID == target.ID && req.Role != models.RoleAdmin {
		utils.Message(ctx, http.StatusBadRequest, "Cannot remove your own admin role")
		return
	}

	if err := u.db.Model(&target).Update("role", req.Role).Error; err != nil {
		utils.ServerError(ctx, "users: role update failed", err)
		return
	}

	utils.InvalidateByPrefix("cache:users:detail:" + ctx.Param("id"))

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"user":    target,
	})
}

// DeleteUser removes an account; posts and comments cascade away through the
// foreign keys. Admins cannot delete themselves.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	var target models.User
	if err := u.db.First(&target, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.ServerError(ctx, "users: load failed", err)
		return
	}

	current, _ := middleware.GetCurrentUser(ctx)
	if current.ID == target.ID {
		utils.Message(ctx, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := u.db.Delete(&target).Error; err != nil {
		utils.ServerError(ctx, "users: delete failed", err)
		return
	}

	utils.InvalidateByPrefix("cache:users:detail:" + ctx.Param("id"))
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Message(ctx, http.StatusOK, "User deleted successfully")
}
