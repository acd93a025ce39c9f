package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadController stores image uploads on local disk and serves them back
// under /uploads.
type UploadController struct {
	db *gorm.DB
}

// NewUploadController creates a new UploadController instance.
func NewUploadController(db *gorm.DB) *UploadController {
	return &UploadController{db: db}
}

// UploadImage stores a post image and returns its public URL.
func (u *UploadController) UploadImage(ctx *gin.Context) {
	url, ok := u.saveUpload(ctx, "image")
	if !ok {
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded successfully",
		"url":     url,
	})
}

// UploadAvatar stores an avatar image and persists its URL on the
// authenticated user.
func (u *UploadController) UploadAvatar(ctx *gin.Context) {
	url, ok := u.saveUpload(ctx, "avatar")
	if !ok {
		return
	}

	current, _ := middleware.GetCurrentUser(ctx)
	if err := u.db.Model(&models.User{}).Where("id = ?", current.ID).
		Update("avatar_url", url).Error; err != nil {
		utils.ServerError(ctx, "upload: avatar update failed", err)
		return
	}

	utils.InvalidateByPrefix("cache:users:detail:" + strconv.Itoa(int(current.ID)))

	ctx.JSON(http.StatusCreated, gin.H{
		"message":    "Avatar uploaded successfully",
		"avatar_url": url,
	})
}

// saveUpload validates and writes the multipart file from the given field.
// On failure it writes the error response and returns ok=false.
func (u *UploadController) saveUpload(ctx *gin.Context, field string) (string, bool) {
	cfg := config.Get()

	file, err := ctx.FormFile(field)
	if err != nil {
		utils.Message(ctx, http.StatusBadRequest, "No file uploaded")
		return "", false
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		utils.Message(ctx, http.StatusBadRequest, "Only image files are allowed (jpg, jpeg, png, gif, webp)")
		return "", false
	}

	maxBytes := int64(cfg.MaxUploadMB) << 20
	if file.Size > maxBytes {
		utils.Message(ctx, http.StatusBadRequest,
			fmt.Sprintf("File size exceeds %dMB limit", cfg.MaxUploadMB))
		return "", false
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		utils.ServerError(ctx, "upload: create directory failed", err)
		return "", false
	}

	base := utils.Slugify(strings.TrimSuffix(filepath.Base(file.Filename), ext))
	if base == "" {
		base = "file"
	}
	name := fmt.Sprintf("%s_%d_%s%s",
		base, time.Now().UnixMilli(), uuid.NewString()[:8], ext)

	if err := ctx.SaveUploadedFile(file, filepath.Join(cfg.UploadDir, name)); err != nil {
		utils.ServerError(ctx, "upload: save failed", err)
		return "", false
	}

	return "/uploads/" + name, true
}
