package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

const categoriesCacheKey = "cache:categories:list"

// CategoryController serves the public category list and admin maintenance.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// ListCategories returns all categories ordered by name.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(categoriesCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var categories []models.Category
	if err := c.db.Order("name ASC").Find(&categories).Error; err != nil {
		utils.ServerError(ctx, "categories: list failed", err)
		return
	}

	payload := gin.H{"categories": categories}
	utils.CacheSetJSON(categoriesCacheKey, payload, time.Hour)
	ctx.JSON(http.StatusOK, payload)
}

// CreateCategory adds a category; the slug is derived from the name.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=50"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	slug := utils.Slugify(name)
	if slug == "" {
		utils.Message(ctx, http.StatusBadRequest, "Name must contain letters or digits")
		return
	}

	category := models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
	}
	if err := c.db.Create(&category).Error; err != nil {
		if isDuplicateKeyErr(err) {
			utils.Message(ctx, http.StatusBadRequest, "Category already exists")
			return
		}
		utils.ServerError(ctx, "categories: create failed", err)
		return
	}

	c.invalidateCategoryCaches()

	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": category,
	})
}

// UpdateCategory renames a category, re-deriving its slug.
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=50"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	var category models.Category
	if err := c.db.First(&category, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.ServerError(ctx, "categories: load failed", err)
		return
	}

	name := strings.TrimSpace(req.Name)
	slug := utils.Slugify(name)
	if slug == "" {
		utils.Message(ctx, http.StatusBadRequest, "Name must contain letters or digits")
		return
	}

	updates := map[string]interface{}{
		"name":        name,
		"slug":        slug,
		"description": strings.TrimSpace(req.Description),
	}
	if err := c.db.Model(&category).Updates(updates).Error; err != nil {
		if isDuplicateKeyErr(err) {
			utils.Message(ctx, http.StatusBadRequest, "Category already exists")
			return
		}
		utils.ServerError(ctx, "categories: update failed", err)
		return
	}

	c.invalidateCategoryCaches()

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Category updated successfully",
		"category": category,
	})
}

// DeleteCategory removes a category; posts referencing it fall back to NULL
// through the foreign key.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	var category models.Category
	if err := c.db.First(&category, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.ServerError(ctx, "categories: load failed", err)
		return
	}

	if err := c.db.Delete(&category).Error; err != nil {
		utils.ServerError(ctx, "categories: delete failed", err)
		return
	}

	c.invalidateCategoryCaches()

	utils.Message(ctx, http.StatusOK, "Category deleted successfully")
}

// invalidateCategoryCaches drops the category list and any cached post lists
// that embed category data.
func (c *CategoryController) invalidateCategoryCaches() {
	utils.InvalidateByPrefix(categoriesCacheKey)
	utils.InvalidateByPrefix("cache:posts:list:")
}
