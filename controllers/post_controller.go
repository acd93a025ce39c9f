package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// commentCountSelect attaches a live per-post comment count to list rows.
const commentCountSelect = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// PostController manages post CRUD and the public listing.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// effectivePostStatus resolves the status filter for listings. Anything other
// than "published" (including "all") is honored only for admins; everyone
// else is pinned to published content.
func effectivePostStatus(ctx *gin.Context) string {
	requested := strings.TrimSpace(ctx.Query("status"))
	if requested == "" || requested == models.StatusPublished {
		return models.StatusPublished
	}
	if user, ok := middleware.GetCurrentUser(ctx); ok && user.IsAdmin() {
		return requested
	}
	return models.StatusPublished
}

// ListPosts returns a paginated, filterable listing of posts.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))
	status := effectivePostStatus(ctx)

	// Only the anonymous published view is cacheable; search terms would
	// explode the key space and admin views must stay live.
	cacheable := search == "" && status == models.StatusPublished
	cacheKey := fmt.Sprintf("cache:posts:list:cat=%s:page=%d:limit=%d", category, page, limit)
	if cacheable {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := p.db.Model(&models.Post{})
	if status != "all" {
		query = query.Where("posts.status = ?", status)
	}
	if category != "" {
		query = query.Joins("JOIN categories ON categories.id = posts.category_id").
			Where("categories.slug = ?", category)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("posts.title LIKE ? OR posts.content LIKE ? OR posts.excerpt LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.ServerError(ctx, "posts: count failed", err)
		return
	}

	var posts []models.Post
	err := query.Select(commentCountSelect).
		Preload("Author").
		Preload("Category").
		Order("posts.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		utils.ServerError(ctx, "posts: list failed", err)
		return
	}

	payload := gin.H{
		"posts":      posts,
		"pagination": buildPagination(page, limit, total),
	}
	if cacheable {
		utils.CacheSetJSON(cacheKey, payload, time.Hour)
	}
	ctx.JSON(http.StatusOK, payload)
}

// GetPost returns a single post. Drafts are visible only to their author and
// answer 404 to everyone else; each published read counts exactly one view.
func (p *PostController) GetPost(ctx *gin.Context) {
	var post models.Post
	err := p.db.Preload("Author").Preload("Category").
		First(&post, "posts.id = ?", ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.ServerError(ctx, "posts: load failed", err)
		return
	}

	if !post.Published() {
		current, ok := middleware.GetCurrentUser(ctx)
		if !ok || current.ID != post.AuthorID {
			utils.Message(ctx, http.StatusNotFound, "Post not found")
			return
		}
	} else {
		// Update through a fresh model so the preloaded associations are not
		// written back alongside the counter.
		if err := p.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
			utils.ServerError(ctx, "posts: view count update failed", err)
			return
		}
		post.ViewCount++
	}

	ctx.JSON(http.StatusOK, gin.H{"post": post})
}

// CreatePost inserts a new post for the authenticated user. The slug check
// and insert share one transaction so a title race still ends in a conflict
// answer instead of a 500.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title         string  `json:"title" binding:"required,min=1,max=255"`
		Content       string  `json:"content" binding:"required"`
		Excerpt       *string `json:"excerpt" binding:"omitempty,max=500"`
		FeaturedImage *string `json:"featured_image" binding:"omitempty,max=255"`
		CategoryID    *uint   `json:"category_id"`
		Status        string  `json:"status" binding:"omitempty,oneof=draft published"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	current, _ := middleware.GetCurrentUser(ctx)

	title := strings.TrimSpace(req.Title)
	slug := utils.Slugify(title)
	if slug == "" {
		utils.Message(ctx, http.StatusBadRequest, "Title must contain letters or digits")
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}

	post := models.Post{
		Title:         title,
		Slug:          slug,
		Content:       utils.Sanitize(req.Content),
		Excerpt:       sanitizeOptional(req.Excerpt),
		FeaturedImage: req.FeaturedImage,
		Status:        status,
		AuthorID:      current.ID,
		CategoryID:    req.CategoryID,
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(&post).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyErr(err) {
			utils.Message(ctx, http.StatusBadRequest, "A post with this title already exists")
			return
		}
		utils.ServerError(ctx, "posts: create failed", err)
		return
	}

	if err := p.db.Preload("Author").Preload("Category").First(&post, post.ID).Error; err != nil {
		utils.ServerError(ctx, "posts: reload failed", err)
		return
	}

	p.invalidatePostCaches(current.ID)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

// UpdatePost edits a post owned by the requester. Non-authors get the same
// 404 as a missing id so post existence never leaks through edits.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title         string  `json:"title" binding:"required,min=1,max=255"`
		Content       string  `json:"content" binding:"required"`
		Excerpt       *string `json:"excerpt" binding:"omitempty,max=500"`
		FeaturedImage *string `json:"featured_image" binding:"omitempty,max=255"`
		CategoryID    *uint   `json:"category_id"`
		Status        *string `json:"status" binding:"omitempty,oneof=draft published"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	current, _ := middleware.GetCurrentUser(ctx)

	var post models.Post
	err := p.db.Where("id = ? AND author_id = ?", ctx.Param("id"), current.ID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Post not found or access denied")
			return
		}
		utils.ServerError(ctx, "posts: load failed", err)
		return
	}

	title := strings.TrimSpace(req.Title)
	slug := post.Slug
	if title != post.Title {
		slug = utils.Slugify(title)
		if slug == "" {
			utils.Message(ctx, http.StatusBadRequest, "Title must contain letters or digits")
			return
		}
		var count int64
		if err := p.db.Model(&models.Post{}).
			Where("slug = ? AND id <> ?", slug, post.ID).Count(&count).Error; err != nil {
			utils.ServerError(ctx, "posts: slug check failed", err)
			return
		}
		if count > 0 {
			utils.Message(ctx, http.StatusBadRequest, "A post with this title already exists")
			return
		}
	}

	// Omitted excerpt and category clear to NULL; featured image and status
	// keep their stored values when absent from the payload.
	updates := map[string]interface{}{
		"title":       title,
		"slug":        slug,
		"content":     utils.Sanitize(req.Content),
		"excerpt":     sanitizeOptional(req.Excerpt),
		"category_id": req.CategoryID,
	}
	if req.FeaturedImage != nil {
		updates["featured_image"] = req.FeaturedImage
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if err := p.db.Model(&post).Updates(updates).Error; err != nil {
		if isDuplicateKeyErr(err) {
			utils.Message(ctx, http.StatusBadRequest, "A post with this title already exists")
			return
		}
		utils.ServerError(ctx, "posts: update failed", err)
		return
	}

	if err := p.db.Preload("Author").Preload("Category").First(&post, post.ID).Error; err != nil {
		utils.ServerError(ctx, "posts: reload failed", err)
		return
	}

	p.invalidatePostCaches(current.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// DeletePost removes a post owned by the requester; comments cascade away
// with it.
func (p *PostController) DeletePost(ctx *gin.Context) {
	current, _ := middleware.GetCurrentUser(ctx)

	var post models.Post
	err := p.db.Where("id = ? AND author_id = ?", ctx.Param("id"), current.ID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Post not found or access denied")
			return
		}
		utils.ServerError(ctx, "posts: load failed", err)
		return
	}

	if err := p.db.Delete(&post).Error; err != nil {
		utils.ServerError(ctx, "posts: delete failed", err)
		return
	}

	p.invalidatePostCaches(current.ID)

	utils.Message(ctx, http.StatusOK, "Post deleted successfully")
}

// ListMyPosts returns the authenticated user's own posts, drafts included.
func (p *PostController) ListMyPosts(ctx *gin.Context) {
	current, _ := middleware.GetCurrentUser(ctx)
	page, limit := parsePagination(ctx)
	status := strings.TrimSpace(ctx.Query("status"))

	query := p.db.Model(&models.Post{}).Where("author_id = ?", current.ID)
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.ServerError(ctx, "posts: count failed", err)
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
		utils.ServerError(ctx, "posts: list failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"posts":      posts,
		"pagination": buildPagination(page, limit, total),
	})
}

func (p *PostController) invalidatePostCaches(authorID uint) {
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:users:detail:" + strconv.Itoa(int(authorID)))
}

// sanitizeOptional sanitizes an optional HTML field, preserving nil.
func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := utils.Sanitize(*s)
	return &clean
}
