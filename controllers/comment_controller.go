package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// CommentController manages comments and their single level of replies.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// ListByPost returns a post's top-level comments newest-first, each carrying
// its replies oldest-first. Nesting stops at one level.
func (c *CommentController) ListByPost(ctx *gin.Context) {
	var comments []models.Comment
	err := c.db.Where("post_id = ? AND parent_id IS NULL", ctx.Param("postId")).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Replies.User").
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		utils.ServerError(ctx, "comments: list failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment adds a comment to a published post, optionally as a reply to
// a comment of the same post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content  string `json:"content" binding:"required,min=1,max=1000"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	var post models.Post
	err := c.db.Where("id = ? AND status = ?", ctx.Param("postId"), models.StatusPublished).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.ServerError(ctx, "comments: post lookup failed", err)
		return
	}

	if req.ParentID != nil {
		var parent models.Comment
		err := c.db.Where("id = ? AND post_id = ?", *req.ParentID, post.ID).First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Message(ctx, http.StatusBadRequest, "Parent comment not found")
				return
			}
			utils.ServerError(ctx, "comments: parent lookup failed", err)
			return
		}
	}

	current, _ := middleware.GetCurrentUser(ctx)

	comment := models.Comment{
		Content:  utils.Sanitize(req.Content),
		PostID:   post.ID,
		UserID:   current.ID,
		ParentID: req.ParentID,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.ServerError(ctx, "comments: create failed", err)
		return
	}

	if err := c.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.ServerError(ctx, "comments: reload failed", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

// UpdateComment edits a comment owned by the requester. Non-owners see the
// same 404 as a missing id.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,min=1,max=1000"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	current, _ := middleware.GetCurrentUser(ctx)

	var comment models.Comment
	err := c.db.Where("id = ? AND user_id = ?", ctx.Param("id"), current.ID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Comment not found or access denied")
			return
		}
		utils.ServerError(ctx, "comments: load failed", err)
		return
	}

	if err := c.db.Model(&comment).Update("content", utils.Sanitize(req.Content)).Error; err != nil {
		utils.ServerError(ctx, "comments: update failed", err)
		return
	}

	if err := c.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.ServerError(ctx, "comments: reload failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// DeleteComment removes a comment owned by the requester along with its
// direct replies in one statement.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	current, _ := middleware.GetCurrentUser(ctx)

	var comment models.Comment
	err := c.db.Where("id = ? AND user_id = ?", ctx.Param("id"), current.ID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Message(ctx, http.StatusNotFound, "Comment not found or access denied")
			return
		}
		utils.ServerError(ctx, "comments: load failed", err)
		return
	}

	err = c.db.Where("id = ? OR parent_id = ?", comment.ID, comment.ID).
		Delete(&models.Comment{}).Error
	if err != nil {
		utils.ServerError(ctx, "comments: delete failed", err)
		return
	}

	utils.Message(ctx, http.StatusOK, "Comment deleted successfully")
}
