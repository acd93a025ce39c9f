package models

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is an article authored by a user. The slug is unique across all posts
// and derived deterministically from the title.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Slug          string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Excerpt       *string   `gorm:"size:500" json:"excerpt"`
	FeaturedImage *string   `gorm:"size:255" json:"featured_image"`
	Status        string    `gorm:"size:16;default:'draft';index" json:"status"`
	AuthorID      uint      `gorm:"index;not null" json:"author_id"`
	CategoryID    *uint     `gorm:"index" json:"category_id"`
	ViewCount     uint      `gorm:"default:0" json:"view_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// CommentCount is populated by list queries via a subquery alias.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// Published reports whether the post is publicly visible.
func (p *Post) Published() bool {
	return p.Status == StatusPublished
}
