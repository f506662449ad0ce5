package models

import (
	"time"

	"tipa/internal/ranking"
)

// Category is a forum board.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryTechnical   Category = "technical"
	CategoryCareers     Category = "careers"
	CategoryEvents      Category = "events"
	CategoryClassifieds Category = "classifieds"
)

var Categories = []Category{CategoryGeneral, CategoryTechnical, CategoryCareers, CategoryEvents, CategoryClassifieds}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Thread is a forum thread. CreatedBy is nulled when the author is removed;
// AuthorEmail is kept so the thread still shows who wrote it.
type Thread struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Title       string   `gorm:"size:300;not null" json:"title"`
	Content     string   `gorm:"type:text;not null" json:"content"`
	Category    Category `gorm:"type:varchar(30);not null;index" json:"category"`
	CreatedBy   *uint    `gorm:"index" json:"created_by"`
	Author      *Member  `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	AuthorEmail string   `gorm:"size:255;not null" json:"author_email"`
	// LatestCommentAt is maintained by the comment repository.
	LatestCommentAt *time.Time `gorm:"index" json:"latest_comment_at"`
	// CommentCount is not persisted; computed at query time
	CommentCount int       `gorm:"->;-:migration" json:"comment_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Activity returns the ranking inputs for the hot listing.
func (t Thread) Activity() ranking.Activity {
	return ranking.Activity{
		CommentCount:    t.CommentCount,
		CreatedAt:       t.CreatedAt,
		LatestCommentAt: t.LatestCommentAt,
	}
}

// Comment is immutable once written; owners and admins may hard-delete it.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;index" json:"thread_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedBy *uint     `gorm:"index" json:"created_by"`
	Author    *Member   `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
