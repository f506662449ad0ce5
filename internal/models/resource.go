package models

import "time"

// ResourceKind distinguishes announcements from shared material.
type ResourceKind string

const (
	ResourceAnnouncement ResourceKind = "announcement"
	ResourceDocument     ResourceKind = "document"
	ResourceLink         ResourceKind = "link"
)

var ResourceKinds = []ResourceKind{ResourceAnnouncement, ResourceDocument, ResourceLink}

func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceAnnouncement, ResourceDocument, ResourceLink:
		return true
	}
	return false
}

// Resource is an admin-published announcement, document reference or link.
type Resource struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Kind        ResourceKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	Title       string       `gorm:"size:300;not null" json:"title"`
	Body        string       `gorm:"type:text" json:"body"`
	URL         string       `gorm:"size:1000" json:"url,omitempty"`
	Pinned      bool         `gorm:"not null;default:false" json:"pinned"`
	PublishedBy uint         `gorm:"not null" json:"published_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
