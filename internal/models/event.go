package models

import "time"

// RSVPResponse is a member's answer to an event invitation.
type RSVPResponse string

const (
	RSVPGoing    RSVPResponse = "going"
	RSVPMaybe    RSVPResponse = "maybe"
	RSVPNotGoing RSVPResponse = "not_going"
)

func (r RSVPResponse) Valid() bool {
	switch r {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return true
	}
	return false
}

// Event is an association meetup. Capacity 0 means unlimited.
type Event struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:300;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Location    string     `gorm:"size:300" json:"location"`
	StartsAt    time.Time  `gorm:"not null;index" json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Capacity    int        `gorm:"not null;default:0" json:"capacity"`
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	// GoingCount is not persisted; computed at query time
	GoingCount int `gorm:"->;-:migration" json:"going_count"`
	// MaybeCount is not persisted; computed at query time
	MaybeCount int       `gorm:"->;-:migration" json:"maybe_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Full reports whether no further "going" RSVPs fit.
func (e *Event) Full() bool {
	return e.Capacity > 0 && e.GoingCount >= e.Capacity
}

// EventRSVP is one member's current answer for one event.
type EventRSVP struct {
	EventID   uint         `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	MemberID  uint         `gorm:"primaryKey;autoIncrement:false" json:"member_id"`
	Member    *Member      `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Response  RSVPResponse `gorm:"type:varchar(20);not null" json:"response"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
