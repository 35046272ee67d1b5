package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

// feed item types
const (
	TypeAnnouncement = "announcement"
	TypeRegistration = "registration"
	TypeGeneral      = "general"
)

// Notification is a per-user message with read state, created by domain
// actions. Only the owning user ever flips the read flag.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Announcement is a broadcast message targeted at role audiences. It carries
// no per-user read state.
type Announcement struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Audience  []user.Role `json:"audience"` // empty = everyone
	CreatedBy string      `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

// VisibleTo reports whether the announcement targets the given role.
func (a *Announcement) VisibleTo(role user.Role) bool {
	if len(a.Audience) == 0 {
		return true
	}
	for _, r := range a.Audience {
		if r == role {
			return true
		}
	}
	return false
}

// FeedItem is the common shape announcements and notifications are
// normalized to before merging.
type FeedItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
	Link      string    `json:"link,omitempty"`
}

// NewAnnouncement contains information needed to create an Announcement.
type NewAnnouncement struct {
	Title    string      `json:"title" validate:"required"`
	Body     string      `json:"body" validate:"required"`
	Audience []user.Role `json:"audience" validate:"omitempty,dive,role"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	return validate.Struct(na)
}
