package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

// Profile is the 1:1 extension of a user account. It is created at signup
// (or by an admin) and cascades with the user on deletion; it is never
// deleted on its own.
type Profile struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      string    `json:"phone"`
	Grade      string    `json:"grade"`      // learners only
	Department string    `json:"department"` // staff only
	AvatarURL  string    `json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (p *Profile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// UpdateProfile defines what information may be provided to modify an existing Profile.
type UpdateProfile struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Grade      string `json:"grade" validate:"omitempty,alphanum_"`
	Department string `json:"department" validate:"omitempty,alphanum_"`
	AvatarURL  string `json:"avatar_url" validate:"omitempty,url"`
}

func (up *UpdateProfile) Validate(orig Profile, validate *validator.Validate) error {
	if name := core.CleanString(up.FirstName); name != "" {
		up.FirstName = name
	} else {
		up.FirstName = orig.FirstName
	}
	if name := core.CleanString(up.LastName); name != "" {
		up.LastName = name
	} else {
		up.LastName = orig.LastName
	}
	up.Phone = core.CleanString(up.Phone)
	up.Grade = core.CleanString(up.Grade)
	up.Department = core.CleanString(up.Department)

	return validate.Struct(up)
}
