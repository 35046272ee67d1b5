package registration

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Registration records an application for an account and role. The status
// transitions pending -> approved|rejected exactly once, by an admin; after
// that only the admin notes may change. RequestedRole is what the applicant
// asked for -- the RoleAssignment created on approval is what they got, and
// only the latter matters for access control.
type Registration struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	RequestedRole user.Role `json:"requested_role"`
	DocumentURLs  []string  `json:"document_urls,omitempty"`
	Status        Status    `json:"status"`
	AdminNotes    string    `json:"admin_notes,omitempty"`
	DecidedBy     string    `json:"decided_by,omitempty"`
	DecidedAt     time.Time `json:"decided_at,omitempty"` // zero until decided
	CreatedAt     time.Time `json:"created_at"`           // UTC
	UpdatedAt     time.Time `json:"updated_at"`           // UTC
}

func (r *Registration) Decided() bool { return r.Status != StatusPending }

// RoleAssignment maps a user to exactly one app role. It is created on
// approval and is the single authority for all access decisions.
type RoleAssignment struct {
	UserID     string    `json:"user_id"`
	Role       user.Role `json:"role"`
	AssignedBy string    `json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewAccount contains everything needed to open an account: credentials,
// profile details and the role application.
type NewAccount struct {
	user.NewUser

	FirstName     string    `json:"first_name" validate:"required"`
	LastName      string    `json:"last_name" validate:"required"`
	Phone         string    `json:"phone"`
	Grade         string    `json:"grade" validate:"omitempty,alphanum_"`
	Department    string    `json:"department" validate:"omitempty,alphanum_"`
	RequestedRole user.Role `json:"requested_role" validate:"required,role"`
	DocumentURLs  []string  `json:"document_urls" validate:"omitempty,dive,url"`
}

func (na *NewAccount) Validate(validate *validator.Validate, usrSvc user.ServiceInterface) error {
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
	na.Phone = core.CleanString(na.Phone)
	na.Grade = core.CleanString(na.Grade)
	na.Department = core.CleanString(na.Department)

	// validates the embedded NewUser too (password policy, email format)
	if err := na.NewUser.Validate(validate, usrSvc); err != nil {
		return err
	}
	return validate.Struct(na)
}

// ApproveRegistration is the admin's approval decision. Role may differ from
// the requested role.
type ApproveRegistration struct {
	Role  user.Role `json:"role" validate:"required,role"`
	Notes string    `json:"notes"`
}

func (ar *ApproveRegistration) Validate(validate *validator.Validate) error {
	ar.Notes = core.CleanString(ar.Notes)
	return validate.Struct(ar)
}

type RejectRegistration struct {
	Notes string `json:"notes"`
}

func (rr *RejectRegistration) Validate(validate *validator.Validate) error {
	rr.Notes = core.CleanString(rr.Notes)
	return validate.Struct(rr)
}

type QueryFilter struct {
	Status        Status    `query:"status"`
	RequestedRole user.Role `query:"requested_role"`
	CreatedFrom   time.Time `query:"created_from"`
	CreatedTo     time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.RequestedRole == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}
