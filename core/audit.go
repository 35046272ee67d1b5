package core

import (
	"context"
	"time"
)

// email audit kinds
const (
	EmailAuditKindRegistration  = "registration"
	EmailAuditKindBulk          = "bulk"
	EmailAuditKindPasswordReset = "password-reset"
)

// EmailAudit records one outbound email dispatch. One row per call, not per
// recipient; delivery itself is best-effort.
type EmailAudit struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Subject        string    `json:"subject"`
	RecipientCount int       `json:"recipient_count"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

type EmailAuditRepository interface {
	CreateEmailAudit(ctx context.Context, audit EmailAudit) (EmailAudit, error)
}
