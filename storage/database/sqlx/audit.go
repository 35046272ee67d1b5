package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

type emailAuditRepository struct {
	db *sqlx.DB
}

var _ core.EmailAuditRepository = (*emailAuditRepository)(nil) // interface compliance check

func NewEmailAuditRepository(db *sqlx.DB) *emailAuditRepository {
	return &emailAuditRepository{db: db}
}

type emailAuditRow struct {
	ID             string      `db:"id"`
	Kind           string      `db:"kind"`
	Subject        null.String `db:"subject"`
	RecipientCount int         `db:"recipient_count"`
	CreatedAt      null.Time   `db:"created_at"`
}

func (repo emailAuditRepository) CreateEmailAudit(ctx context.Context, audit core.EmailAudit) (core.EmailAudit, error) {
	audit.ID = uuid.New().String()
	row := emailAuditRow{
		ID:             audit.ID,
		Kind:           audit.Kind,
		Subject:        null.NewString(audit.Subject, audit.Subject != ""),
		RecipientCount: audit.RecipientCount,
		CreatedAt:      null.NewTime(audit.CreatedAt.UTC(), !audit.CreatedAt.IsZero()),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO email_audit (id, kind, subject, recipient_count, created_at)
		VALUES (:id, :kind, :subject, :recipient_count, :created_at)`, row)
	if err != nil {
		return core.EmailAudit{}, errors.Wrap(err, "inserting email audit")
	}
	return audit, nil
}
