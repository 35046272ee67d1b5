package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
)

type emailAuditRepository struct {
	db *emailAuditTable
}

var _ core.EmailAuditRepository = (*emailAuditRepository)(nil) // interface compliance check

func NewEmailAuditRepository(db *DB) core.EmailAuditRepository {
	return &emailAuditRepository{db: db.emailAudit}
}

func (repo *emailAuditRepository) CreateEmailAudit(_ context.Context, audit core.EmailAudit) (core.EmailAudit, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	audit.ID = uuid.New().String()
	repo.db.table[audit.ID] = &audit
	return audit, nil
}
