package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

type registrationRepository struct {
	db *sqlx.DB
}

var _ registration.Repository = (*registrationRepository)(nil) // interface compliance check

func NewRegistrationRepository(db *sqlx.DB) *registrationRepository {
	return &registrationRepository{db: db}
}

type registrationRow struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	RequestedRole string         `db:"requested_role"`
	DocumentURLs  pq.StringArray `db:"document_urls"`
	Status        string         `db:"status"`
	AdminNotes    null.String    `db:"admin_notes"`
	DecidedBy     null.String    `db:"decided_by"`
	DecidedAt     null.Time      `db:"decided_at"`
	CreatedAt     null.Time      `db:"created_at"`
	UpdatedAt     null.Time      `db:"updated_at"`
}

type roleAssignmentRow struct {
	UserID     string      `db:"user_id"`
	Role       string      `db:"role"`
	AssignedBy null.String `db:"assigned_by"`
	CreatedAt  null.Time   `db:"created_at"`
	UpdatedAt  null.Time   `db:"updated_at"`
}

func (repo registrationRepository) pack(reg registration.Registration) registrationRow {
	return registrationRow{
		ID:            reg.ID,
		UserID:        reg.UserID,
		RequestedRole: reg.RequestedRole.String(),
		DocumentURLs:  reg.DocumentURLs,
		Status:        string(reg.Status),
		AdminNotes:    null.NewString(reg.AdminNotes, reg.AdminNotes != ""),
		DecidedBy:     null.NewString(reg.DecidedBy, reg.DecidedBy != ""),
		DecidedAt:     null.NewTime(reg.DecidedAt.UTC(), !reg.DecidedAt.IsZero()),
		CreatedAt:     null.NewTime(reg.CreatedAt.UTC(), !reg.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(reg.UpdatedAt.UTC(), !reg.UpdatedAt.IsZero()),
	}
}

func (repo registrationRepository) unpack(row registrationRow) registration.Registration {
	return registration.Registration{
		ID:            row.ID,
		UserID:        row.UserID,
		RequestedRole: user.Role(row.RequestedRole),
		DocumentURLs:  row.DocumentURLs,
		Status:        registration.Status(row.Status),
		AdminNotes:    row.AdminNotes.String,
		DecidedBy:     row.DecidedBy.String,
		DecidedAt:     row.DecidedAt.Time,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

func (repo registrationRepository) trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo registrationRepository) CreateRegistration(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	reg.ID = uuid.New().String()
	row := repo.pack(reg)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO registration (id, user_id, requested_role, document_urls, status, admin_notes, decided_by, decided_at, created_at, updated_at)
		VALUES (:id, :user_id, :requested_role, :document_urls, :status, :admin_notes, :decided_by, :decided_at, :created_at, :updated_at)`, row)
	if err != nil {
		return registration.Registration{}, errors.Wrap(err, "inserting registration")
	}
	return repo.unpack(row), nil
}

func (repo registrationRepository) GetRegistrationByID(ctx context.Context, id string) (registration.Registration, error) {
	var row registrationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM registration WHERE id = $1`, id); err != nil {
		return registration.Registration{}, repo.trapNoRowsErr(err, registration.ErrNotFound, "getting registration by ID")
	}
	return repo.unpack(row), nil
}

func (repo registrationRepository) GetRegistrationByUserID(ctx context.Context, userID string) (registration.Registration, error) {
	var row registrationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM registration WHERE user_id = $1`, userID); err != nil {
		return registration.Registration{}, repo.trapNoRowsErr(err, registration.ErrNotFound, "getting registration by user ID")
	}
	return repo.unpack(row), nil
}

func (repo registrationRepository) QueryRegistrations(ctx context.Context, filter *registration.QueryFilter, ordering []core.DBOrdering) ([]registration.Registration, error) {
	query := `SELECT * FROM registration`
	var args []interface{}
	var conds []string

	if filter != nil && !filter.IsEmpty() {
		if filter.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, string(filter.Status))
		}
		if filter.RequestedRole != "" {
			conds = append(conds, "requested_role = ?")
			args = append(args, filter.RequestedRole.String())
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= ?")
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= ?")
			args = append(args, filter.CreatedTo.UTC())
		}
	}
	query += whereClause(conds)
	query += orderByClause(ordering, "created_at DESC")

	var rows []registrationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying registrations")
	}
	regs := make([]registration.Registration, 0, len(rows))
	for _, row := range rows {
		regs = append(regs, repo.unpack(row))
	}
	return regs, nil
}

func (repo registrationRepository) UpdateRegistration(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	row := repo.pack(reg)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE registration
		SET status      = :status,
		    admin_notes = :admin_notes,
		    decided_by  = :decided_by,
		    decided_at  = :decided_at,
		    updated_at  = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return registration.Registration{}, errors.Wrap(err, "updating registration")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registration.Registration{}, registration.ErrNotFound
	}
	return repo.unpack(row), nil
}

func (repo registrationRepository) UpsertRoleAssignment(ctx context.Context, ra registration.RoleAssignment) (registration.RoleAssignment, error) {
	row := roleAssignmentRow{
		UserID:     ra.UserID,
		Role:       ra.Role.String(),
		AssignedBy: null.NewString(ra.AssignedBy, ra.AssignedBy != ""),
		CreatedAt:  null.NewTime(ra.CreatedAt.UTC(), !ra.CreatedAt.IsZero()),
		UpdatedAt:  null.NewTime(ra.UpdatedAt.UTC(), !ra.UpdatedAt.IsZero()),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO role_assignment (user_id, role, assigned_by, created_at, updated_at)
		VALUES (:user_id, :role, :assigned_by, :created_at, :updated_at)
		ON CONFLICT (user_id)
		DO UPDATE SET role = EXCLUDED.role, assigned_by = EXCLUDED.assigned_by, updated_at = EXCLUDED.updated_at`, row)
	if err != nil {
		return registration.RoleAssignment{}, errors.Wrap(err, "upserting role assignment")
	}
	return ra, nil
}

func (repo registrationRepository) GetRoleAssignment(ctx context.Context, userID string) (registration.RoleAssignment, error) {
	var row roleAssignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM role_assignment WHERE user_id = $1`, userID); err != nil {
		return registration.RoleAssignment{}, repo.trapNoRowsErr(err, registration.ErrAssignmentNotFound, "getting role assignment")
	}
	return registration.RoleAssignment{
		UserID:     row.UserID,
		Role:       user.Role(row.Role),
		AssignedBy: row.AssignedBy.String,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}, nil
}
