package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/profile"
)

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

type profileRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	FirstName  null.String `db:"first_name"`
	LastName   null.String `db:"last_name"`
	Phone      null.String `db:"phone"`
	Grade      null.String `db:"grade"`
	Department null.String `db:"department"`
	AvatarURL  null.String `db:"avatar_url"`
	CreatedAt  null.Time   `db:"created_at"`
	UpdatedAt  null.Time   `db:"updated_at"`
}

func (repo profileRepository) pack(prof profile.Profile) profileRow {
	return profileRow{
		ID:         prof.ID,
		UserID:     prof.UserID,
		FirstName:  null.NewString(prof.FirstName, prof.FirstName != ""),
		LastName:   null.NewString(prof.LastName, prof.LastName != ""),
		Phone:      null.NewString(prof.Phone, prof.Phone != ""),
		Grade:      null.NewString(prof.Grade, prof.Grade != ""),
		Department: null.NewString(prof.Department, prof.Department != ""),
		AvatarURL:  null.NewString(prof.AvatarURL, prof.AvatarURL != ""),
		CreatedAt:  null.NewTime(prof.CreatedAt.UTC(), !prof.CreatedAt.IsZero()),
		UpdatedAt:  null.NewTime(prof.UpdatedAt.UTC(), !prof.UpdatedAt.IsZero()),
	}
}

func (repo profileRepository) unpack(row profileRow) profile.Profile {
	return profile.Profile{
		ID:         row.ID,
		UserID:     row.UserID,
		FirstName:  row.FirstName.String,
		LastName:   row.LastName.String,
		Phone:      row.Phone.String,
		Grade:      row.Grade.String,
		Department: row.Department.String,
		AvatarURL:  row.AvatarURL.String,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func (repo profileRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return profile.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo profileRepository) CreateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	prof.ID = uuid.New().String()
	row := repo.pack(prof)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO profile (id, user_id, first_name, last_name, phone, grade, department, avatar_url, created_at, updated_at)
		VALUES (:id, :user_id, :first_name, :last_name, :phone, :grade, :department, :avatar_url, :created_at, :updated_at)`, row)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return repo.unpack(row), nil
}

func (repo profileRepository) GetProfileByUserID(ctx context.Context, userID string) (profile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM profile WHERE user_id = $1`, userID); err != nil {
		return profile.Profile{}, repo.trapNoRowsErr(err, "getting profile")
	}
	return repo.unpack(row), nil
}

func (repo profileRepository) UpdateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	row := repo.pack(prof)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE profile
		SET first_name = :first_name,
		    last_name  = :last_name,
		    phone      = :phone,
		    grade      = :grade,
		    department = :department,
		    avatar_url = :avatar_url,
		    updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return repo.unpack(row), nil
}
