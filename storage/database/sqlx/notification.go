package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/user"
)

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

type notificationRow struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	Type      string      `db:"type"`
	Title     string      `db:"title"`
	Body      null.String `db:"body"`
	Link      null.String `db:"link"`
	IsRead    bool        `db:"is_read"`
	CreatedAt null.Time   `db:"created_at"`
}

type announcementRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	Audience  pq.StringArray `db:"audience"`
	CreatedBy null.String    `db:"created_by"`
	CreatedAt null.Time      `db:"created_at"`
}

func (repo notificationRepository) unpack(row notificationRow) notification.Notification {
	return notification.Notification{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      row.Type,
		Title:     row.Title,
		Body:      row.Body.String,
		Link:      row.Link.String,
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt.Time,
	}
}

func (repo notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	notif.ID = uuid.New().String()
	row := notificationRow{
		ID:        notif.ID,
		UserID:    notif.UserID,
		Type:      notif.Type,
		Title:     notif.Title,
		Body:      null.NewString(notif.Body, notif.Body != ""),
		Link:      null.NewString(notif.Link, notif.Link != ""),
		IsRead:    notif.IsRead,
		CreatedAt: null.NewTime(notif.CreatedAt.UTC(), !notif.CreatedAt.IsZero()),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO notification (id, user_id, type, title, body, link, is_read, created_at)
		VALUES (:id, :user_id, :type, :title, :body, :link, :is_read, :created_at)`, row)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return repo.unpack(row), nil
}

func (repo notificationRepository) QueryUserNotifications(ctx context.Context, userID string) ([]notification.Notification, error) {
	var rows []notificationRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM notification WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, repo.unpack(row))
	}
	return notifs, nil
}

func (repo notificationRepository) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}

func (repo notificationRepository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	// idempotent by construction; unknown ids are a no-op
	_, err := repo.db.ExecContext(ctx,
		`UPDATE notification SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return nil
}

func (repo notificationRepository) CreateAnnouncement(ctx context.Context, ann notification.Announcement) (notification.Announcement, error) {
	ann.ID = uuid.New().String()
	audience := make(pq.StringArray, 0, len(ann.Audience))
	for _, role := range ann.Audience {
		audience = append(audience, role.String())
	}
	row := announcementRow{
		ID:        ann.ID,
		Title:     ann.Title,
		Body:      ann.Body,
		Audience:  audience,
		CreatedBy: null.NewString(ann.CreatedBy, ann.CreatedBy != ""),
		CreatedAt: null.NewTime(ann.CreatedAt.UTC(), !ann.CreatedAt.IsZero()),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO announcement (id, title, body, audience, created_by, created_at)
		VALUES (:id, :title, :body, :audience, :created_by, :created_at)`, row)
	if err != nil {
		return notification.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return ann, nil
}

func (repo notificationRepository) QueryAnnouncementsForRole(ctx context.Context, role user.Role) ([]notification.Announcement, error) {
	var rows []announcementRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM announcement
		WHERE audience IS NULL OR cardinality(audience) = 0 OR $1 = ANY(audience)
		ORDER BY created_at DESC`, role.String())
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}

	anns := make([]notification.Announcement, 0, len(rows))
	for _, row := range rows {
		audience := make([]user.Role, 0, len(row.Audience))
		for _, r := range row.Audience {
			audience = append(audience, user.Role(r))
		}
		anns = append(anns, notification.Announcement{
			ID:        row.ID,
			Title:     row.Title,
			Body:      row.Body,
			Audience:  audience,
			CreatedBy: row.CreatedBy.String,
			CreatedAt: row.CreatedAt.Time,
		})
	}
	return anns, nil
}
