package notification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

var ErrNotFound = errors.New("notification not found")

const unreadCountTTL = 30 * time.Second

type (
	Repository interface {
		CreateNotification(ctx context.Context, notif Notification) (Notification, error)
		QueryUserNotifications(ctx context.Context, userID string) ([]Notification, error)
		CountUnreadNotifications(ctx context.Context, userID string) (int, error)
		// MarkNotificationRead sets the read flag on the user's notification.
		// Marking an already-read or missing notification is a no-op.
		MarkNotificationRead(ctx context.Context, userID, id string) error
		CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
		QueryAnnouncementsForRole(ctx context.Context, role user.Role) ([]Announcement, error)
	}

	// Cache is a fail-safe cache: implementations swallow connectivity
	// errors and behave like a miss.
	Cache interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
		Delete(ctx context.Context, key string) error
	}

	ServiceInterface interface {
		Feed(ctx context.Context, userID string, role user.Role) ([]FeedItem, error)
		MarkRead(ctx context.Context, userID, id string)
		UnreadCount(ctx context.Context, userID string) (int, error)
		Notify(ctx context.Context, userID, typ, title, body, link string) (Notification, error)
		Announce(ctx context.Context, createdBy string, na NewAnnouncement) (Announcement, error)
	}

	service struct {
		repo   Repository
		cache  Cache
		logger core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, cache Cache, logger core.Logger) ServiceInterface {
	return &service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Feed returns the merged, time-ordered feed of announcements visible to the
// user's role and the user's own notifications.
func (svc *service) Feed(ctx context.Context, userID string, role user.Role) ([]FeedItem, error) {
	anns, err := svc.repo.QueryAnnouncementsForRole(ctx, role)
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	notifs, err := svc.repo.QueryUserNotifications(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return BuildFeed(anns, notifs), nil
}

// MarkRead flips the read flag on the user's notification. The write is
// best-effort: failures are logged and swallowed, and the true state is
// reconciled on the next fetch.
func (svc *service) MarkRead(ctx context.Context, userID, id string) {
	if err := svc.repo.MarkNotificationRead(ctx, userID, id); err != nil {
		svc.logger.Error(fmt.Sprintf("marking notification %s read: %v", id, err), err)
		return
	}
	_ = svc.cache.Delete(ctx, unreadCountKey(userID))
}

// UnreadCount returns the number of unread notifications, cached briefly.
// Announcements never contribute to the count.
func (svc *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := unreadCountKey(userID)
	if raw, _ := svc.cache.Get(ctx, key); raw != nil {
		if count, err := strconv.Atoi(string(raw)); err == nil {
			return count, nil
		}
	}

	count, err := svc.repo.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	_ = svc.cache.Set(ctx, key, []byte(strconv.Itoa(count)), unreadCountTTL)
	return count, nil
}

func (svc *service) Notify(ctx context.Context, userID, typ, title, body, link string) (Notification, error) {
	notif := Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	notif, err := svc.repo.CreateNotification(ctx, notif)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	_ = svc.cache.Delete(ctx, unreadCountKey(userID))
	return notif, nil
}

func (svc *service) Announce(ctx context.Context, createdBy string, na NewAnnouncement) (Announcement, error) {
	ann := Announcement{
		Title:     na.Title,
		Body:      na.Body,
		Audience:  na.Audience,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	ann, err := svc.repo.CreateAnnouncement(ctx, ann)
	if err != nil {
		return Announcement{}, errors.Wrap(err, "creating announcement")
	}
	return ann, nil
}

func unreadCountKey(userID string) string {
	return "notification:unread:" + userID
}
