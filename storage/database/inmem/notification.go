package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/user"
)

type notificationRepository struct {
	notifs *notificationTable
	anns   *announcementTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{notifs: db.notification, anns: db.announcement}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, notif notification.Notification) (notification.Notification, error) {
	repo.notifs.Lock()
	defer repo.notifs.Unlock()

	notif.ID = uuid.New().String()
	repo.notifs.table[notif.ID] = &notif
	repo.notifs.order = append(repo.notifs.order, notif.ID)
	return notif, nil
}

func (repo *notificationRepository) QueryUserNotifications(_ context.Context, userID string) ([]notification.Notification, error) {
	repo.notifs.RLock()
	defer repo.notifs.RUnlock()

	var notifs []notification.Notification
	for _, id := range repo.notifs.order {
		if notif := repo.notifs.table[id]; notif.UserID == userID {
			notifs = append(notifs, *notif)
		}
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	repo.notifs.RLock()
	defer repo.notifs.RUnlock()

	var count int
	for _, notif := range repo.notifs.table {
		if notif.UserID == userID && !notif.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) MarkNotificationRead(_ context.Context, userID, id string) error {
	repo.notifs.Lock()
	defer repo.notifs.Unlock()

	if notif, ok := repo.notifs.table[id]; ok && notif.UserID == userID {
		notif.IsRead = true
	}
	return nil
}

func (repo *notificationRepository) CreateAnnouncement(_ context.Context, ann notification.Announcement) (notification.Announcement, error) {
	repo.anns.Lock()
	defer repo.anns.Unlock()

	ann.ID = uuid.New().String()
	repo.anns.table[ann.ID] = &ann
	repo.anns.order = append(repo.anns.order, ann.ID)
	return ann, nil
}

func (repo *notificationRepository) QueryAnnouncementsForRole(_ context.Context, role user.Role) ([]notification.Announcement, error) {
	repo.anns.RLock()
	defer repo.anns.RUnlock()

	var anns []notification.Announcement
	for _, id := range repo.anns.order {
		if ann := repo.anns.table[id]; ann.VisibleTo(role) {
			anns = append(anns, *ann)
		}
	}
	return anns, nil
}
