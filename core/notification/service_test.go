package notification_test

import (
	"context"
	"testing"

	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/storage/cache"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	testutil "github.com/trezcool/elimu/tests"
)

func notifSetup(t *testing.T) (notification.ServiceInterface, notification.Repository, *testutil.Logger) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("notifSetup() failed: %v", err)
	}
	repo := inmemdb.NewNotificationRepository(db)
	logger := new(testutil.Logger)
	return notification.NewService(repo, cache.NewMemory(), logger), repo, logger
}

func Test_service_Feed(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := notifSetup(t)

	if _, err := svc.Announce(ctx, "admin-1", notification.NewAnnouncement{
		Title: "All hands", Body: "Assembly at 8am",
	}); err != nil {
		t.Fatalf("Announce() failed: %v", err)
	}
	if _, err := svc.Announce(ctx, "admin-1", notification.NewAnnouncement{
		Title: "Staff only", Body: "Markbook deadline", Audience: []user.Role{user.RoleTeacher},
	}); err != nil {
		t.Fatalf("Announce() failed: %v", err)
	}
	if _, err := svc.Notify(ctx, "usr-1", notification.TypeGeneral, "Hello", "A message", ""); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if _, err := svc.Notify(ctx, "usr-2", notification.TypeGeneral, "Other user", "Not yours", ""); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}

	// learner: general announcement + own notification, not the staff one
	feed, err := svc.Feed(ctx, "usr-1", user.RoleLearner)
	if err != nil {
		t.Fatalf("Feed() failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("len(feed) = %d; want 2: %+v", len(feed), feed)
	}
	for _, item := range feed {
		if item.Title == "Staff only" {
			t.Error("feed leaked an announcement outside its audience")
		}
		if item.Title == "Other user" {
			t.Error("feed leaked another user's notification")
		}
	}

	// teacher sees both announcements
	feed, err = svc.Feed(ctx, "usr-3", user.RoleTeacher)
	if err != nil {
		t.Fatalf("Feed() failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("len(feed) = %d; want 2: %+v", len(feed), feed)
	}
}

func Test_service_UnreadCount(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := notifSetup(t)

	if _, err := svc.Announce(ctx, "admin-1", notification.NewAnnouncement{Title: "Ping", Body: "..."}); err != nil {
		t.Fatalf("Announce() failed: %v", err)
	}

	count, err := svc.UnreadCount(ctx, "usr-1")
	if err != nil {
		t.Fatalf("UnreadCount() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("announcements must not count as unread; got %d", count)
	}

	notif, err := svc.Notify(ctx, "usr-1", notification.TypeGeneral, "Hello", "A message", "")
	if err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if count, err = svc.UnreadCount(ctx, "usr-1"); err != nil || count != 1 {
		t.Errorf("UnreadCount() = %d, %v; want 1, nil", count, err)
	}

	// marking read invalidates the cached count immediately
	svc.MarkRead(ctx, "usr-1", notif.ID)
	if count, err = svc.UnreadCount(ctx, "usr-1"); err != nil || count != 0 {
		t.Errorf("UnreadCount() after MarkRead = %d, %v; want 0, nil", count, err)
	}
}

func Test_service_MarkRead(t *testing.T) {
	ctx := context.Background()
	svc, repo, logger := notifSetup(t)

	notif, err := svc.Notify(ctx, "usr-1", notification.TypeGeneral, "Hello", "A message", "")
	if err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}

	// idempotent: marking twice is a no-op
	svc.MarkRead(ctx, "usr-1", notif.ID)
	svc.MarkRead(ctx, "usr-1", notif.ID)

	notifs, err := repo.QueryUserNotifications(ctx, "usr-1")
	if err != nil {
		t.Fatalf("QueryUserNotifications() failed: %v", err)
	}
	if len(notifs) != 1 || !notifs[0].IsRead {
		t.Errorf("notification not marked read: %+v", notifs)
	}

	// someone else's notification is a silent no-op
	svc.MarkRead(ctx, "usr-2", notif.ID)
	notifs, _ = repo.QueryUserNotifications(ctx, "usr-1")
	if !notifs[0].IsRead {
		t.Error("owner's read state must not change")
	}

	// unknown IDs never error out
	svc.MarkRead(ctx, "usr-1", "ghost")
	if len(logger.Messages) != 0 {
		t.Errorf("no-op marks must not be logged as errors; got %v", logger.Messages)
	}
}
