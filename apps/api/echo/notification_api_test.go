package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/user"
)

func Test_notificationApi(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	admin := fix.createApprovedUser(t, "admin@test.cd", user.RoleAdmin)
	adminToken := fix.getToken(t, admin)
	learner := fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	learnerToken := fix.getToken(t, learner)

	notif, err := fix.notifSvc.Notify(ctx, learner.ID, notification.TypeRegistration, "Welcome", "Your account was approved.", "/dashboard/learner")
	if err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if _, err = fix.notifSvc.Announce(ctx, admin.ID, notification.NewAnnouncement{
		Title:    "Term dates",
		Body:     "Term 2 starts on Monday.",
		Audience: []user.Role{user.RoleLearner},
	}); err != nil {
		t.Fatalf("Announce() failed: %v", err)
	}
	if _, err = fix.notifSvc.Announce(ctx, admin.ID, notification.NewAnnouncement{
		Title:    "Staff meeting",
		Body:     "Staff only.",
		Audience: []user.Role{user.RoleTeacher},
	}); err != nil {
		t.Fatalf("Announce() failed: %v", err)
	}

	t.Run("feed merges announcements with own notifications", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", learnerToken)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		var feed []notification.FeedItem
		if err := json.Unmarshal(rec.Body.Bytes(), &feed); err != nil {
			t.Fatalf("unmarshalling feed failed: %v", err)
		}
		if len(feed) != 2 {
			t.Fatalf("len(feed) = %d; want 2: %+v", len(feed), feed)
		}
		for _, item := range feed {
			if item.Title == "Staff meeting" {
				t.Error("learner feed contains a staff-only announcement")
			}
		}
	})

	t.Run("unread count ignores announcements", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", learnerToken)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, UnreadCountResponse{Count: 1})}, rec)
	})

	t.Run("mark read is idempotent and always 204", func(t *testing.T) {
		for _, id := range []string{notif.ID, notif.ID, "nope"} {
			req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/"+id+"/read", learnerToken)
			fix.server.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, rec)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", learnerToken)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, UnreadCountResponse{Count: 0})}, rec)
	})

	t.Run("announce is admin only", func(t *testing.T) {
		body := []byte(`{"title": "Library hours", "body": "Open till 6pm."}`)

		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/announcements", learnerToken, body)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})}, rec)

		req, rec = newAuthRequest(http.MethodPost, "/v1/admin/announcements", adminToken, body)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)
	})

	t.Run("missing title is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/announcements", adminToken, []byte(`{"body": "no title"}`))
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})
}
