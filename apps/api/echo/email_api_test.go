package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
)

func Test_adminEmailApi_bulkSend(t *testing.T) {
	fix := setup(t)

	admin := fix.createApprovedUser(t, "admin@test.cd", user.RoleAdmin)
	adminToken := fix.getToken(t, admin)
	learner := fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	learnerToken := fix.getToken(t, learner)

	body := []byte(`{
		"recipients": ["one@test.cd", "two@test.cd"],
		"subject": "Fee reminder",
		"body": "Term fees are due Friday.",
		"sender_name": "Finance Office"
	}`)

	t.Run("admin gate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/emails/bulk", learnerToken, body)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("fans out one message per recipient", func(t *testing.T) {
		emailsvc.SentMessages = nil // reset

		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/emails/bulk", adminToken, body)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marshallObj(t, BulkEmailResponse{Success: true, RecipientCount: 2}),
		}, rec)

		if len(emailsvc.SentMessages) != 2 {
			t.Fatalf("sent messages = %d; want 2", len(emailsvc.SentMessages))
		}
		for _, msg := range emailsvc.SentMessages {
			if len(msg.To) != 1 { // recipients must not see each other
				t.Errorf("len(To) = %d; want 1", len(msg.To))
			}
			if !strings.HasSuffix(msg.Subject, "(from Finance Office)") {
				t.Errorf("Subject = %q; want the sender name suffix", msg.Subject)
			}
		}
	})

	t.Run("bad recipient address is rejected", func(t *testing.T) {
		bad := []byte(`{"recipients": ["not-an-email"], "subject": "Hi", "body": "There."}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/emails/bulk", adminToken, bad)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})

	t.Run("empty recipients are rejected", func(t *testing.T) {
		bad := []byte(`{"recipients": [], "subject": "Hi", "body": "There."}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/emails/bulk", adminToken, bad)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})
}
