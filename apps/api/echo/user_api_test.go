package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
)

func Test_userApi_login(t *testing.T) {
	fix := setup(t)

	fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	fix.createPendingUser(t, "pending@test.cd", user.RoleTeacher)

	deactivated := fix.createApprovedUser(t, "gone@test.cd", user.RoleTeacher)
	if _, err := fix.usrRepo.UpdateUser(context.Background(), deactivated, boolPtr(false)); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "approved account signs in",
			body:     []byte(`{"email": "learner@test.cd", "password": "Str0ng&Secret"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "pending account signs in too",
			body:     []byte(`{"email": "pending@test.cd", "password": "Str0ng&Secret"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email": "learner@test.cd", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email": "ghost@test.cd", "password": "Str0ng&Secret"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated after approval",
			body:     []byte(`{"email": "gone@test.cd", "password": "Str0ng&Secret"}`),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			fix.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if res.Token == "" {
					t.Error("empty token")
				}
			}
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	fix := setup(t)

	usr := fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	token := fix.getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
	fix.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

	var res LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling LoginResponse failed: %v", err)
	}
	if res.Token == "" {
		t.Error("empty token")
	}

	t.Run("anonymous", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}, rec)
	})
}

func Test_userApi_me(t *testing.T) {
	fix := setup(t)

	usr := fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	token := fix.getToken(t, usr)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", token)
	fix.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

	var res MeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling MeResponse failed: %v", err)
	}
	if res.User.ID != usr.ID {
		t.Errorf("User.ID = %s; want %s", res.User.ID, usr.ID)
	}
	if res.Role == nil || *res.Role != user.RoleLearner {
		t.Errorf("Role = %v; want %s", res.Role, user.RoleLearner)
	}
	if !res.IsApproved {
		t.Error("IsApproved = false; want true")
	}
	if res.Profile == nil || res.Profile.FirstName != "Jane" {
		t.Errorf("Profile = %+v; want Jane's", res.Profile)
	}
}

func Test_userApi_updateProfile(t *testing.T) {
	fix := setup(t)

	usr := fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	token := fix.getToken(t, usr)

	body := []byte(`{"first_name": "Janet", "phone": "+243 999 000 111"}`)
	req, rec := newAuthRequest(http.MethodPut, "/v1/users/me/profile", token, body)
	fix.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

	prof, err := fix.profRepo.GetProfileByUserID(req.Context(), usr.ID)
	if err != nil {
		t.Fatalf("GetProfileByUserID() failed: %v", err)
	}
	if prof.FirstName != "Janet" {
		t.Errorf("FirstName = %s; want Janet", prof.FirstName)
	}
	if prof.LastName != "Doe" { // untouched fields survive
		t.Errorf("LastName = %s; want Doe", prof.LastName)
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	fix := setup(t)
	fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)

	wantData := marshallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	tests := []httpTest{
		{name: "known email", body: []byte(`{"email": "learner@test.cd"}`), wantCode: http.StatusOK, wantData: wantData, extra: 1},
		{name: "unknown email gets the same answer", body: []byte(`{"email": "ghost@test.cd"}`), wantCode: http.StatusOK, wantData: wantData, extra: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", tt.body)
			fix.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if wantSent := tt.extra.(int); len(emailsvc.SentMessages) != wantSent {
				t.Errorf("sent messages = %d; want %d", len(emailsvc.SentMessages), wantSent)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }
