package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

func Test_registrationApi_signUp(t *testing.T) {
	fix := setup(t)

	body := []byte(`{
		"email": "jdoe@test.cd",
		"password": "Str0ng&Secret",
		"password_confirm": "Str0ng&Secret",
		"first_name": "John",
		"last_name": "Doe",
		"grade": "10",
		"requested_role": "learner"
	}`)
	req, rec := newRequest(http.MethodPost, "/v1/register", body)
	fix.server.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)

	usr, err := fix.usrSvc.GetByEmail(req.Context(), "jdoe@test.cd")
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	if usr.Active() {
		t.Error("new account is active; want inactive until approval")
	}
	reg, err := fix.regRepo.GetRegistrationByUserID(req.Context(), usr.ID)
	if err != nil {
		t.Fatalf("GetRegistrationByUserID() failed: %v", err)
	}
	if reg.Status != registration.StatusPending {
		t.Errorf("Status = %s; want %s", reg.Status, registration.StatusPending)
	}

	t.Run("duplicate email is rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/register", body)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})

	t.Run("punctuated grade is rejected", func(t *testing.T) {
		bad := []byte(`{
			"email": "punct@test.cd",
			"password": "Str0ng&Secret",
			"password_confirm": "Str0ng&Secret",
			"first_name": "Paula",
			"last_name": "Doe",
			"grade": "Grade #10!",
			"requested_role": "learner"
		}`)
		req, rec := newRequest(http.MethodPost, "/v1/register", bad)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"grade": "only alphanumeric characters and underscores are allowed"}),
		}, rec)
	})

	t.Run("invalid role is rejected", func(t *testing.T) {
		bad := []byte(`{
			"email": "dean@test.cd",
			"password": "Str0ng&Secret",
			"password_confirm": "Str0ng&Secret",
			"first_name": "Dean",
			"last_name": "Doe",
			"requested_role": "dean"
		}`)
		req, rec := newRequest(http.MethodPost, "/v1/register", bad)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
	})
}

func Test_registrationApi_adminReview(t *testing.T) {
	fix := setup(t)

	admin := fix.createApprovedUser(t, "admin@test.cd", user.RoleAdmin)
	adminToken := fix.getToken(t, admin)
	learner := fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	learnerToken := fix.getToken(t, learner)

	_, reg := fix.createPendingUser(t, "applicant@test.cd", user.RoleTeacher)

	t.Run("admin gate", func(t *testing.T) {
		tests := []httpTest{
			{name: "anonymous", token: "", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
			{name: "non-admin", token: learnerToken, wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodGet, "/v1/admin/registrations", tt.token)
				fix.server.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)
			})
		}
	})

	t.Run("query and retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/registrations?status=pending", adminToken)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/admin/registrations/"+reg.ID, adminToken)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/admin/registrations/nope", adminToken)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("approve with a divergent role", func(t *testing.T) {
		body := []byte(`{"role": "grade_head", "notes": "covers grade 10"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/registrations/"+reg.ID+"/approve", adminToken, body)
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		got, err := fix.regRepo.GetRegistrationByID(req.Context(), reg.ID)
		if err != nil {
			t.Fatalf("GetRegistrationByID() failed: %v", err)
		}
		if got.Status != registration.StatusApproved {
			t.Errorf("Status = %s; want %s", got.Status, registration.StatusApproved)
		}
		if got.RequestedRole != user.RoleTeacher {
			t.Errorf("RequestedRole = %s; want it untouched (%s)", got.RequestedRole, user.RoleTeacher)
		}
		ra, err := fix.regRepo.GetRoleAssignment(req.Context(), reg.UserID)
		if err != nil {
			t.Fatalf("GetRoleAssignment() failed: %v", err)
		}
		if ra.Role != user.RoleGradeHead {
			t.Errorf("assigned role = %s; want %s", ra.Role, user.RoleGradeHead)
		}
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/registrations/"+reg.ID+"/reject", adminToken, []byte(`{}`))
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marshallObj(t, httpErr{Error: registration.ErrAlreadyDecided.Error()})}, rec)
	})

	t.Run("notes stay editable after the decision", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/admin/registrations/"+reg.ID+"/notes", adminToken, []byte(`{"notes": "transcript archived"}`))
		fix.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

		got, err := fix.regRepo.GetRegistrationByID(req.Context(), reg.ID)
		if err != nil {
			t.Fatalf("GetRegistrationByID() failed: %v", err)
		}
		if got.AdminNotes != "transcript archived" {
			t.Errorf("AdminNotes = %q; want %q", got.AdminNotes, "transcript archived")
		}
	})
}
