package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

func Test_dashboardApi(t *testing.T) {
	fix := setup(t)

	learner := fix.createApprovedUser(t, "learner@test.cd", user.RoleLearner)
	learnerToken := fix.getToken(t, learner)

	pending, _ := fix.createPendingUser(t, "applicant@test.cd", user.RoleTeacher)
	pendingToken := fix.getToken(t, pending)

	tests := []httpTest{
		{
			name:     "anonymous is turned away",
			path:     "/v1/dashboard/learner",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "approved learner lands on their dashboard",
			path:     "/v1/dashboard/learner",
			token:    learnerToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "approved learner asking for another dashboard is redirected",
			path:     "/v1/dashboard/teacher",
			token:    learnerToken,
			wantCode: http.StatusTemporaryRedirect,
			extra:    "/dashboard/learner",
		},
		{
			name:     "pending account lands on the pending dashboard",
			path:     "/v1/dashboard/pending",
			token:    pendingToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "pending account never reaches a role dashboard",
			path:     "/v1/dashboard/teacher",
			token:    pendingToken,
			wantCode: http.StatusTemporaryRedirect,
			extra:    "/dashboard/pending",
		},
		{
			name:     "unknown slug falls back to the canonical dashboard",
			path:     "/v1/dashboard/dean",
			token:    learnerToken,
			wantCode: http.StatusTemporaryRedirect,
			extra:    "/dashboard/learner",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			fix.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if wantLoc, ok := tt.extra.(string); ok {
				if loc := rec.Header().Get(echo.HeaderLocation); loc != wantLoc {
					t.Errorf("Location = %s; want %s", loc, wantLoc)
				}
			}
		})
	}

	t.Run("response carries state, role and profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/learner", learnerToken)
		fix.server.ServeHTTP(rec, req)

		var res DashboardResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling DashboardResponse failed: %v", err)
		}
		if res.State != string(registration.GateApproved) {
			t.Errorf("State = %s; want %s", res.State, registration.GateApproved)
		}
		if res.Route != "/dashboard/learner" {
			t.Errorf("Route = %s; want /dashboard/learner", res.Route)
		}
		if res.Role == nil || *res.Role != user.RoleLearner {
			t.Errorf("Role = %v; want %s", res.Role, user.RoleLearner)
		}
		if res.Profile == nil {
			t.Error("Profile = nil; want the learner's profile")
		}
	})
}
