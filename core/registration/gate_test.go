package registration

import (
	"math/rand"
	"testing"
	"time"

	"github.com/trezcool/elimu/core/user"
)

func approvedSnapshot(role user.Role) Snapshot {
	reg := Registration{Status: StatusApproved, DecidedAt: time.Now().UTC()}
	return Snapshot{Role: &role, Registration: &reg, DataLoaded: true}
}

func pendingSnapshot() Snapshot {
	reg := Registration{Status: StatusPending}
	return Snapshot{Registration: &reg, DataLoaded: true}
}

func Test_Decide(t *testing.T) {
	teacher := user.RoleTeacher

	tests := []struct {
		name          string
		authenticated bool
		snap          Snapshot
		route         string
		want          Decision
	}{
		{
			name:  "unauthenticated redirects to login",
			snap:  Snapshot{},
			route: "/dashboard/teacher",
			want:  Decision{State: GateUnauthenticated, RedirectTo: LoginPath},
		},
		{
			name:          "data not loaded yet holds without redirect",
			authenticated: true,
			snap:          Snapshot{},
			route:         "/dashboard/teacher",
			want:          Decision{State: GateLoading},
		},
		{
			name:          "pending user allowed on pending dashboard",
			authenticated: true,
			snap:          pendingSnapshot(),
			route:         DashboardPendingPath,
			want:          Decision{State: GatePendingApproval, Allowed: true},
		},
		{
			name:          "pending user redirected off role dashboards",
			authenticated: true,
			snap:          pendingSnapshot(),
			route:         "/dashboard/teacher",
			want:          Decision{State: GatePendingApproval, RedirectTo: DashboardPendingPath},
		},
		{
			name:          "rejected user redirected to pending",
			authenticated: true,
			snap: Snapshot{
				Registration: &Registration{Status: StatusRejected},
				DataLoaded:   true,
			},
			route: "/dashboard/learner",
			want:  Decision{State: GatePendingApproval, RedirectTo: DashboardPendingPath},
		},
		{
			name:          "approved without role assignment is not approved",
			authenticated: true,
			snap: Snapshot{
				Registration: &Registration{Status: StatusApproved},
				DataLoaded:   true,
			},
			route: "/dashboard/teacher",
			want:  Decision{State: GatePendingApproval, RedirectTo: DashboardPendingPath},
		},
		{
			name:          "role assignment without registration is not approved",
			authenticated: true,
			snap:          Snapshot{Role: &teacher, DataLoaded: true},
			route:         "/dashboard/teacher",
			want:          Decision{State: GatePendingApproval, RedirectTo: DashboardPendingPath},
		},
		{
			name:          "approved user allowed on own dashboard",
			authenticated: true,
			snap:          approvedSnapshot(user.RoleTeacher),
			route:         "/dashboard/teacher",
			want:          Decision{State: GateApproved, Allowed: true},
		},
		{
			name:          "approved user redirected off other dashboards",
			authenticated: true,
			snap:          approvedSnapshot(user.RoleHOD),
			route:         "/dashboard/teacher",
			want:          Decision{State: GateApproved, RedirectTo: "/dashboard/hod"},
		},
		{
			name:          "approved user redirected off pending dashboard",
			authenticated: true,
			snap:          approvedSnapshot(user.RolePrincipal),
			route:         DashboardPendingPath,
			want:          Decision{State: GateApproved, RedirectTo: "/dashboard/principal"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.authenticated, tt.snap, tt.route)
			if got != tt.want {
				t.Errorf("Decide() = %+v; want %+v", got, tt.want)
			}

			// deciding twice must never toggle the outcome
			again := Decide(tt.authenticated, tt.snap, tt.route)
			if again != got {
				t.Errorf("Decide() is not idempotent: first %+v, second %+v", got, again)
			}

			// a redirect target must itself be allowed (no redirect loop)
			if !got.Allowed && got.RedirectTo != "" && got.RedirectTo != LoginPath {
				followUp := Decide(tt.authenticated, tt.snap, got.RedirectTo)
				if !followUp.Allowed {
					t.Errorf("Decide() redirect loop: %q -> %q not allowed (%+v)", tt.route, got.RedirectTo, followUp)
				}
			}
		})
	}
}

// Test_Snapshot_IsApproved_random exercises the approval formula over random
// registration/role combinations: approved iff the registration is approved
// AND a role assignment exists, regardless of everything else.
func Test_Snapshot_IsApproved_random(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	statuses := []Status{"", StatusPending, StatusApproved, StatusRejected}

	for i := 0; i < 500; i++ {
		var snap Snapshot
		snap.DataLoaded = true

		status := statuses[rng.Intn(len(statuses))]
		if status != "" {
			snap.Registration = &Registration{Status: status}
		}
		if rng.Intn(2) == 1 {
			role := user.AllRoles[rng.Intn(len(user.AllRoles))]
			snap.Role = &role
		}

		want := status == StatusApproved && snap.Role != nil
		if got := snap.IsApproved(); got != want {
			t.Fatalf("IsApproved() = %t; want %t (status=%q, role=%v)", got, want, status, snap.Role)
		}

		// the gate must agree with the formula for any route
		dec := Decide(true, snap, "/dashboard/"+user.AllRoles[rng.Intn(len(user.AllRoles))].String())
		if want && dec.State != GateApproved {
			t.Fatalf("Decide() state = %s; want %s (status=%q, role=%v)", dec.State, GateApproved, status, snap.Role)
		}
		if !want && dec.State != GatePendingApproval {
			t.Fatalf("Decide() state = %s; want %s (status=%q, role=%v)", dec.State, GatePendingApproval, status, snap.Role)
		}
	}
}

func Test_DashboardPath(t *testing.T) {
	for _, role := range user.AllRoles {
		role := role
		if got, want := DashboardPath(&role), DashboardPrefix+role.String(); got != want {
			t.Errorf("DashboardPath(%s) = %q; want %q", role, got, want)
		}
	}

	if got := DashboardPath(nil); got != DashboardPendingPath {
		t.Errorf("DashboardPath(nil) = %q; want %q", got, DashboardPendingPath)
	}

	unknown := user.Role("dean")
	if got := DashboardPath(&unknown); got != DashboardPendingPath {
		t.Errorf("DashboardPath(unknown) = %q; want %q", got, DashboardPendingPath)
	}
}
