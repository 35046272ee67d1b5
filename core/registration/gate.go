package registration

import "github.com/trezcool/elimu/core/user"

// GateState is the access gate's resolved state for a request.
type GateState string

const (
	GateLoading         GateState = "loading"
	GateUnauthenticated GateState = "unauthenticated"
	GatePendingApproval GateState = "pending_approval"
	GateApproved        GateState = "approved"
)

// canonical dashboard paths
const (
	DashboardPrefix      = "/dashboard/"
	DashboardPendingPath = DashboardPrefix + "pending"
	LoginPath            = "/login"
)

// DashboardPath returns the canonical dashboard path for a role: one path
// per role, with the pending path as the fallback for nil or unknown roles.
func DashboardPath(role *user.Role) string {
	if role == nil || !role.IsValid() {
		return DashboardPendingPath
	}
	return DashboardPrefix + role.String()
}

// Decision is the gate's verdict on a requested route. When Allowed is
// false, RedirectTo names the route the user belongs on (empty while still
// loading).
type Decision struct {
	State      GateState
	Allowed    bool
	RedirectTo string
}

// Decide gates a requested route given the authentication state and account
// snapshot. It is a pure function: same inputs, same decision, no side
// effects -- evaluating it twice must never toggle redirects.
func Decide(authenticated bool, snap Snapshot, route string) Decision {
	if !authenticated {
		return Decision{State: GateUnauthenticated, RedirectTo: LoginPath}
	}
	if !snap.DataLoaded {
		return Decision{State: GateLoading}
	}
	if !snap.IsApproved() {
		if route == DashboardPendingPath {
			return Decision{State: GatePendingApproval, Allowed: true}
		}
		return Decision{State: GatePendingApproval, RedirectTo: DashboardPendingPath}
	}

	// approved: the assigned role is authoritative, the requested role is not
	canonical := DashboardPath(snap.Role)
	if route == canonical {
		return Decision{State: GateApproved, Allowed: true}
	}
	return Decision{State: GateApproved, RedirectTo: canonical}
}
