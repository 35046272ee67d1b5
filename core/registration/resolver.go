package registration

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/user"
)

// Snapshot is a consistent view of everything needed to gate a signed-in
// user: profile, assigned role and registration record. Absent data is nil,
// not an error. DataLoaded flips only once all three fetches have completed,
// success or failure -- never partially.
type Snapshot struct {
	Profile      *profile.Profile
	Role         *user.Role
	Registration *Registration
	DataLoaded   bool
}

// IsApproved is the single approval formula: an approved registration AND an
// existing role assignment. Recomputed on every call, never cached, so the
// two sources cannot drift. A role assignment without a registration row
// (eg. a manually provisioned account) is NOT approved.
func (s Snapshot) IsApproved() bool {
	return s.Registration != nil && s.Registration.Status == StatusApproved && s.Role != nil
}

// Resolver loads account snapshots. It is best-effort by contract: any
// subset of the three reads may fail without failing the whole resolution.
type Resolver struct {
	repo    Repository
	profSvc profile.ServiceInterface
	logger  core.Logger
}

func NewResolver(repo Repository, profSvc profile.ServiceInterface, logger core.Logger) *Resolver {
	return &Resolver{
		repo:    repo,
		profSvc: profSvc,
		logger:  logger,
	}
}

// FetchUserData issues the three reads concurrently and returns a Snapshot.
// Network failures are logged and leave the field nil; a missing profile
// must not block role resolution, and vice versa.
func (r *Resolver) FetchUserData(ctx context.Context, userID string) Snapshot {
	var snap Snapshot
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		prof, err := r.profSvc.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Cause(err) != profile.ErrNotFound {
				r.logger.Error(fmt.Sprintf("resolving profile for %s: %v", userID, err), err)
			}
			return
		}
		snap.Profile = &prof
	}()

	go func() {
		defer wg.Done()
		ra, err := r.repo.GetRoleAssignment(ctx, userID)
		if err != nil {
			if errors.Cause(err) != ErrAssignmentNotFound {
				r.logger.Error(fmt.Sprintf("resolving role for %s: %v", userID, err), err)
			}
			return
		}
		snap.Role = &ra.Role
	}()

	go func() {
		defer wg.Done()
		reg, err := r.repo.GetRegistrationByUserID(ctx, userID)
		if err != nil {
			if errors.Cause(err) != ErrNotFound {
				r.logger.Error(fmt.Sprintf("resolving registration for %s: %v", userID, err), err)
			}
			return
		}
		snap.Registration = &reg
	}()

	wg.Wait()
	snap.DataLoaded = true

	if snap.Role != nil && snap.Registration == nil {
		// provisioned assignment without a registration row; not approved
		// under the formula, surfaced so operators notice
		r.logger.Warn(fmt.Sprintf("user %s has a role assignment but no registration record", userID))
	}
	return snap
}
