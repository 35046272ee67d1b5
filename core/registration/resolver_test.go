package registration_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	testutil "github.com/trezcool/elimu/tests"
)

func resolverSetup(t *testing.T) (registration.Repository, profile.Repository, user.Repository, *testutil.Logger) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("resolverSetup() failed: %v", err)
	}
	return inmemdb.NewRegistrationRepository(db), inmemdb.NewProfileRepository(db), inmemdb.NewUserRepository(db), new(testutil.Logger)
}

func TestResolver_FetchUserData(t *testing.T) {
	ctx := context.Background()

	t.Run("full snapshot", func(t *testing.T) {
		regRepo, profRepo, usrRepo, logger := resolverSetup(t)
		resolver := registration.NewResolver(regRepo, profile.NewService(profRepo), logger)

		usr := testutil.CreateUser(t, usrRepo, "jdoe@test.cd", "", true)
		testutil.CreateProfile(t, profRepo, usr.ID, "Jane", "Doe")
		testutil.CreateRegistration(t, regRepo, usr.ID, user.RoleTeacher, registration.StatusApproved)

		snap := resolver.FetchUserData(ctx, usr.ID)
		if !snap.DataLoaded {
			t.Error("DataLoaded = false; want true")
		}
		if snap.Profile == nil || snap.Profile.FirstName != "Jane" {
			t.Errorf("Profile = %+v; want Jane's", snap.Profile)
		}
		if snap.Role == nil || *snap.Role != user.RoleTeacher {
			t.Errorf("Role = %v; want %s", snap.Role, user.RoleTeacher)
		}
		if snap.Registration == nil || snap.Registration.Status != registration.StatusApproved {
			t.Errorf("Registration = %+v; want approved", snap.Registration)
		}
		if !snap.IsApproved() {
			t.Error("IsApproved() = false; want true")
		}
	})

	t.Run("nothing found is not an error", func(t *testing.T) {
		regRepo, profRepo, _, logger := resolverSetup(t)
		resolver := registration.NewResolver(regRepo, profile.NewService(profRepo), logger)

		snap := resolver.FetchUserData(ctx, "ghost")
		if !snap.DataLoaded {
			t.Error("DataLoaded = false; want true")
		}
		if snap.Profile != nil || snap.Role != nil || snap.Registration != nil {
			t.Errorf("snapshot not empty: %+v", snap)
		}
		if snap.IsApproved() {
			t.Error("IsApproved() = true; want false")
		}
		if len(logger.Messages) != 0 {
			t.Errorf("not-found must not be logged; got %v", logger.Messages)
		}
	})

	t.Run("missing profile does not block role resolution", func(t *testing.T) {
		regRepo, profRepo, usrRepo, logger := resolverSetup(t)
		resolver := registration.NewResolver(regRepo, profile.NewService(profRepo), logger)

		usr := testutil.CreateUser(t, usrRepo, "noprof@test.cd", "", true)
		testutil.CreateRegistration(t, regRepo, usr.ID, user.RoleFinance, registration.StatusApproved)

		snap := resolver.FetchUserData(ctx, usr.ID)
		if snap.Profile != nil {
			t.Errorf("Profile = %+v; want nil", snap.Profile)
		}
		if snap.Role == nil || *snap.Role != user.RoleFinance {
			t.Errorf("Role = %v; want %s", snap.Role, user.RoleFinance)
		}
		if !snap.IsApproved() {
			t.Error("IsApproved() = false; want true")
		}
	})

	t.Run("failing read is logged and leaves field nil", func(t *testing.T) {
		regRepo, profRepo, usrRepo, logger := resolverSetup(t)

		usr := testutil.CreateUser(t, usrRepo, "flaky@test.cd", "", true)
		testutil.CreateProfile(t, profRepo, usr.ID, "Flaky", "Net")
		testutil.CreateRegistration(t, regRepo, usr.ID, user.RoleLearner, registration.StatusApproved)

		failing := &failingAssignmentRepo{Repository: regRepo}
		resolver := registration.NewResolver(failing, profile.NewService(profRepo), logger)

		snap := resolver.FetchUserData(ctx, usr.ID)
		if !snap.DataLoaded {
			t.Error("DataLoaded = false; want true")
		}
		if snap.Role != nil {
			t.Errorf("Role = %v; want nil", snap.Role)
		}
		if snap.Profile == nil || snap.Registration == nil {
			t.Errorf("other fields must still resolve: %+v", snap)
		}
		if snap.IsApproved() {
			t.Error("IsApproved() = true; want false")
		}
		if !logger.Contains("resolving role") {
			t.Errorf("failure not logged; got %v", logger.Messages)
		}
	})

	t.Run("role assignment without registration is flagged", func(t *testing.T) {
		regRepo, profRepo, usrRepo, logger := resolverSetup(t)
		resolver := registration.NewResolver(regRepo, profile.NewService(profRepo), logger)

		usr := testutil.CreateUser(t, usrRepo, "manual@test.cd", "", true)
		if _, err := regRepo.UpsertRoleAssignment(ctx, registration.RoleAssignment{
			UserID: usr.ID,
			Role:   user.RoleLibrarian,
		}); err != nil {
			t.Fatalf("UpsertRoleAssignment() failed: %v", err)
		}

		snap := resolver.FetchUserData(ctx, usr.ID)
		if snap.Role == nil {
			t.Fatal("Role = nil; want librarian")
		}
		if snap.IsApproved() {
			t.Error("IsApproved() = true; want false (no registration row)")
		}
		if !logger.Contains("role assignment but no registration") {
			t.Errorf("divergence not logged; got %v", logger.Messages)
		}
	})
}

// failingAssignmentRepo simulates a role-assignment read outage.
type failingAssignmentRepo struct {
	registration.Repository
}

func (r *failingAssignmentRepo) GetRoleAssignment(context.Context, string) (registration.RoleAssignment, error) {
	return registration.RoleAssignment{}, errors.New("connection refused")
}
