package main

import (
	"context"
	"time"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

// approve decides a pending registration from the command line: sets the
// status, grants the role and activates the account.
func (cli *commandLine) approve(id string, role user.Role, notes string) error {
	ctx := context.Background()
	now := time.Now().UTC()

	reg, err := cli.regRepo.GetRegistrationByID(ctx, id)
	if err != nil {
		return err
	}
	if reg.Decided() {
		return registration.ErrAlreadyDecided
	}

	reg.Status = registration.StatusApproved
	reg.AdminNotes = core.CleanString(notes)
	reg.DecidedAt = now
	reg.UpdatedAt = now
	if reg, err = cli.regRepo.UpdateRegistration(ctx, reg); err != nil {
		return err
	}

	if _, err = cli.regRepo.UpsertRoleAssignment(ctx, registration.RoleAssignment{
		UserID: reg.UserID,
		Role:   role,
	}); err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUserByID(ctx, reg.UserID)
	if err != nil {
		return err
	}
	usr.UpdatedAt = now
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
