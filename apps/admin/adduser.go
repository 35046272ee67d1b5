package main

import (
	"context"
	"time"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

// addUser provisions an active admin account: user, profile, approved
// registration and the admin role assignment.
func (cli *commandLine) addUser(email, name, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.SetActive(true)
		if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return err
		}
	} else {
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.UpdatedAt = now
		active := true
		if usr, err = cli.usrRepo.UpdateUser(ctx, usr, &active); err != nil {
			return err
		}
	}

	if _, err = cli.profRepo.GetProfileByUserID(ctx, usr.ID); err != nil {
		if err != profile.ErrNotFound {
			return err
		}
		if _, err = cli.profRepo.CreateProfile(ctx, profile.Profile{
			UserID:    usr.ID,
			FirstName: name,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
	}

	reg, err := cli.regRepo.GetRegistrationByUserID(ctx, usr.ID)
	if err != nil {
		if err != registration.ErrNotFound {
			return err
		}
		if _, err = cli.regRepo.CreateRegistration(ctx, registration.Registration{
			UserID:        usr.ID,
			RequestedRole: user.RoleAdmin,
			Status:        registration.StatusApproved,
			DecidedAt:     now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}); err != nil {
			return err
		}
	} else if reg.Status != registration.StatusApproved {
		reg.Status = registration.StatusApproved
		reg.DecidedAt = now
		reg.UpdatedAt = now
		if _, err = cli.regRepo.UpdateRegistration(ctx, reg); err != nil {
			return err
		}
	}

	_, err = cli.regRepo.UpsertRoleAssignment(ctx, registration.RoleAssignment{
		UserID: usr.ID,
		Role:   user.RoleAdmin,
	})
	return err
}
