package registration

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("registration not found")
	ErrAlreadyDecided     = errors.New("registration has already been decided")
	ErrAssignmentNotFound = errors.New("role assignment not found")
)

// registration email templates; selected by whether the requested role is
// auto-approved.
const (
	tmplRegistrationApproved = "registration-approved"
	tmplRegistrationPending  = "registration-pending"
)

type (
	Repository interface {
		CreateRegistration(ctx context.Context, reg Registration) (Registration, error)
		GetRegistrationByID(ctx context.Context, id string) (Registration, error)
		GetRegistrationByUserID(ctx context.Context, userID string) (Registration, error)
		// QueryRegistrations applies AND operation on available QueryFilter fields.
		QueryRegistrations(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Registration, error)
		UpdateRegistration(ctx context.Context, reg Registration) (Registration, error)
		UpsertRoleAssignment(ctx context.Context, ra RoleAssignment) (RoleAssignment, error)
		GetRoleAssignment(ctx context.Context, userID string) (RoleAssignment, error)
	}

	// Account is the result of a successful signup.
	Account struct {
		User         user.User       `json:"user"`
		Profile      profile.Profile `json:"profile"`
		Registration Registration    `json:"registration"`
	}

	ServiceInterface interface {
		SignUp(ctx context.Context, na NewAccount) (Account, error)
		GetByID(ctx context.Context, id string) (Registration, error)
		GetByUserID(ctx context.Context, userID string) (Registration, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Registration, error)
		Approve(ctx context.Context, adminID, id string, data ApproveRegistration) (Registration, error)
		Reject(ctx context.Context, adminID, id string, data RejectRegistration) (Registration, error)
		UpdateNotes(ctx context.Context, id, notes string) (Registration, error)
		GetAssignedRole(ctx context.Context, userID string) (RoleAssignment, error)
	}

	service struct {
		repo      Repository
		usrSvc    user.ServiceInterface
		profSvc   profile.ServiceInterface
		notifSvc  notification.ServiceInterface
		mailSvc   core.EmailService
		auditRepo core.EmailAuditRepository
		logger    core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	repo Repository,
	usrSvc user.ServiceInterface,
	profSvc profile.ServiceInterface,
	notifSvc notification.ServiceInterface,
	mailSvc core.EmailService,
	auditRepo core.EmailAuditRepository,
	logger core.Logger,
) ServiceInterface {
	return &service{
		repo:      repo,
		usrSvc:    usrSvc,
		profSvc:   profSvc,
		notifSvc:  notifSvc,
		mailSvc:   mailSvc,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// SignUp opens a new account: user + profile + pending registration.
// Admin applications are approved on the spot; everything else queues for
// review. A confirmation email goes out either way.
func (svc *service) SignUp(ctx context.Context, na NewAccount) (Account, error) {
	usr, err := svc.usrSvc.Create(ctx, na.NewUser)
	if err != nil {
		return Account{}, errors.Wrap(err, "creating user")
	}

	prof, err := svc.profSvc.Create(ctx, profile.Profile{
		UserID:     usr.ID,
		FirstName:  na.FirstName,
		LastName:   na.LastName,
		Phone:      na.Phone,
		Grade:      na.Grade,
		Department: na.Department,
	})
	if err != nil {
		svc.rollBackUser(ctx, usr.ID)
		return Account{}, errors.Wrap(err, "creating profile")
	}

	now := time.Now().UTC()
	reg, err := svc.repo.CreateRegistration(ctx, Registration{
		UserID:        usr.ID,
		RequestedRole: na.RequestedRole,
		DocumentURLs:  na.DocumentURLs,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		svc.rollBackUser(ctx, usr.ID)
		return Account{}, errors.Wrap(err, "creating registration")
	}

	if na.RequestedRole.AutoApproved() {
		if reg, err = svc.decide(ctx, "", reg, StatusApproved, na.RequestedRole, ""); err != nil {
			return Account{}, errors.Wrap(err, "auto-approving registration")
		}
		if usr, err = svc.usrSvc.GetByID(ctx, usr.ID); err != nil {
			return Account{}, errors.Wrap(err, "reloading user")
		}
	}

	svc.sendRegistrationEmail(ctx, usr, prof, na.RequestedRole)

	return Account{User: usr, Profile: prof, Registration: reg}, nil
}

// rollBackUser removes the user row created by a signup whose later writes
// failed, so the email address stays free for a retry. The writes span
// repositories that may not share a transaction, hence the compensating
// delete.
func (svc *service) rollBackUser(ctx context.Context, userID string) {
	if err := svc.usrSvc.Delete(ctx, userID); err != nil {
		svc.logger.Error(fmt.Sprintf("rolling back user %s after failed signup: %v", userID, err), err)
	}
}

func (svc *service) GetByID(ctx context.Context, id string) (Registration, error) {
	return svc.repo.GetRegistrationByID(ctx, id)
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Registration, error) {
	return svc.repo.GetRegistrationByUserID(ctx, userID)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Registration, error) {
	return svc.repo.QueryRegistrations(ctx, filter, ordering)
}

// Approve grants the given role -- which may differ from the requested one --
// creates the authoritative RoleAssignment and activates the account.
func (svc *service) Approve(ctx context.Context, adminID, id string, data ApproveRegistration) (Registration, error) {
	reg, err := svc.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	if reg.Decided() {
		return Registration{}, ErrAlreadyDecided
	}
	return svc.decide(ctx, adminID, reg, StatusApproved, data.Role, data.Notes)
}

// Reject is terminal: the registration can never transition again, only its
// admin notes may be amended.
func (svc *service) Reject(ctx context.Context, adminID, id string, data RejectRegistration) (Registration, error) {
	reg, err := svc.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	if reg.Decided() {
		return Registration{}, ErrAlreadyDecided
	}
	return svc.decide(ctx, adminID, reg, StatusRejected, "", data.Notes)
}

// UpdateNotes amends the admin notes; allowed at any stage, including after
// the registration has been decided.
func (svc *service) UpdateNotes(ctx context.Context, id, notes string) (Registration, error) {
	reg, err := svc.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	reg.AdminNotes = notes
	reg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRegistration(ctx, reg)
}

func (svc *service) GetAssignedRole(ctx context.Context, userID string) (RoleAssignment, error) {
	return svc.repo.GetRoleAssignment(ctx, userID)
}

func (svc *service) decide(ctx context.Context, adminID string, reg Registration, status Status, role user.Role, notes string) (Registration, error) {
	now := time.Now().UTC()
	reg.Status = status
	reg.AdminNotes = notes
	reg.DecidedBy = adminID
	reg.DecidedAt = now
	reg.UpdatedAt = now

	reg, err := svc.repo.UpdateRegistration(ctx, reg)
	if err != nil {
		return Registration{}, errors.Wrap(err, "updating registration")
	}

	if status == StatusApproved {
		if _, err = svc.repo.UpsertRoleAssignment(ctx, RoleAssignment{
			UserID:     reg.UserID,
			Role:       role,
			AssignedBy: adminID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}); err != nil {
			return Registration{}, errors.Wrap(err, "assigning role")
		}
		if _, err = svc.usrSvc.Activate(ctx, reg.UserID); err != nil {
			return Registration{}, errors.Wrap(err, "activating user")
		}
	}

	svc.notifyDecision(ctx, reg, role)
	return reg, nil
}

// notifyDecision fans the decision out to the user's notification feed.
// Best-effort: a failed notification never fails the decision itself.
func (svc *service) notifyDecision(ctx context.Context, reg Registration, role user.Role) {
	var title, body, link string
	switch reg.Status {
	case StatusApproved:
		title = "Registration approved"
		body = fmt.Sprintf("Your registration has been approved with the %s role.", role)
		link = DashboardPath(&role)
	case StatusRejected:
		title = "Registration rejected"
		body = "Your registration has been reviewed and rejected. Contact the school office for details."
	default:
		return
	}
	if _, err := svc.notifSvc.Notify(ctx, reg.UserID, notification.TypeRegistration, title, body, link); err != nil {
		svc.logger.Error(fmt.Sprintf("notifying registration decision: %v", err), err)
	}
}

// sendRegistrationEmail dispatches the confirmation email and writes one
// audit row. Failures are logged, never surfaced to the caller.
func (svc *service) sendRegistrationEmail(ctx context.Context, usr user.User, prof profile.Profile, requested user.Role) {
	tmpl := tmplRegistrationPending
	subject := "Registration received"
	if requested.AutoApproved() {
		tmpl = tmplRegistrationApproved
		subject = "Welcome aboard"
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: prof.FullName(), Address: usr.Email}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: struct {
			FirstName string
			LastName  string
			Role      string
		}{prof.FirstName, prof.LastName, requested.String()},
	})

	if _, err := svc.auditRepo.CreateEmailAudit(ctx, core.EmailAudit{
		Kind:           core.EmailAuditKindRegistration,
		Subject:        subject,
		RecipientCount: 1,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		svc.logger.Error(fmt.Sprintf("auditing registration email: %v", err), err)
	}
}
