package inmemdb

import (
	"sync"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

type (
	DB struct {
		user           *userTable
		profile        *profileTable
		registration   *registrationTable
		roleAssignment *roleAssignmentTable
		notification   *notificationTable
		announcement   *announcementTable
		emailAudit     *emailAuditTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*profile.Profile // by profile ID
	}

	registrationTable struct {
		sync.RWMutex
		table map[string]*registration.Registration // by registration ID
	}

	roleAssignmentTable struct {
		sync.RWMutex
		table map[string]*registration.RoleAssignment // by user ID
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
		order []string // insertion order for deterministic queries
	}

	announcementTable struct {
		sync.RWMutex
		table map[string]*notification.Announcement
		order []string
	}

	emailAuditTable struct {
		sync.RWMutex
		table map[string]*core.EmailAudit
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:           &userTable{table: make(map[string]*user.User)},
		profile:        &profileTable{table: make(map[string]*profile.Profile)},
		registration:   &registrationTable{table: make(map[string]*registration.Registration)},
		roleAssignment: &roleAssignmentTable{table: make(map[string]*registration.RoleAssignment)},
		notification:   &notificationTable{table: make(map[string]*notification.Notification)},
		announcement:   &announcementTable{table: make(map[string]*notification.Announcement)},
		emailAudit:     &emailAuditTable{table: make(map[string]*core.EmailAudit)},
	}
	return db, nil
}
