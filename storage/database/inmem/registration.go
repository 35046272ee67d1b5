package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/registration"
)

type registrationRepository struct {
	db          *registrationTable
	assignments *roleAssignmentTable
}

var _ registration.Repository = (*registrationRepository)(nil) // interface compliance check

func NewRegistrationRepository(db *DB) registration.Repository {
	return &registrationRepository{db: db.registration, assignments: db.roleAssignment}
}

func (repo *registrationRepository) query() []registration.Registration {
	regs := make([]registration.Registration, 0, len(repo.db.table))
	for _, reg := range repo.db.table {
		regs = append(regs, *reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.Before(regs[j].CreatedAt) })
	return regs
}

func (repo *registrationRepository) CreateRegistration(_ context.Context, reg registration.Registration) (registration.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	reg.ID = uuid.New().String()
	repo.db.table[reg.ID] = &reg
	return reg, nil
}

func (repo *registrationRepository) GetRegistrationByID(_ context.Context, id string) (registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if reg, ok := repo.db.table[id]; ok {
		return *reg, nil
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (repo *registrationRepository) GetRegistrationByUserID(_ context.Context, userID string) (registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, reg := range repo.query() {
		if reg.UserID == userID {
			return reg, nil
		}
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (repo *registrationRepository) QueryRegistrations(_ context.Context, filter *registration.QueryFilter, _ []core.DBOrdering) ([]registration.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	regs := repo.query()
	if filter == nil || filter.IsEmpty() {
		return regs, nil
	}

	filtered := make([]registration.Registration, 0, len(regs))
	for _, reg := range regs {
		if filter.Status != "" && reg.Status != filter.Status {
			continue
		}
		if filter.RequestedRole != "" && reg.RequestedRole != filter.RequestedRole {
			continue
		}
		if !filter.CreatedFrom.IsZero() && reg.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && reg.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		filtered = append(filtered, reg)
	}
	return filtered, nil
}

func (repo *registrationRepository) UpdateRegistration(_ context.Context, reg registration.Registration) (registration.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[reg.ID]; !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	repo.db.table[reg.ID] = &reg
	return reg, nil
}

func (repo *registrationRepository) UpsertRoleAssignment(_ context.Context, ra registration.RoleAssignment) (registration.RoleAssignment, error) {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()

	now := time.Now().UTC()
	if orig, ok := repo.assignments.table[ra.UserID]; ok {
		ra.CreatedAt = orig.CreatedAt
	} else if ra.CreatedAt.IsZero() {
		ra.CreatedAt = now
	}
	if ra.UpdatedAt.IsZero() {
		ra.UpdatedAt = now
	}
	repo.assignments.table[ra.UserID] = &ra
	return ra, nil
}

func (repo *registrationRepository) GetRoleAssignment(_ context.Context, userID string) (registration.RoleAssignment, error) {
	repo.assignments.RLock()
	defer repo.assignments.RUnlock()

	if ra, ok := repo.assignments.table[userID]; ok {
		return *ra, nil
	}
	return registration.RoleAssignment{}, registration.ErrAssignmentNotFound
}
