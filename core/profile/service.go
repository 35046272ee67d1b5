package profile

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("profile not found")

type (
	Repository interface {
		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		GetProfileByUserID(ctx context.Context, userID string) (Profile, error)
		UpdateProfile(ctx context.Context, prof Profile) (Profile, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, prof Profile) (Profile, error)
		GetByUserID(ctx context.Context, userID string) (Profile, error)
		Update(ctx context.Context, orig Profile, up UpdateProfile) (Profile, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, prof Profile) (Profile, error) {
	now := time.Now().UTC()
	prof.CreatedAt = now
	prof.UpdatedAt = now
	return svc.repo.CreateProfile(ctx, prof)
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfileByUserID(ctx, userID)
}

func (svc *service) Update(ctx context.Context, orig Profile, up UpdateProfile) (Profile, error) {
	orig.FirstName = up.FirstName
	orig.LastName = up.LastName
	orig.Phone = up.Phone
	orig.Grade = up.Grade
	orig.Department = up.Department
	if up.AvatarURL != "" {
		orig.AvatarURL = up.AvatarURL
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, orig)
}
