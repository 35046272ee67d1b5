package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
)

// NewConfig returns a test configuration with fast, deterministic defaults.
func NewConfig() *core.Config {
	return &core.Config{
		Debug:                     false,
		TestMode:                  true,
		Env:                       "TEST",
		Build:                     "test",
		AppName:                   "Elimu",
		SecretKey:                 []byte("secret"),
		FrontendBaseURL:           "http://localhost:3000",
		WorkDir:                   core.Getwd(),
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Addr:                      ":8000",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

// Logger is a core.Logger that records messages for assertions.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, fmt.Sprintf("%s: %s", level, msg))
	_ = args
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

// Contains reports whether any recorded message contains the substring.
func (l *Logger) Contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.Messages {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

// CreateUser persists a user through the given repository.
func CreateUser(t *testing.T, repo user.Repository, email, pwd string, isActive bool, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateProfile persists a profile for the given user.
func CreateProfile(t *testing.T, repo profile.Repository, userID, firstName, lastName string) profile.Profile {
	t.Helper()

	now := time.Now().UTC()
	prof, err := repo.CreateProfile(context.Background(), profile.Profile{
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return prof
}

// CreateRegistration persists a registration in the given status. When the
// status is approved, the matching role assignment is created too.
func CreateRegistration(
	t *testing.T,
	repo registration.Repository,
	userID string,
	requested user.Role,
	status registration.Status,
) registration.Registration {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()
	reg := registration.Registration{
		UserID:        userID,
		RequestedRole: requested,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status != registration.StatusPending {
		reg.DecidedAt = now
	}
	reg, err := repo.CreateRegistration(ctx, reg)
	if err != nil {
		t.Fatalf("CreateRegistration() failed: %v", err)
	}

	if status == registration.StatusApproved {
		if _, err = repo.UpsertRoleAssignment(ctx, registration.RoleAssignment{
			UserID:    userID,
			Role:      requested,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("CreateRegistration() failed: %v", err)
		}
	}
	return reg
}
