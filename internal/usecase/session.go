package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
)

// SessionUseCase handles rider sign-in and the online gate. A rider polls the
// backlog only while online; logout flips the gate off.
type SessionUseCase struct {
	riders repository.RiderRepository
	hasher pkgAuth.PINHasher
	tokens pkgAuth.Strategy
}

// NewSessionUseCase constructs SessionUseCase.
func NewSessionUseCase(riders repository.RiderRepository, hasher pkgAuth.PINHasher, strategy pkgAuth.Strategy) *SessionUseCase {
	return &SessionUseCase{riders: riders, hasher: hasher, tokens: strategy}
}

// RegisterRider creates a rider account with a hashed PIN.
func (u *SessionUseCase) RegisterRider(ctx context.Context, name, phone, pin string) (*model.Rider, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" || !ValidatePIN(pin) {
		return nil, domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(pin)
	if err != nil {
		return nil, err
	}
	return u.riders.Create(ctx, name, phone, hash)
}

// Login validates phone/PIN, marks the rider online and returns a device
// token carrying the rider role.
func (u *SessionUseCase) Login(ctx context.Context, phone, pin string) (*model.Rider, string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || pin == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	rider, err := u.riders.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(rider.PINHash, pin); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	if err := u.riders.SetOnline(ctx, rider.ID, true); err != nil {
		return nil, "", err
	}
	rider.Online = true

	token, err := u.tokens.IssueToken(rider.ID, pkgAuth.RoleRider)
	if err != nil {
		return nil, "", err
	}
	return rider, token, nil
}

// Logout flips the online gate off. Safe to repeat.
func (u *SessionUseCase) Logout(ctx context.Context, riderID int64) error {
	err := u.riders.SetOnline(ctx, riderID, false)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil
	}
	return err
}

// ParseToken extracts actor ID and role from a device token.
func (u *SessionUseCase) ParseToken(token string) (int64, pkgAuth.Role, error) {
	if token == "" {
		return 0, "", pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

// IssueDispatcherToken mints a console token for the dispatcher role. The
// operator hands it to the console out of band.
func (u *SessionUseCase) IssueDispatcherToken(consoleID int64) (string, error) {
	return u.tokens.IssueToken(consoleID, pkgAuth.RoleDispatcher)
}

// GetRider fetches a rider by identifier.
func (u *SessionUseCase) GetRider(ctx context.Context, id int64) (*model.Rider, error) {
	return u.riders.GetByID(ctx, id)
}
