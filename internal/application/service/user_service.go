package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
	"github.com/mkelleher/invoicehub/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// GoogleIdentity is the profile tuple supplied by the login provider.
type GoogleIdentity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// UserService resolves external identities to local user records.
type UserService interface {
	// ResolveGoogleUser finds the user matching the identity's google_id or
	// email and refreshes its profile, or creates a new active user. At most
	// one write per call.
	ResolveGoogleUser(ctx context.Context, identity GoogleIdentity) (*entity.User, error)
}

type userServiceImpl struct {
	userRepo port.UserRepository
	logger   Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, logger Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *userServiceImpl) ResolveGoogleUser(ctx context.Context, identity GoogleIdentity) (*entity.User, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}

	// Two-step lookup: external id first, then email. First match wins.
	user, err := s.lookup(ctx, identity)
	if err != nil {
		return nil, err
	}

	if user != nil {
		user.Email = identity.Email
		user.GoogleID = identity.GoogleID
		user.SetName(identity.Name)
		if identity.Picture != "" {
			user.Picture = identity.Picture
		}

		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user", "error", err, "user_id", user.ID)
			return nil, err
		}

		s.logger.Info("User profile refreshed", "user_id", user.ID, "email", user.Email)
		return user, nil
	}

	username, err := s.deriveUsername(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	user = &entity.User{
		Username: username,
		Email:    identity.Email,
		GoogleID: identity.GoogleID,
		Picture:  identity.Picture,
		IsActive: true,
	}
	user.SetName(identity.Name)

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", "error", err, "email", identity.Email)
		return nil, err
	}

	s.logger.Info("User created", "user_id", user.ID, "username", username, "email", user.Email)
	return user, nil
}

// lookup returns the existing user for the identity, or nil when neither key
// matches.
func (s *userServiceImpl) lookup(ctx context.Context, identity GoogleIdentity) (*entity.User, error) {
	user, err := s.userRepo.GetByGoogleID(ctx, identity.GoogleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	user, err = s.userRepo.GetByEmail(ctx, identity.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	return nil, nil
}

// deriveUsername builds a unique local handle from the email's local part,
// appending an incrementing numeric suffix on collision.
func (s *userServiceImpl) deriveUsername(ctx context.Context, email string) (string, error) {
	base := strings.SplitN(email, "@", 2)[0]
	username := base

	for counter := 1; ; counter++ {
		exists, err := s.userRepo.UsernameExists(ctx, username)
		if err != nil {
			return "", err
		}
		if !exists {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}
}

func validateIdentity(identity GoogleIdentity) error {
	if strings.TrimSpace(identity.GoogleID) == "" {
		return fmt.Errorf("%w: google_id is required", entity.ErrInvalidInput)
	}
	if strings.TrimSpace(identity.Name) == "" {
		return fmt.Errorf("%w: name is required", entity.ErrInvalidInput)
	}
	if err := utils.ValidateEmail(identity.Email); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}
	return nil
}
