package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/models"
)

// ErrUserNotFound is returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrUserBlocked is returned when an operation is attempted for a blocked user.
var ErrUserBlocked = errors.New("user is blocked")

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetOrCreate retrieves a user by ID. If the user doesn't exist, a new
// store_owner profile on the free plan is created. Returns the user, a
// boolean indicating whether it was created, and an error if any.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error) {
	if s.userRepo == nil {
		return nil, false, errors.New("UserRepository not initialized in UserService")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			newUser := &models.User{
				ID:          userID, // Firebase Auth UID is the document ID
				Email:       email,
				DisplayName: displayName,
				PhotoURL:    photoURL,
				Role:        models.RoleStoreOwner,
				Subscription: models.Subscription{
					Plan: models.PlanFree,
				},
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			}
			if createErr := s.userRepo.Create(ctx, newUser); createErr != nil {
				return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", userID, createErr)
			}
			return newUser, true, nil
		}
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}

	if user == nil {
		return nil, false, fmt.Errorf("repository returned (nil, nil) for user ID '%s'", userID)
	}

	return user, false, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if s.userRepo == nil {
		return nil, errors.New("UserRepository not initialized in UserService")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user with ID '%s' (repository returned nil user and nil error)", ErrUserNotFound, userID)
	}
	return user, nil
}

// RoleOf returns the role stored on the user record. Blocked users report
// ErrUserBlocked so gating middleware can reject them in one lookup.
func (s *userService) RoleOf(ctx context.Context, userID string) (string, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Blocked {
		return "", fmt.Errorf("%w: user '%s'", ErrUserBlocked, userID)
	}
	return user.Role, nil
}
