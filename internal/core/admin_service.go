package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/models"
)

// adminService implements the AdminService interface. All operations here
// are role-gated to superadmin by the route middleware.
type adminService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(userRepo db.UserRepository, logger *zap.Logger) AdminService {
	return &adminService{userRepo: userRepo, logger: logger}
}

// ListUsers returns users for the back-office, newest first.
func (s *adminService) ListUsers(ctx context.Context, paginationParams map[string]string) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx, paginationParams)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// OverrideSubscription overwrites a user's subscription snapshot. This is
// the human-driven second writer besides the webhook; the change is logged
// since it bypasses Stripe's authoritative state.
func (s *adminService) OverrideSubscription(ctx context.Context, targetUserID string, req models.OverrideSubscriptionRequest) (*models.User, error) {
	user, err := s.getUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	previousPlan := user.Subscription.Plan
	user.Subscription.Plan = models.Plan(req.Plan)
	if req.Status != "" {
		user.Subscription.Status = req.Status
	}
	if req.RenewalAt != nil {
		user.Subscription.RenewalAt = *req.RenewalAt // Epoch seconds
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to persist subscription override for user '%s': %w", targetUserID, err)
	}

	s.logger.Info("Admin subscription override",
		zap.String("userId", targetUserID),
		zap.String("previousPlan", string(previousPlan)),
		zap.String("plan", req.Plan),
		zap.String("status", req.Status),
	)
	return user, nil
}

// SetBlocked toggles the block flag on a user record.
func (s *adminService) SetBlocked(ctx context.Context, targetUserID string, blocked bool) (*models.User, error) {
	user, err := s.getUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	user.Blocked = blocked
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to persist block flag for user '%s': %w", targetUserID, err)
	}

	s.logger.Info("Admin block flag changed",
		zap.String("userId", targetUserID), zap.Bool("blocked", blocked))
	return user, nil
}

func (s *adminService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return user, nil
}
