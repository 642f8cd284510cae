package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qreta-backend-go/internal/models"
)

func TestUserService_GetOrCreate(t *testing.T) {
	repo := newFakeUserRepo()
	service := NewUserService(repo)

	user, created, err := service.GetOrCreate(context.Background(), "uid-1", "a@b.c", "Alex", "https://example.com/p.png")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleStoreOwner, user.Role)
	assert.Equal(t, models.PlanFree, user.Subscription.Plan)
	assert.Equal(t, "a@b.c", user.Email)

	// A second call returns the stored profile untouched.
	again, created, err := service.GetOrCreate(context.Background(), "uid-1", "other@b.c", "Someone", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a@b.c", again.Email)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	service := NewUserService(newFakeUserRepo())

	_, err := service.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_RoleOf(t *testing.T) {
	repo := newFakeUserRepo(
		&models.User{ID: "owner", Role: models.RoleStoreOwner},
		&models.User{ID: "admin", Role: models.RoleSuperadmin},
		&models.User{ID: "banned", Role: models.RoleStoreOwner, Blocked: true},
	)
	service := NewUserService(repo)

	role, err := service.RoleOf(context.Background(), "owner")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStoreOwner, role)

	role, err = service.RoleOf(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, role)

	_, err = service.RoleOf(context.Background(), "banned")
	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestAdminService_OverrideSubscription(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "user-1", Role: models.RoleStoreOwner})
	service := NewAdminService(repo, zap.NewNop())

	renewal := int64(1735689600)
	user, err := service.OverrideSubscription(context.Background(), "user-1", models.OverrideSubscriptionRequest{
		Plan:      "pro",
		Status:    models.SubscriptionStatusActive,
		RenewalAt: &renewal,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, user.Subscription.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, user.Subscription.Status)
	assert.EqualValues(t, renewal, user.Subscription.RenewalAt)

	// Status and renewal are optional; omitting them keeps current values.
	user, err = service.OverrideSubscription(context.Background(), "user-1", models.OverrideSubscriptionRequest{Plan: "free"})
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, user.Subscription.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, user.Subscription.Status)

	_, err = service.OverrideSubscription(context.Background(), "ghost", models.OverrideSubscriptionRequest{Plan: "free"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminService_SetBlocked(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "user-1", Role: models.RoleStoreOwner})
	service := NewAdminService(repo, zap.NewNop())

	user, err := service.SetBlocked(context.Background(), "user-1", true)
	require.NoError(t, err)
	assert.True(t, user.Blocked)
	assert.True(t, repo.users["user-1"].Blocked)

	user, err = service.SetBlocked(context.Background(), "user-1", false)
	require.NoError(t, err)
	assert.False(t, user.Blocked)
}
