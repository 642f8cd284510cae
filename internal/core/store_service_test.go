package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/models"
	"qreta-backend-go/internal/slug"
)

// fakeStoreRepo is an in-memory db.StoreRepository.
type fakeStoreRepo struct {
	stores map[string]*models.Store
	nextID int
}

func newFakeStoreRepo(stores ...*models.Store) *fakeStoreRepo {
	repo := &fakeStoreRepo{stores: map[string]*models.Store{}}
	for _, s := range stores {
		repo.stores[s.ID] = s
	}
	return repo
}

func (f *fakeStoreRepo) Create(_ context.Context, store *models.Store) (string, error) {
	f.nextID++
	id := fmt.Sprintf("store-%d", f.nextID)
	copied := *store
	copied.ID = id
	f.stores[id] = &copied
	return id, nil
}

func (f *fakeStoreRepo) GetByID(_ context.Context, storeID string) (*models.Store, error) {
	store, ok := f.stores[storeID]
	if !ok {
		return nil, fmt.Errorf("store '%s': %w", storeID, db.ErrNotFound)
	}
	copied := *store
	return &copied, nil
}

func (f *fakeStoreRepo) GetBySlug(_ context.Context, storeSlug string) (*models.Store, error) {
	for _, s := range f.stores {
		if s.Slug == storeSlug {
			copied := *s
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("slug '%s': %w", storeSlug, db.ErrNotFound)
}

func (f *fakeStoreRepo) StoreIDBySlug(ctx context.Context, storeSlug string) (string, error) {
	store, err := f.GetBySlug(ctx, storeSlug)
	if err != nil {
		return "", nil
	}
	return store.ID, nil
}

func (f *fakeStoreRepo) GetByUserID(_ context.Context, userID string) ([]*models.Store, error) {
	var out []*models.Store
	for _, s := range f.stores {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) Update(_ context.Context, store *models.Store) error {
	copied := *store
	f.stores[store.ID] = &copied
	return nil
}

func (f *fakeStoreRepo) Delete(_ context.Context, storeID string) error {
	delete(f.stores, storeID)
	return nil
}

func (f *fakeStoreRepo) CountByUserID(_ context.Context, userID string) (int, error) {
	count := 0
	for _, s := range f.stores {
		if s.UserID == userID {
			count++
		}
	}
	return count, nil
}

func newStoreTestService(userRepo *fakeUserRepo, storeRepo *fakeStoreRepo) StoreService {
	return NewStoreService(storeRepo, nil, nil, userRepo, slug.NewAllocator(storeRepo), nil, zap.NewNop())
}

func starterUser(id string) *models.User {
	return &models.User{
		ID: id,
		Subscription: models.Subscription{
			Plan:   models.PlanStarter,
			Status: models.SubscriptionStatusActive,
		},
	}
}

func TestCheckStoreQuota(t *testing.T) {
	tests := []struct {
		name    string
		plan    models.Plan
		count   int
		wantErr bool
	}{
		{name: "free plan first store", plan: models.PlanFree, count: 0, wantErr: false},
		{name: "free plan at cap", plan: models.PlanFree, count: 1, wantErr: true},
		{name: "starter below cap", plan: models.PlanStarter, count: 2, wantErr: false},
		{name: "starter at cap", plan: models.PlanStarter, count: 3, wantErr: true},
		{name: "pro is unlimited", plan: models.PlanPro, count: 250, wantErr: false},
		{name: "unknown plan treated as free", plan: models.Plan("legacy"), count: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStoreQuota(tt.plan, tt.count)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStoreLimitReached)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreService_CreateStore(t *testing.T) {
	userRepo := newFakeUserRepo(starterUser("user-1"))
	storeRepo := newFakeStoreRepo()
	service := newStoreTestService(userRepo, storeRepo)

	store, err := service.CreateStore(context.Background(), "user-1", models.CreateStoreRequest{Name: "Café Central"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-central", store.Slug)
	assert.True(t, store.IsActive, "new stores start active")
	assert.Equal(t, "user-1", store.UserID)
	assert.NotEmpty(t, store.ID)
}

func TestStoreService_CreateStore_SlugCollision(t *testing.T) {
	userRepo := newFakeUserRepo(starterUser("user-1"))
	storeRepo := newFakeStoreRepo(&models.Store{ID: "existing", UserID: "user-2", Name: "Café Central", Slug: "cafe-central"})
	service := newStoreTestService(userRepo, storeRepo)

	store, err := service.CreateStore(context.Background(), "user-1", models.CreateStoreRequest{Name: "Café Central"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-central-1", store.Slug)
}

func TestStoreService_CreateStore_QuotaRefused(t *testing.T) {
	userRepo := newFakeUserRepo(starterUser("user-1"))
	storeRepo := newFakeStoreRepo(
		&models.Store{ID: "s1", UserID: "user-1", Slug: "one"},
		&models.Store{ID: "s2", UserID: "user-1", Slug: "two"},
		&models.Store{ID: "s3", UserID: "user-1", Slug: "three"},
	)
	service := newStoreTestService(userRepo, storeRepo)

	_, err := service.CreateStore(context.Background(), "user-1", models.CreateStoreRequest{Name: "Fourth"})
	require.ErrorIs(t, err, ErrStoreLimitReached)
	// The refusal names the plan and its cap so the client can render an
	// upgrade prompt.
	assert.Contains(t, err.Error(), "starter")
	assert.Contains(t, err.Error(), "3")
}

func TestStoreService_CreateStore_InvalidName(t *testing.T) {
	userRepo := newFakeUserRepo(starterUser("user-1"))
	service := newStoreTestService(userRepo, newFakeStoreRepo())

	_, err := service.CreateStore(context.Background(), "user-1", models.CreateStoreRequest{Name: "!!!"})
	assert.ErrorIs(t, err, ErrInvalidStoreName)
}

func TestStoreService_UpdateStore_RenameKeepsOwnSlug(t *testing.T) {
	userRepo := newFakeUserRepo(starterUser("user-1"))
	storeRepo := newFakeStoreRepo(&models.Store{ID: "s1", UserID: "user-1", Name: "Café Central", Slug: "cafe-central"})
	service := newStoreTestService(userRepo, storeRepo)

	// Renaming to a name that derives the current slug must not append -1.
	name := "CAFE central"
	store, err := service.UpdateStore(context.Background(), "user-1", "s1", models.UpdateStoreRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "cafe-central", store.Slug)
	assert.Equal(t, "CAFE central", store.Name)
}

func TestStoreService_UpdateStore_ManualSlug(t *testing.T) {
	userRepo := newFakeUserRepo(starterUser("user-1"))
	storeRepo := newFakeStoreRepo(&models.Store{ID: "s1", UserID: "user-1", Name: "Café Central", Slug: "cafe-central"})
	service := newStoreTestService(userRepo, storeRepo)

	manual := "My Custom Slug"
	store, err := service.UpdateStore(context.Background(), "user-1", "s1", models.UpdateStoreRequest{Slug: &manual})
	require.NoError(t, err)
	assert.Equal(t, "my-custom-slug", store.Slug)
}

func TestStoreService_OwnershipEnforced(t *testing.T) {
	userRepo := newFakeUserRepo(starterUser("user-1"), starterUser("intruder"))
	storeRepo := newFakeStoreRepo(&models.Store{ID: "s1", UserID: "user-1", Slug: "cafe-central"})
	service := newStoreTestService(userRepo, storeRepo)

	_, err := service.GetStoreByID(context.Background(), "intruder", "s1")
	assert.ErrorIs(t, err, ErrForbiddenAccess)

	_, err = service.GetStoreByID(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, ErrStoreNotFound)

	err = service.DeleteStore(context.Background(), "intruder", "s1")
	assert.ErrorIs(t, err, ErrForbiddenAccess)
}
