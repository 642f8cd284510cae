package live

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qreta-backend-go/internal/models"
)

// fakeSources implements all three source interfaces and lets tests push
// deliveries by hand, in any interleaving.
type fakeSources struct {
	mu       sync.Mutex
	storeFn  func(*models.Store)
	catsFn   func([]models.Category)
	itemsFn  func([]models.Item)
	cancels  int
	storeErr error
	catsErr  error
	itemsErr error
}

func (f *fakeSources) ListenStore(_ context.Context, _ string, fn func(*models.Store)) (CancelFunc, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	f.mu.Lock()
	f.storeFn = fn
	f.mu.Unlock()
	return f.countCancel(), nil
}

func (f *fakeSources) ListenCategories(_ context.Context, _ string, fn func([]models.Category)) (CancelFunc, error) {
	if f.catsErr != nil {
		return nil, f.catsErr
	}
	f.mu.Lock()
	f.catsFn = fn
	f.mu.Unlock()
	return f.countCancel(), nil
}

func (f *fakeSources) ListenItems(_ context.Context, _ string, fn func([]models.Item)) (CancelFunc, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	f.mu.Lock()
	f.itemsFn = fn
	f.mu.Unlock()
	return f.countCancel(), nil
}

func (f *fakeSources) countCancel() CancelFunc {
	return func() {
		f.mu.Lock()
		f.cancels++
		f.mu.Unlock()
	}
}

func (f *fakeSources) pushStore(store *models.Store)          { f.storeFn(store) }
func (f *fakeSources) pushCategories(cs []models.Category)    { f.catsFn(cs) }
func (f *fakeSources) pushItems(items []models.Item)          { f.itemsFn(items) }
func (f *fakeSources) newAggregator() (*Aggregator, *fakeSources) {
	return NewAggregator(f, f, f), f
}

// snapshotRecorder collects every delivered snapshot.
type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *snapshotRecorder) record(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *snapshotRecorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func TestAggregator_ReadyAfterAllThreeSources(t *testing.T) {
	agg, sources := (&fakeSources{}).newAggregator()
	rec := &snapshotRecorder{}

	cancel, err := agg.Subscribe(context.Background(), "store-1", rec.record)
	require.NoError(t, err)
	defer cancel()

	sources.pushStore(&models.Store{ID: "store-1", Name: "Cafe"})
	sources.pushCategories([]models.Category{{ID: "c1", IsActive: true}})

	// Two of three sources delivered: not ready yet.
	snaps := rec.all()
	require.Len(t, snaps, 2)
	assert.False(t, snaps[1].Ready)

	// Empty is still a valid first delivery; a store with no items must
	// become ready.
	sources.pushItems(nil)
	snaps = rec.all()
	require.Len(t, snaps, 3)
	assert.True(t, snaps[2].Ready)
}

func TestAggregator_ReadyNeverRevertsAndMergesUpdates(t *testing.T) {
	agg, sources := (&fakeSources{}).newAggregator()
	rec := &snapshotRecorder{}

	cancel, err := agg.Subscribe(context.Background(), "store-1", rec.record)
	require.NoError(t, err)
	defer cancel()

	sources.pushItems([]models.Item{{ID: "i1"}})
	sources.pushCategories([]models.Category{{ID: "c1"}})
	sources.pushStore(&models.Store{ID: "store-1"})

	// Later deliveries replace only their own slice and stay ready.
	sources.pushCategories([]models.Category{{ID: "c1"}, {ID: "c2"}})
	snaps := rec.all()
	require.Len(t, snaps, 4)
	last := snaps[3]
	assert.True(t, last.Ready)
	assert.Len(t, last.Categories, 2)
	assert.Len(t, last.Items, 1)
	require.NotNil(t, last.Store)
	assert.Equal(t, "store-1", last.Store.ID)

	assert.False(t, snaps[0].Ready)
	assert.False(t, snaps[1].Ready)
	assert.True(t, snaps[2].Ready, "ready must flip with the third first delivery")
}

func TestAggregator_NoDeliveriesAfterCancel(t *testing.T) {
	agg, sources := (&fakeSources{}).newAggregator()
	rec := &snapshotRecorder{}

	cancel, err := agg.Subscribe(context.Background(), "store-1", rec.record)
	require.NoError(t, err)

	sources.pushStore(&models.Store{ID: "store-1"})
	cancel()
	delivered := len(rec.all())

	// A listener racing with teardown may still invoke the handler; the
	// subscription must swallow it.
	sources.pushCategories([]models.Category{{ID: "late"}})
	sources.pushItems([]models.Item{{ID: "late"}})

	assert.Len(t, rec.all(), delivered)
	assert.Equal(t, 3, sources.cancels, "all three listeners must be released")

	// Cancelling twice is a no-op.
	cancel()
	assert.Equal(t, 3, sources.cancels)
}

func TestAggregator_SubscribeRollsBackOnSourceError(t *testing.T) {
	listenErr := errors.New("listen failed")
	sources := &fakeSources{itemsErr: listenErr}
	agg, _ := sources.newAggregator()

	_, err := agg.Subscribe(context.Background(), "store-1", func(Snapshot) {})
	assert.ErrorIs(t, err, listenErr)
	assert.Equal(t, 2, sources.cancels, "listeners opened before the failure must be released")
}

func TestAggregator_SubscribeValidatesArguments(t *testing.T) {
	agg, _ := (&fakeSources{}).newAggregator()

	_, err := agg.Subscribe(context.Background(), "", func(Snapshot) {})
	assert.Error(t, err)

	_, err = agg.Subscribe(context.Background(), "store-1", nil)
	assert.Error(t, err)
}

func TestSnapshot_PublicView(t *testing.T) {
	snap := Snapshot{
		Store: &models.Store{ID: "store-1"},
		Categories: []models.Category{
			{ID: "c-hidden", Order: 1, IsActive: false},
			{ID: "c-late", Order: 30, IsActive: true},
			{ID: "c-early", Order: 10, IsActive: true},
		},
		Items: []models.Item{
			{ID: "i-hidden", Order: 5, IsActive: false},
			{ID: "i-late", Order: 20, IsActive: true},
			{ID: "i-early", Order: 2, IsActive: true},
		},
		Ready: true,
	}

	public := snap.PublicView()
	require.Len(t, public.Categories, 2)
	assert.Equal(t, "c-early", public.Categories[0].ID)
	assert.Equal(t, "c-late", public.Categories[1].ID)
	require.Len(t, public.Items, 2)
	assert.Equal(t, "i-early", public.Items[0].ID)
	assert.Equal(t, "i-late", public.Items[1].ID)
	assert.True(t, public.Ready)
}

func TestSnapshot_OwnerView(t *testing.T) {
	snap := Snapshot{
		Categories: []models.Category{
			{ID: "c-hidden", Order: 2, IsActive: false},
			{ID: "c-visible", Order: 1, IsActive: true},
		},
		Items: []models.Item{
			{ID: "i-hidden", Order: 9, IsActive: false},
		},
	}

	owner := snap.OwnerView()
	require.Len(t, owner.Categories, 2, "owner view keeps inactive records")
	assert.Equal(t, "c-visible", owner.Categories[0].ID)
	assert.Len(t, owner.Items, 1)

	// The view is a copy; sorting it must not reorder the source snapshot.
	assert.Equal(t, "c-hidden", snap.Categories[0].ID)
}
