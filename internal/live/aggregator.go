package live

import (
	"context"
	"errors"
	"sort"
	"sync"

	"qreta-backend-go/internal/models"
)

// Snapshot is the merged catalog view for one store. Ready flips to true
// exactly once per subscription, after all three sources have delivered an
// initial result, and never flips back. Until then the slices may be partial.
//
// No atomicity is guaranteed across the three sources: an item may
// transiently reference a category that has not arrived yet. That resolves
// on the next categories delivery.
type Snapshot struct {
	Store      *models.Store
	Categories []models.Category
	Items      []models.Item
	Ready      bool
}

// PublicView returns the snapshot filtered for read-only public presentation:
// only active categories and items, sorted ascending by manual order.
func (s Snapshot) PublicView() Snapshot {
	out := Snapshot{Store: s.Store, Ready: s.Ready}
	for _, c := range s.Categories {
		if c.IsActive {
			out.Categories = append(out.Categories, c)
		}
	}
	for _, i := range s.Items {
		if i.IsActive {
			out.Items = append(out.Items, i)
		}
	}
	sortByOrder(out.Categories, out.Items)
	return out
}

// OwnerView returns the snapshot for the owner-editing context: inactive
// records included so owners can see and toggle hidden entries, still sorted
// by manual order.
func (s Snapshot) OwnerView() Snapshot {
	out := Snapshot{
		Store:      s.Store,
		Categories: append([]models.Category(nil), s.Categories...),
		Items:      append([]models.Item(nil), s.Items...),
		Ready:      s.Ready,
	}
	sortByOrder(out.Categories, out.Items)
	return out
}

func sortByOrder(categories []models.Category, items []models.Item) {
	sort.SliceStable(categories, func(a, b int) bool { return categories[a].Order < categories[b].Order })
	sort.SliceStable(items, func(a, b int) bool { return items[a].Order < items[b].Order })
}

// Aggregator merges three independently-changing sources (store metadata,
// categories, items) scoped to one store into a single consistent stream.
type Aggregator struct {
	stores StoreSource
	cats   CategorySource
	items  ItemSource
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(stores StoreSource, cats CategorySource, items ItemSource) *Aggregator {
	return &Aggregator{stores: stores, cats: cats, items: items}
}

// subscription tracks per-subscription merge state. Handlers from the three
// sources run on independent goroutines in any interleaving; the mutex
// serializes them and guarantees fn sees snapshots in a consistent order.
type subscription struct {
	mu       sync.Mutex
	fn       func(Snapshot)
	snap     Snapshot
	gotStore bool
	gotCats  bool
	gotItems bool
	closed   bool
	cancels  []CancelFunc
}

func (s *subscription) deliver(apply func(*subscription)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	apply(s)
	s.snap.Ready = s.gotStore && s.gotCats && s.gotItems
	s.fn(s.snap)
}

// cancel marks the subscription closed before releasing the underlying
// listeners, so no handler invocation can slip out after it returns.
func (s *subscription) cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}

// Subscribe opens the three underlying listeners for storeID and invokes fn
// with a merged snapshot on every delivery from any of them. fn must not
// block: it runs serialized with further deliveries.
//
// The returned CancelFunc releases all three listeners; after it returns, fn
// is never invoked again. Subscribing to a different store requires a fresh
// Subscribe call (and cancelling the old one first to avoid leaked listeners).
func (a *Aggregator) Subscribe(ctx context.Context, storeID string, fn func(Snapshot)) (CancelFunc, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for Subscribe")
	}
	if fn == nil {
		return nil, errors.New("fn cannot be nil for Subscribe")
	}

	sub := &subscription{fn: fn}

	storeCancel, err := a.stores.ListenStore(ctx, storeID, func(store *models.Store) {
		sub.deliver(func(s *subscription) {
			s.snap.Store = store
			s.gotStore = true
		})
	})
	if err != nil {
		return nil, err
	}
	sub.cancels = append(sub.cancels, storeCancel)

	catsCancel, err := a.cats.ListenCategories(ctx, storeID, func(categories []models.Category) {
		sub.deliver(func(s *subscription) {
			s.snap.Categories = categories
			s.gotCats = true
		})
	})
	if err != nil {
		sub.cancel()
		return nil, err
	}
	sub.cancels = append(sub.cancels, catsCancel)

	itemsCancel, err := a.items.ListenItems(ctx, storeID, func(items []models.Item) {
		sub.deliver(func(s *subscription) {
			s.snap.Items = items
			s.gotItems = true
		})
	})
	if err != nil {
		sub.cancel()
		return nil, err
	}
	sub.cancels = append(sub.cancels, itemsCancel)

	return sub.cancel, nil
}
