package slug

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debounceTestDelay = 20 * time.Millisecond

func waitForSlug(t *testing.T, results chan string) string {
	t.Helper()
	select {
	case got := <-results:
		return got
	case <-time.After(20 * debounceTestDelay):
		t.Fatal("timed out waiting for a debounced allocation")
		return ""
	}
}

func assertNoSlug(t *testing.T, results chan string) {
	t.Helper()
	select {
	case got := <-results:
		t.Fatalf("unexpected allocation delivered: %q", got)
	case <-time.After(5 * debounceTestDelay):
	}
}

func TestDebouncer_FiresAfterQuietPeriod(t *testing.T) {
	debouncer := NewDebouncer(NewAllocator(&fakeLookup{owners: map[string]string{}}), debounceTestDelay)
	results := make(chan string, 1)

	debouncer.NameChanged(context.Background(), "Café Central", "", func(s string, err error) {
		require.NoError(t, err)
		results <- s
	})

	assert.Equal(t, "cafe-central", waitForSlug(t, results))
}

func TestDebouncer_ResetsOnNewInput(t *testing.T) {
	lookup := &fakeLookup{owners: map[string]string{}}
	debouncer := NewDebouncer(NewAllocator(lookup), debounceTestDelay)
	results := make(chan string, 2)
	collect := func(s string, err error) {
		require.NoError(t, err)
		results <- s
	}

	// Each keystroke resets the timer; only the final name should allocate.
	debouncer.NameChanged(context.Background(), "P", "", collect)
	debouncer.NameChanged(context.Background(), "Pi", "", collect)
	debouncer.NameChanged(context.Background(), "Pizza Palace", "", collect)

	assert.Equal(t, "pizza-palace", waitForSlug(t, results))
	assertNoSlug(t, results)
	assert.Equal(t, []string{"pizza-palace"}, lookup.probes)
}

func TestDebouncer_OverrideLatchesPermanently(t *testing.T) {
	debouncer := NewDebouncer(NewAllocator(&fakeLookup{owners: map[string]string{}}), debounceTestDelay)
	results := make(chan string, 1)
	collect := func(s string, err error) {
		require.NoError(t, err)
		results <- s
	}

	debouncer.NameChanged(context.Background(), "Pizza Palace", "", collect)
	debouncer.Override()
	assertNoSlug(t, results)

	// The latch outlives the pending timer: later edits never re-derive.
	debouncer.NameChanged(context.Background(), "New Name", "", collect)
	assertNoSlug(t, results)
}

func TestDebouncer_StopDoesNotLatch(t *testing.T) {
	debouncer := NewDebouncer(NewAllocator(&fakeLookup{owners: map[string]string{}}), debounceTestDelay)
	results := make(chan string, 1)
	collect := func(s string, err error) {
		require.NoError(t, err)
		results <- s
	}

	debouncer.NameChanged(context.Background(), "Pizza Palace", "", collect)
	debouncer.Stop()
	assertNoSlug(t, results)

	debouncer.NameChanged(context.Background(), "Pizza Palace", "", collect)
	assert.Equal(t, "pizza-palace", waitForSlug(t, results))
}
