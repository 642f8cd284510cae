package slug

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup maps slug -> owning store ID.
type fakeLookup struct {
	owners map[string]string
	err    error
	probes []string
}

func (f *fakeLookup) StoreIDBySlug(_ context.Context, slug string) (string, error) {
	f.probes = append(f.probes, slug)
	if f.err != nil {
		return "", f.err
	}
	return f.owners[slug], nil
}

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "Pizza Palace", want: "pizza-palace"},
		{name: "diacritics stripped", input: "Café Central", want: "cafe-central"},
		{name: "symbols removed", input: "Joe's Diner!", want: "joes-diner"},
		{name: "whitespace collapsed", input: "  Too   Many\tSpaces  ", want: "too-many-spaces"},
		{name: "hyphen runs collapsed", input: "semi--detached -- house", want: "semi-detached-house"},
		{name: "digits kept", input: "Store 24", want: "store-24"},
		{name: "already lowercase", input: "barber", want: "barber"},
		{name: "nothing survives", input: "!!! ***", want: ""},
		{name: "empty input", input: "", want: ""},
	}

	slugPattern := regexp.MustCompile(`^$|^[a-z0-9]+(-[a-z0-9]+)*$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Make(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, slugPattern, got, "slugs must be lowercase hyphen-separated tokens")
		})
	}
}

func TestAllocator_Allocate_FreeSlug(t *testing.T) {
	lookup := &fakeLookup{owners: map[string]string{}}
	allocator := NewAllocator(lookup)

	got, err := allocator.Allocate(context.Background(), "Café Central", "")
	require.NoError(t, err)
	assert.Equal(t, "cafe-central", got)
}

func TestAllocator_Allocate_SequentialProbe(t *testing.T) {
	lookup := &fakeLookup{owners: map[string]string{
		"cafe-central":   "store-a",
		"cafe-central-1": "store-b",
	}}
	allocator := NewAllocator(lookup)

	got, err := allocator.Allocate(context.Background(), "Café Central", "")
	require.NoError(t, err)
	assert.Equal(t, "cafe-central-2", got)
	assert.Equal(t, []string{"cafe-central", "cafe-central-1", "cafe-central-2"}, lookup.probes)
}

func TestAllocator_Allocate_ExcludeSelf(t *testing.T) {
	// A rename that resolves to the store's own current slug must not be
	// treated as a collision.
	lookup := &fakeLookup{owners: map[string]string{"cafe-central": "store-a"}}
	allocator := NewAllocator(lookup)

	got, err := allocator.Allocate(context.Background(), "Café Central", "store-a")
	require.NoError(t, err)
	assert.Equal(t, "cafe-central", got)
}

func TestAllocator_Allocate_EmptyNormalization(t *testing.T) {
	lookup := &fakeLookup{owners: map[string]string{}}
	allocator := NewAllocator(lookup)

	got, err := allocator.Allocate(context.Background(), "***", "")
	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.Empty(t, lookup.probes, "no lookup should happen for an empty base")
}

func TestAllocator_Allocate_LookupError(t *testing.T) {
	probeErr := errors.New("backend unavailable")
	lookup := &fakeLookup{err: probeErr}
	allocator := NewAllocator(lookup)

	_, err := allocator.Allocate(context.Background(), "Cafe", "")
	assert.ErrorIs(t, err, probeErr)
}
