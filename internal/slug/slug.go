// Package slug derives and allocates the URL-safe identifiers that resolve a
// store's public route.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes characters and drops combining marks, so
// "Café" normalizes to "Cafe".
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make normalizes a display name to a URL-safe token: lowercase, diacritics
// stripped, characters outside [a-z0-9 -] removed, whitespace and hyphen runs
// collapsed to single hyphens. Returns "" when nothing survives
// normalization.
func Make(name string) string {
	folded, _, err := transform.String(stripDiacritics, name)
	if err != nil {
		// Transform failures only occur on invalid UTF-8; fall back to the
		// raw input and let the character filter below handle it.
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-':
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), "-")
}

// Lookup reports which store currently holds a slug.
type Lookup interface {
	// StoreIDBySlug returns the ID of the store owning the slug, or "" when
	// the slug is unused.
	StoreIDBySlug(ctx context.Context, slug string) (string, error)
}

// Allocator probes candidate slugs against current store data until an
// unused one is found. Allocation is pure: the caller performs the eventual
// write, so two concurrent allocations can both observe the same free slug.
// Uniqueness is best-effort, not a hard guarantee.
type Allocator struct {
	lookup Lookup
}

// NewAllocator creates an Allocator over the given lookup.
func NewAllocator(lookup Lookup) *Allocator {
	return &Allocator{lookup: lookup}
}

// Allocate derives a slug for name, appending -1, -2, ... while the candidate
// is taken by a store other than excludeID. Passing the store's own ID as
// excludeID lets a rename resolve to its current slug without self-collision.
// Returns "" (no error) when name normalizes to nothing.
func (a *Allocator) Allocate(ctx context.Context, name, excludeID string) (string, error) {
	base := Make(name)
	if base == "" {
		return "", nil
	}

	candidate := base
	for n := 1; ; n++ {
		ownerID, err := a.lookup.StoreIDBySlug(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to probe slug '%s': %w", candidate, err)
		}
		if ownerID == "" || ownerID == excludeID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
