package collection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PhotoRef is the immutable identity of one item in an ordered collection.
// It is owned by the collection provider and never mutated after creation
// within a given ordering; a rescan that reorders items produces new refs.
type PhotoRef struct {
	// ID is a stable unique identity, independent of ordering.
	ID uuid.UUID

	// Locator is the source path or URL handed to the decode capability.
	Locator string

	// Ordinal is the item's position in the current ordering.
	Ordinal int
}

// NewPhotoRefs builds an ordered ref slice from locators, assigning fresh
// ids and ordinals matching slice position.
func NewPhotoRefs(locators []string) []PhotoRef {
	refs := make([]PhotoRef, len(locators))
	for i, loc := range locators {
		refs[i] = PhotoRef{
			ID:      uuid.New(),
			Locator: loc,
			Ordinal: i,
		}
	}
	return refs
}

// Provider supplies the ordered collection to the engine. Enumeration,
// ordering, and permission handling are the provider's concern; the engine
// only consumes the resulting sequence.
type Provider interface {
	// List returns the collection in display order. Ordinals must be dense
	// and match slice positions.
	List(ctx context.Context) ([]PhotoRef, error)

	// Circular reports whether navigation wraps around the ends.
	Circular() bool
}

// StaticProvider serves a fixed, pre-enumerated collection. Hosts that
// already hold an ordered list (or tests) wrap it in one of these.
type StaticProvider struct {
	refs     []PhotoRef
	circular bool
}

// NewStaticProvider validates ordinal density and returns a provider over refs.
func NewStaticProvider(refs []PhotoRef, circular bool) (*StaticProvider, error) {
	for i, ref := range refs {
		if ref.Ordinal != i {
			return nil, fmt.Errorf("ref %s has ordinal %d at position %d", ref.ID, ref.Ordinal, i)
		}
	}
	return &StaticProvider{refs: refs, circular: circular}, nil
}

// List returns the wrapped collection.
func (p *StaticProvider) List(ctx context.Context) ([]PhotoRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]PhotoRef, len(p.refs))
	copy(out, p.refs)
	return out, nil
}

// Circular reports the navigation mode.
func (p *StaticProvider) Circular() bool { return p.circular }

var _ Provider = (*StaticProvider)(nil)
