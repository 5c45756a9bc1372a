package cache

import (
	"time"

	roaring "github.com/RoaringBitmap/roaring"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/collection"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/decode"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/window"
)

// Entry is a decoded payload held by exactly one cache tier at a time.
// Created on successful decode, moved between tiers or deleted on eviction,
// never duplicated.
type Entry struct {
	Ref        collection.PhotoRef
	Payload    *decode.Payload
	Meta       *decode.Metadata
	Cost       int64
	LastAccess time.Time
}

// NewEntry builds a cache entry for a decoded payload and its metadata.
func NewEntry(ref collection.PhotoRef, payload *decode.Payload, meta *decode.Metadata) *Entry {
	cost := payload.CostBytes
	if cost <= 0 {
		cost = int64(len(payload.Pixels))
	}
	return &Entry{
		Ref:        ref,
		Payload:    payload,
		Meta:       meta,
		Cost:       cost,
		LastAccess: now(),
	}
}

// View is the loader's current position, handed to eviction decisions so
// the primary tier can prefer victims outside the protected window.
type View struct {
	Window       *roaring.Bitmap
	CurrentIndex int
	Size         int
	Circular     bool
}

// now is indirected for deterministic tests.
var now = time.Now

// InWindow reports whether an ordinal is inside the protected window.
func (v View) InWindow(ordinal int) bool {
	if v.Window == nil || ordinal < 0 {
		return false
	}
	return v.Window.Contains(uint32(ordinal))
}

// Distance returns the navigation distance from the current index.
func (v View) Distance(ordinal int) int {
	return window.Distance(ordinal, v.CurrentIndex, v.Size, v.Circular)
}
