// Package window computes the set of collection indices kept resident
// around the current position. All functions are pure; tier selection and
// window computation never touch engine state.
package window

import (
	roaring "github.com/RoaringBitmap/roaring"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/config"
)

// Class is a collection-size step selecting radius and concurrency bounds.
type Class int

const (
	ClassTiny Class = iota // <=100 items, fully resident when radius allows
	ClassSmall
	ClassMedium
	ClassMassive
	ClassExtreme // >50k items, dynamic scaling enabled
)

// String returns the tier's class name.
func (c Class) String() string {
	switch c {
	case ClassTiny:
		return "tiny"
	case ClassSmall:
		return "small"
	case ClassMedium:
		return "medium"
	case ClassMassive:
		return "massive"
	case ClassExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// Tier is the active configuration step: radius, concurrency and budget.
// Selected once per collection load and re-evaluated on collection-size
// changes or under sustained memory pressure.
type Tier struct {
	Class                Class
	Radius               int
	MaxConcurrentDecodes int
	MemoryBudgetBytes    int64

	// DynamicScaling is set for the extreme class; the pressure monitor may
	// shrink such tiers more aggressively.
	DynamicScaling bool
}

// concurrency ceiling per class; the configured cap bounds all of them.
var classConcurrency = map[Class]int{
	ClassTiny:    2,
	ClassSmall:   4,
	ClassMedium:  8,
	ClassMassive: 12,
	ClassExtreme: 16,
}

// Classify maps a collection size onto its tier class.
func Classify(collectionSize int) Class {
	switch {
	case collectionSize <= 100:
		return ClassTiny
	case collectionSize <= 1_000:
		return ClassSmall
	case collectionSize <= 10_000:
		return ClassMedium
	case collectionSize <= 50_000:
		return ClassMassive
	default:
		return ClassExtreme
	}
}

// SelectTier derives the active tier for a collection size from the engine
// configuration.
func SelectTier(collectionSize int, cfg config.EngineConfig) Tier {
	return tierForClass(Classify(collectionSize), collectionSize, cfg)
}

// Shrink steps a tier down one class, reducing radius and concurrency.
// A tiny tier cannot shrink further and is returned unchanged.
func Shrink(t Tier, collectionSize int, cfg config.EngineConfig) Tier {
	if t.Class == ClassTiny {
		return t
	}
	return tierForClass(t.Class-1, collectionSize, cfg)
}

func tierForClass(class Class, size int, cfg config.EngineConfig) Tier {
	return Tier{
		Class:                class,
		Radius:               radiusForClass(class, size, cfg.ConfiguredRadius),
		MaxConcurrentDecodes: clampConcurrency(cfg.MaxConcurrentDecodes, classConcurrency[class]),
		MemoryBudgetBytes:    cfg.MemoryBudgetBytes,
		DynamicScaling:       class == ClassExtreme,
	}
}

func radiusForClass(class Class, size, configured int) int {
	switch class {
	case ClassTiny:
		return min(configured, size)
	case ClassSmall:
		return min(configured, max(25, size/10))
	case ClassMedium:
		return min(configured, max(50, size/50))
	case ClassMassive:
		return max(100, min(configured, size/100))
	default: // extreme
		return max(250, min(configured, size/100))
	}
}

func clampConcurrency(configured, classCeiling int) int {
	n := min(configured, classCeiling)
	if n < 1 {
		n = 1
	}
	if n > 50 {
		n = 50
	}
	return n
}

// Clamp forces an index into [0, collectionSize). A non-positive size
// clamps to 0.
func Clamp(index, collectionSize int) int {
	if collectionSize <= 0 {
		return 0
	}
	if index < 0 {
		return 0
	}
	if index >= collectionSize {
		return collectionSize - 1
	}
	return index
}

// Compute returns the window bitmap: indices within radius of current,
// intersected with [0, collectionSize). A circular collection wraps
// around the ends; otherwise the window clips at the boundaries.
// Always derived from scratch so it cannot drift from the formula.
func Compute(currentIndex, collectionSize, radius int, circular bool) *roaring.Bitmap {
	bm := roaring.New()
	if collectionSize <= 0 || radius < 0 {
		return bm
	}

	current := Clamp(currentIndex, collectionSize)

	if !circular {
		lo := max(0, current-radius)
		hi := min(collectionSize-1, current+radius)
		bm.AddRange(uint64(lo), uint64(hi)+1)
		return bm
	}

	if 2*radius+1 >= collectionSize {
		bm.AddRange(0, uint64(collectionSize))
		return bm
	}
	for d := -radius; d <= radius; d++ {
		idx := ((current+d)%collectionSize + collectionSize) % collectionSize
		bm.Add(uint32(idx))
	}
	return bm
}

// Distance returns how far index is from current, honoring wraparound for
// circular collections. Used as preload priority.
func Distance(index, currentIndex, collectionSize int, circular bool) int {
	d := index - currentIndex
	if d < 0 {
		d = -d
	}
	if circular && collectionSize > 0 && collectionSize-d < d {
		d = collectionSize - d
	}
	return d
}
