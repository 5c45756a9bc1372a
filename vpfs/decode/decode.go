// Package decode defines the opaque decode capability the engine consumes.
// Pixel decoding itself is supplied by the host; this package carries the
// payload/metadata model and header-level sniffing used for cost estimates.
package decode

import (
	"context"
	"errors"
	"fmt"
)

// ErrTimeout marks a decode that exceeded the configured ceiling. It is
// treated identically to a decode failure by the engine.
var ErrTimeout = errors.New("decode timeout exceeded")

// Failure wraps the underlying reason a locator could not be decoded.
type Failure struct {
	Locator string
	Reason  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("decode failed for %s: %v", f.Locator, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Reason }

// Payload is a decoded image. The engine treats the pixel bytes as opaque
// and only reads CostBytes for budget accounting.
type Payload struct {
	Pixels    []byte
	Width     int
	Height    int
	CostBytes int64
}

// Metadata describes a decoded (or sniffed) image without its pixels.
type Metadata struct {
	Width  int
	Height int
	EXIF   map[string]string
}

// Decoder is the injected decode capability. Implementations must honor
// ctx cancellation; a cancelled decode should abandon work and return
// ctx.Err() rather than completing.
type Decoder interface {
	Decode(ctx context.Context, locator string) (*Payload, *Metadata, error)
}

// EstimateCost approximates the in-memory footprint of a decoded image
// at 4 bytes per pixel (RGBA).
func EstimateCost(width, height int) int64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return int64(width) * int64(height) * 4
}
