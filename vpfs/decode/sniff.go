package decode

import (
	"fmt"
	"image"
	"os"

	// Registered for image.DecodeConfig header parsing only; pixel decoding
	// stays behind the Decoder interface.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	exiflib "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// SniffMetadata reads only the image header and EXIF block of the file at
// path, returning dimensions and a flat tag map without decoding pixels.
// Used to estimate cache cost before scheduling a full decode.
func SniffMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, &Failure{Locator: path, Reason: err}
	}

	return &Metadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		EXIF:   ExtractEXIF(path),
	}, nil
}

// ExtractEXIF returns a flat map of EXIF tag names to their string values.
// On any error (non-image, missing EXIF, read failure) it returns nil.
func ExtractEXIF(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exiflib.Decode(f)
	if err != nil {
		return nil
	}
	out := make(map[string]string)
	_ = x.Walk(exifWalker{m: out})
	if len(out) == 0 {
		return nil
	}
	return out
}

type exifWalker struct{ m map[string]string }

func (w exifWalker) Walk(name exiflib.FieldName, tag *tiff.Tag) error {
	w.m[string(name)] = tag.String()
	return nil
}
