// Package convert turns downloaded images into something the chosen backend
// can display.
package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/thalesraymond/walland/lib/backend"
	"github.com/thalesraymond/walland/lib/log"
	"github.com/thalesraymond/walland/lib/proc"
)

// ErrConversionFailed is returned when an image could not be turned into a PNG.
var ErrConversionFailed = errors.New("conversion failed")

// Conversion modes
const (
	// Magick shells out to ImageMagick.
	Magick = "magick"
	// Builtin decodes and re-encodes in process.
	Builtin = "builtin"
)

// DefaultImageMagick is the ImageMagick 7 entry point.
const DefaultImageMagick = "magick"

// SupportedExtensions are the formats every backend can display, apart from
// swaybg which rejects webp.
var SupportedExtensions = []string{"png", "jpg", "jpeg", "webp"}

// NeedsConversion reports whether path has to be converted before the named
// backend can display it.
func NeedsConversion(path, backendName string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if backendName == backend.Swaybg && ext == "webp" {
		return true
	}
	for _, e := range SupportedExtensions {
		if ext == e {
			return false
		}
	}
	return true
}

// PNGPath is the sibling of path that a conversion writes to.
func PNGPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
}

// Converter writes PNG copies of images.
type Converter struct {
	Mode        string
	ImageMagick string
	Runner      proc.Runner
}

// ToPNG converts in and returns the path of the PNG written next to it.
func (c *Converter) ToPNG(ctx context.Context, in string) (string, error) {
	out := PNGPath(in)
	if out == in {
		return "", fmt.Errorf("%w: [%s] is already a png", ErrConversionFailed, in)
	}
	log.Debugf("Converting [%s] to PNG", in)

	switch c.Mode {
	case Builtin:
		return out, builtinToPNG(in, out)
	case Magick, "":
		return out, c.magickToPNG(ctx, in, out)
	default:
		return "", fmt.Errorf("%w: unknown converter %q", ErrConversionFailed, c.Mode)
	}
}

func (c *Converter) magickToPNG(ctx context.Context, in, out string) error {
	magick := c.ImageMagick
	if magick == "" {
		magick = DefaultImageMagick
	}

	if _, err := c.Runner.LookPath(magick); err != nil {
		return fmt.Errorf("%w: ImageMagick is not installed: %v", ErrConversionFailed, err)
	}

	res, err := c.Runner.Run(ctx, magick, in, out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	if !res.Success() {
		return fmt.Errorf("%w: %s exited with status %d: %s", ErrConversionFailed, magick, res.ExitCode, res)
	}
	return nil
}

func builtinToPNG(in, out string) error {
	img, err := imaging.Open(in)
	if err != nil {
		return fmt.Errorf("%w: decoding [%s]: %v", ErrConversionFailed, in, err)
	}
	if err := imaging.Save(img, out); err != nil {
		return fmt.Errorf("%w: writing [%s]: %v", ErrConversionFailed, out, err)
	}
	return nil
}

// Info describes a decoded image header.
type Info struct {
	Format string
	Width  int
	Height int
}

func (i Info) String() string {
	return fmt.Sprintf("%s %dx%d", i.Format, i.Width, i.Height)
}

// Inspect reads the header of the image at path. Formats Go cannot decode
// return image.ErrFormat.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	if !fi.Mode().IsRegular() {
		return Info{}, fmt.Errorf("image [%s] is not a regular file", path)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, err
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
