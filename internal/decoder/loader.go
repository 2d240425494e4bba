package decoder

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"photoview/internal/filesystem"
	"photoview/internal/logging"
	"photoview/internal/sequence"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// VipsMinPixels is the source size above which preview loads go through
// libvips when it is available. Smaller files decode quickly enough with
// imaging that the round trip through libvips is not worth it.
const VipsMinPixels = 4_000_000

// FileLoader decodes files named by their item id.
type FileLoader struct {
	Retry filesystem.RetryConfig
	// Vips enables decode-time shrinking through libvips when initialised.
	Vips bool
}

// NewFileLoader returns a FileLoader with the default NFS retry settings.
func NewFileLoader() *FileLoader {
	return &FileLoader{Retry: filesystem.DefaultRetryConfig(), Vips: true}
}

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context, id sequence.ItemID, size image.Point, angle int) (image.Image, image.Point, error) {
	path := string(id)
	name := filepath.Base(path)

	if l.Vips && IsVipsAvailable() && size.X > 0 && size.Y > 0 {
		if w, h, err := Dimensions(path, l.Retry); err == nil && w*h >= VipsMinPixels {
			img, full, err := l.loadVips(path, size, angle)
			if err == nil {
				return img, full, nil
			}
			logging.Warn("Vips failed for %s, falling back to imaging: %v", name, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, image.Point{}, err
	}

	f, err := filesystem.OpenWithRetry(path, l.Retry)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%w: open %s: %w", ErrDecodeFailed, name, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, image.Point{}, err
	}

	img = Rotate(img, angle)
	full := img.Bounds().Size()
	if size.X > 0 && size.Y > 0 {
		img = imaging.Fit(img, size.X, size.Y, imaging.Lanczos)
	}

	logging.Debug("Decoded %s: full %dx%d, raster %dx%d", name, full.X, full.Y, img.Bounds().Dx(), img.Bounds().Dy())
	return img, full, nil
}

func (l *FileLoader) loadVips(path string, size image.Point, angle int) (image.Image, image.Point, error) {
	target := size
	if quarterTurn(angle) {
		target = image.Pt(size.Y, size.X)
	}
	img, full, err := LoadWithVips(path, target.X, target.Y)
	if err != nil {
		return nil, image.Point{}, err
	}
	img = Rotate(img, angle)
	if quarterTurn(angle) {
		full = image.Pt(full.Y, full.X)
	}
	return img, full, nil
}

// Dimensions reads the stored size of an image without decoding it.
func Dimensions(path string, retry filesystem.RetryConfig) (int, int, error) {
	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// NormalizeAngle maps angle into [0, 360).
func NormalizeAngle(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}

func quarterTurn(angle int) bool {
	a := NormalizeAngle(angle)
	return a == 90 || a == 270
}

// Rotate turns img clockwise by angle degrees. imaging rotates
// counter-clockwise, hence the swapped quarter turns.
func Rotate(img image.Image, angle int) image.Image {
	switch a := NormalizeAngle(angle); a {
	case 0:
		return img
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return imaging.Rotate(img, float64(360-a), color.Black)
	}
}
