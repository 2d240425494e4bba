package decoder

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"photoview/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsMu        sync.Mutex
	vipsAvailable bool
)

// InitVips starts libvips with conservative memory settings and routes its
// log output through the application logger. Safe to call more than once.
func InitVips() error {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		return nil
	}

	// Configure logging before Startup so LOG_LEVEL applies to start-up noise.
	level := logging.GetLevel()
	vips.LoggingSettings(func(domain string, l vips.LogLevel, msg string) {
		switch l {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLevel(level))

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// vipsLevel maps the application log level to the least severe libvips
// level worth forwarding.
func vipsLevel(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// LoadWithVips decodes path shrunk to fit width x height, auto-oriented. It
// returns the raster and the oriented full size of the source.
func LoadWithVips(path string, width, height int) (image.Image, image.Point, error) {
	if !IsVipsAvailable() {
		return nil, image.Point{}, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	full := image.Pt(ref.Width(), ref.Height())
	logging.Debug("Vips loaded %s: %dx%d, shrinking to fit %dx%d", filepath.Base(path), full.X, full.Y, width, height)

	if err := ref.Thumbnail(width, height, vips.InterestingNone); err != nil {
		return nil, image.Point{}, fmt.Errorf("vips resize failed: %w", err)
	}

	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		StripMetadata:  false,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("failed to decode vips output: %w", err)
	}

	// The loaded size is pre-orientation; follow the oriented raster.
	b := img.Bounds()
	if (b.Dx() > b.Dy()) != (full.X > full.Y) && b.Dx() != b.Dy() {
		full = image.Pt(full.Y, full.X)
	}
	return img, full, nil
}
