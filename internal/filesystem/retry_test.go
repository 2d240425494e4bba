package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

type countingObserver struct {
	attempts, successes, failures, stale int
}

func (c *countingObserver) ObserveRetryAttempt(string, string)           { c.attempts++ }
func (c *countingObserver) ObserveRetrySuccess(string, string)           { c.successes++ }
func (c *countingObserver) ObserveRetryFailure(string, string)           { c.failures++ }
func (c *countingObserver) ObserveRetryDuration(string, string, float64) {}
func (c *countingObserver) ObserveStaleError(string, string)             { c.stale++ }

func fastConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", &fs.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, true},
		{"fmt wrapped ESTALE", fmt.Errorf("open: %w", syscall.ESTALE), true},
		{"ENOENT", syscall.ENOENT, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"media":    "/media",
		"photos":   "/media/photos",
		"database": "/database",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/media/a.jpg", "media"},
		{"/media/photos/2024/b.jpg", "photos"},
		{"/media", "media"},
		{"/mediastuff/c.jpg", "unknown"},
		{"/database/photoview.db", "database"},
		{"/etc/passwd", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	var nilResolver *VolumeResolver
	if got := nilResolver.Resolve("/media/a.jpg"); got != "unknown" {
		t.Errorf("nil resolver returned %q", got)
	}
}

func TestWithRetry(t *testing.T) {
	obs := &countingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	t.Run("Recovers after stale handles", func(t *testing.T) {
		*obs = countingObserver{}
		calls := 0
		got, err := withRetry("open", "/media/x.jpg", fastConfig(), func() (int, error) {
			calls++
			if calls < 3 {
				return 0, syscall.ESTALE
			}
			return 7, nil
		})
		if err != nil || got != 7 {
			t.Fatalf("withRetry = (%d, %v), want (7, nil)", got, err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
		if obs.stale != 2 || obs.attempts != 2 || obs.successes != 1 || obs.failures != 0 {
			t.Errorf("observer = %+v", *obs)
		}
	})

	t.Run("Gives up after MaxRetries", func(t *testing.T) {
		*obs = countingObserver{}
		calls := 0
		_, err := withRetry("stat", "/media/x.jpg", fastConfig(), func() (int, error) {
			calls++
			return 0, syscall.ESTALE
		})
		if !errors.Is(err, syscall.ESTALE) {
			t.Fatalf("err = %v, want ESTALE", err)
		}
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
		if obs.failures != 1 {
			t.Errorf("failures = %d, want 1", obs.failures)
		}
	})

	t.Run("Other errors are not retried", func(t *testing.T) {
		calls := 0
		_, err := withRetry("open", "/media/x.jpg", fastConfig(), func() (int, error) {
			calls++
			return 0, os.ErrPermission
		})
		if !errors.Is(err, os.ErrPermission) || calls != 1 {
			t.Errorf("err = %v after %d calls", err, calls)
		}
	})
}

func TestOpenAndStatWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	f, err := OpenWithRetry(path, fastConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry() error: %v", err)
	}
	f.Close()

	info, err := StatWithRetry(path, fastConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Size() = %d, want 4", info.Size())
	}

	if _, err := OpenWithRetry(filepath.Join(dir, "missing.jpg"), fastConfig()); !os.IsNotExist(err) {
		t.Errorf("OpenWithRetry(missing) error = %v, want not-exist", err)
	}
}
