package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photoview/internal/logging"
)

// ScanOptions controls how a folder is turned into a sequence.
type ScanOptions struct {
	Sort       SortField
	Descending bool
	// IncludeHidden keeps dot-files.
	IncludeHidden bool
}

type scannedFile struct {
	path string
	name string
	info os.FileInfo
}

// Scan lists the images directly inside dir (no recursion) and returns them
// as a List ordered per opts.
func Scan(dir string, opts ScanOptions) (*List, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", abs, err)
	}

	files := make([]scannedFile, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!opts.IncludeHidden && strings.HasPrefix(name, ".")) {
			continue
		}
		if GetFileType(strings.ToLower(filepath.Ext(name))) != FileTypeImage {
			skipped++
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logging.Warn("Skipping %s: %v", name, err)
			continue
		}
		files = append(files, scannedFile{path: filepath.Join(abs, name), name: name, info: info})
	}

	sortFiles(files, opts)

	ids := make([]ItemID, len(files))
	for i, f := range files {
		ids[i] = ItemID(f.path)
	}

	logging.Debug("Scanned %s: %d images, %d other files skipped", abs, len(ids), skipped)
	return &List{items: ids}, nil
}

func sortFiles(files []scannedFile, opts ScanOptions) {
	less := func(a, b scannedFile) bool {
		switch opts.Sort {
		case SortByDate:
			if !a.info.ModTime().Equal(b.info.ModTime()) {
				return a.info.ModTime().Before(b.info.ModTime())
			}
		case SortBySize:
			if a.info.Size() != b.info.Size() {
				return a.info.Size() < b.info.Size()
			}
		}
		return strings.ToLower(a.name) < strings.ToLower(b.name)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if opts.Descending {
			return less(files[j], files[i])
		}
		return less(files[i], files[j])
	})
}
