package sequence

// FileType represents the kind of a file found while building a sequence.
type FileType string

const (
	// FileTypeImage is a still image the decoder can open.
	FileTypeImage FileType = "image"
	// FileTypeVideo is a video; the viewer skips these.
	FileTypeVideo FileType = "video"
	// FileTypeOther is anything else.
	FileTypeOther FileType = "other"
)

// SortField specifies which field a scanned sequence is ordered by.
type SortField string

const (
	// SortByName orders by file name (case-insensitive).
	SortByName SortField = "name"
	// SortByDate orders by modification time, oldest first.
	SortByDate SortField = "date"
	// SortBySize orders by file size, smallest first.
	SortBySize SortField = "size"
)

// ImageExtensions lists the image formats the decoder understands.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions lists video formats that may share a folder with photos.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

// MimeTypes maps image extensions to MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
}

// GetFileType returns the FileType for a lowercase extension including the
// leading dot.
func GetFileType(ext string) FileType {
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for ext, or application/octet-stream.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
