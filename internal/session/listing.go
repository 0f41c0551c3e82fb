package session

import (
	"math"
	"strconv"
	"strings"

	"github.com/panbridge/panbridge/internal/pan"
)

// Size unit thresholds. Strict greater-than comparisons are part of the API
// contract: a file of exactly 1024 bytes renders in bytes, not KB.
const (
	sizeKB = 1024
	sizeMB = 1024 * 1024
	sizeGB = 1024 * 1024 * 1024
)

// FolderEntry is one folder in a formatted listing.
type FolderEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FileEntry is one file in a formatted listing, with a human-readable size.
type FileEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size string `json:"size"`
}

// Listing partitions a raw backend listing into folders and files,
// preserving the backend's ordering within each group.
type Listing struct {
	Folders []FolderEntry `json:"folder"`
	Files   []FileEntry   `json:"file"`
}

// buildListing converts raw entries into a Listing. Both groups are always
// non-nil so they marshal as JSON arrays.
func buildListing(entries []pan.Entry) Listing {
	l := Listing{
		Folders: make([]FolderEntry, 0, len(entries)),
		Files:   make([]FileEntry, 0, len(entries)),
	}

	for _, e := range entries {
		id := strconv.FormatInt(e.FileID, 10)

		if e.IsFolder() {
			l.Folders = append(l.Folders, FolderEntry{ID: id, Name: e.FileName})
		} else {
			l.Files = append(l.Files, FileEntry{ID: id, Name: e.FileName, Size: formatSize(e.Size)})
		}
	}

	return l
}

// formatSize renders a byte count with the largest unit whose threshold the
// count strictly exceeds, rounded to two decimal places ("1.0KB", "2.57GB").
// Byte counts at or below 1024 render as plain bytes ("1023B").
func formatSize(b int64) string {
	switch {
	case b > sizeGB:
		return roundedSize(float64(b)/sizeGB) + "GB"
	case b > sizeMB:
		return roundedSize(float64(b)/sizeMB) + "MB"
	case b > sizeKB:
		return roundedSize(float64(b)/sizeKB) + "KB"
	default:
		return strconv.FormatInt(b, 10) + "B"
	}
}

// roundedSize formats a unit value rounded to two decimals, keeping at least
// one decimal digit ("1.0" rather than "1").
func roundedSize(v float64) string {
	v = math.Round(v*100) / 100

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
