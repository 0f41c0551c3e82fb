package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbridge/panbridge/internal/pan"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0B"},
		{1, "1B"},
		{1023, "1023B"},
		{1024, "1024B"}, // exactly 1KiB still renders in bytes
		{1025, "1.0KB"},
		{1536, "1.5KB"},
		{10240, "10.0KB"},
		{1048576, "1024.0KB"}, // exactly 1MiB stays in KB
		{1048577, "1.0MB"},
		{5 * 1024 * 1024, "5.0MB"},
		{1073741824, "1024.0MB"}, // exactly 1GiB stays in MB
		{1073741825, "1.0GB"},
		{2761265971, "2.57GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes), "formatSize(%d)", tt.bytes)
	}
}

func TestRoundedSizeKeepsDecimal(t *testing.T) {
	assert.Equal(t, "1.0", roundedSize(1.0))
	assert.Equal(t, "2.0", roundedSize(1.999))
	assert.Equal(t, "1.23", roundedSize(1.2345))
	assert.Equal(t, "1.24", roundedSize(1.235))
}

func TestBuildListingPartitionsAndPreservesOrder(t *testing.T) {
	entries := []pan.Entry{
		file(10, "z.txt", 100),
		folder(1, "b"),
		file(11, "a.txt", 2048),
		folder(2, "a"),
	}

	l := buildListing(entries)

	require.Len(t, l.Folders, 2)
	require.Len(t, l.Files, 2)

	// Backend ordering survives within each group; no sorting.
	assert.Equal(t, FolderEntry{ID: "1", Name: "b"}, l.Folders[0])
	assert.Equal(t, FolderEntry{ID: "2", Name: "a"}, l.Folders[1])
	assert.Equal(t, FileEntry{ID: "10", Name: "z.txt", Size: "100B"}, l.Files[0])
	assert.Equal(t, FileEntry{ID: "11", Name: "a.txt", Size: "2.0KB"}, l.Files[1])
}

func TestBuildListingEmptyMarshalsAsArrays(t *testing.T) {
	data, err := json.Marshal(buildListing(nil))
	require.NoError(t, err)

	assert.JSONEq(t, `{"folder":[],"file":[]}`, string(data))
}
