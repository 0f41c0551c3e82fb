package pan

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// Folder-creation duplicate policy: rename on collision.
const duplicateRename = 1

// shareNeverExpires is the expiration value for permanent share links.
const shareNeverExpires = "-1"

// ListDir fetches all children of the given directory, following pagination,
// and moves the cursor there. The listing is cached for LinkAt.
func (c *Client) ListDir(ctx context.Context, dirID int64) ([]Entry, error) {
	c.parentFileID = dirID

	var entries []Entry

	next := "0"

	for page := 1; ; page++ {
		data, err := c.listPage(ctx, dirID, next)
		if err != nil {
			return nil, err
		}

		entries = append(entries, data.InfoList...)

		c.logger.Debug("fetched listing page",
			slog.Int64("dir_id", dirID),
			slog.Int("page", page),
			slog.Int("count", len(data.InfoList)),
		)

		if data.Next == "" || data.Next == "-1" {
			break
		}

		next = data.Next
	}

	c.lastList = entries

	return entries, nil
}

// listPage fetches a single page of a directory listing.
func (c *Client) listPage(ctx context.Context, dirID int64, next string) (*listData, error) {
	q := url.Values{}
	q.Set("driveId", strconv.Itoa(driveID))
	q.Set("limit", strconv.Itoa(listPageSize))
	q.Set("next", next)
	q.Set("orderBy", "file_id")
	q.Set("orderDirection", "asc")
	q.Set("parentFileId", strconv.FormatInt(dirID, 10))
	q.Set("trashed", "false")

	var data listData
	if err := c.call(ctx, http.MethodGet, "/file/list/new?"+q.Encode(), nil, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

// LinkAt requests a download link for the entry at the given position in the
// most recently fetched listing. The API keys download requests off listing
// metadata (etag, s3 key flag), which is why links are addressed by position
// rather than by path.
func (c *Client) LinkAt(ctx context.Context, index int) (string, error) {
	if index < 0 || index >= len(c.lastList) {
		return "", fmt.Errorf("pan: listing position %d out of range: %w", index, ErrNotFound)
	}

	e := c.lastList[index]

	var data downloadInfoData

	err := c.call(ctx, http.MethodPost, "/file/download_info", downloadInfoRequest{
		DriveID:   driveID,
		Etag:      e.Etag,
		FileID:    e.FileID,
		FileName:  e.FileName,
		S3KeyFlag: e.S3KeyFlag,
		Size:      e.Size,
	}, &data)
	if err != nil {
		return "", err
	}

	return data.DownloadURL, nil
}

// CreateFolder creates a folder in the current directory and returns its ID.
// Folder creation goes through the upload-request endpoint with type 1.
func (c *Client) CreateFolder(ctx context.Context, name string) (int64, error) {
	c.logger.Info("creating folder",
		slog.Int64("parent_id", c.parentFileID),
		slog.String("name", name),
	)

	var data uploadRequestData

	err := c.call(ctx, http.MethodPost, "/file/upload_request", uploadRequest{
		DriveID:      driveID,
		Etag:         "",
		FileName:     name,
		ParentFileID: c.parentFileID,
		Size:         0,
		Type:         entryTypeFolder,
		Duplicate:    duplicateRename,
	}, &data)
	if err != nil {
		return 0, err
	}

	return data.FileID, nil
}

// Delete moves a file or folder to the trash.
func (c *Client) Delete(ctx context.Context, fileID int64) error {
	c.logger.Info("trashing item", slog.Int64("file_id", fileID))

	return c.call(ctx, http.MethodPost, "/file/trash", trashRequest{
		DriveID:   driveID,
		Operation: true,
		Trash:     []trashItem{{FileID: fileID}},
	}, nil)
}

// Share creates a permanent, passwordless share link for a file and returns
// its URL.
func (c *Client) Share(ctx context.Context, fileID int64) (string, error) {
	c.logger.Info("creating share link", slog.Int64("file_id", fileID))

	var data shareCreateData

	err := c.call(ctx, http.MethodPost, "/share/create", shareCreateRequest{
		DriveID:    driveID,
		Expiration: shareNeverExpires,
		FileIDList: strconv.FormatInt(fileID, 10),
		SharePwd:   "",
	}, &data)
	if err != nil {
		return "", err
	}

	return data.ShareURL, nil
}
