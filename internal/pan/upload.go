package pan

import (
	"context"
	"crypto/md5" //nolint:gosec // the API identifies file content by MD5 etag
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// Upload duplicate policy: overwrite an existing file of the same name.
const duplicateOverwrite = 2

// Upload sends a local file into the current directory and returns the new
// file's ID. The flow is upload-request, then (unless the backend already
// holds content with the same etag) a raw PUT to the presigned URL, then
// upload-complete. The etag is the MD5 of the file content.
func (c *Client) Upload(ctx context.Context, localPath string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("pan: opening upload file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("pan: stat upload file: %w", err)
	}

	etag, err := fileMD5(f)
	if err != nil {
		return 0, err
	}

	name := filepath.Base(localPath)

	c.logger.Info("upload requested",
		slog.String("name", name),
		slog.Int64("size", info.Size()),
		slog.Int64("parent_id", c.parentFileID),
	)

	var data uploadRequestData

	err = c.call(ctx, http.MethodPost, "/file/upload_request", uploadRequest{
		DriveID:      driveID,
		Etag:         etag,
		FileName:     name,
		ParentFileID: c.parentFileID,
		Size:         info.Size(),
		Type:         0,
		Duplicate:    duplicateOverwrite,
	}, &data)
	if err != nil {
		return 0, err
	}

	// Instant upload: the backend already has this content.
	if data.Reuse {
		c.logger.Info("upload reused existing content", slog.Int64("file_id", data.FileID))

		return data.FileID, nil
	}

	if err := c.putContent(ctx, data.PresignedURL, f, info.Size()); err != nil {
		return 0, err
	}

	err = c.call(ctx, http.MethodPost, "/file/upload_complete", uploadCompleteRequest{
		FileID: data.FileID,
	}, nil)
	if err != nil {
		return 0, err
	}

	c.logger.Info("upload complete", slog.Int64("file_id", data.FileID))

	return data.FileID, nil
}

// putContent streams the file body to the presigned URL. The URL is
// pre-authenticated, so no Authorization header is sent.
func (c *Client) putContent(ctx context.Context, presignedURL string, f *os.File, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("pan: rewinding upload file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, f)
	if err != nil {
		return fmt.Errorf("pan: creating upload request: %w", err)
	}

	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pan: uploading content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = []byte("(failed to read response body)")
		}

		return &APIError{
			Code:    resp.StatusCode,
			Message: string(body),
			Err:     classifyCode(resp.StatusCode),
		}
	}

	return nil
}

// fileMD5 hashes the file content and leaves the offset at the start.
func fileMD5(f *os.File) (string, error) {
	h := md5.New() //nolint:gosec // content etag, not a security boundary

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("pan: hashing upload file: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("pan: rewinding upload file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
