package pan

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDirPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /file/list/new", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("parentFileId"))

		switch r.URL.Query().Get("next") {
		case "0":
			writeEnvelope(t, w, http.StatusOK, listData{
				InfoList: []Entry{
					{FileID: 1, FileName: "docs", Type: 1},
					{FileID: 2, FileName: "a.txt", Type: 0, Size: 10},
				},
				Next: "100",
			})
		case "100":
			writeEnvelope(t, w, http.StatusOK, listData{
				InfoList: []Entry{{FileID: 3, FileName: "b.txt", Type: 0, Size: 20}},
				Next:     "-1",
			})
		default:
			t.Errorf("unexpected next cursor %q", r.URL.Query().Get("next"))
		}
	})

	c := newTestClient(t, mux, "alice", "pw", "tok")

	entries, err := c.ListDir(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "docs", entries[0].FileName)
	assert.Equal(t, "b.txt", entries[2].FileName)
	assert.Equal(t, int64(42), c.Cwd(), "listing must move the cursor")
}

func TestLinkAt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /file/list/new", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusOK, listData{
			InfoList: []Entry{
				{FileID: 7, FileName: "movie.mkv", Type: 0, Size: 99, Etag: "abc", S3KeyFlag: "k"},
			},
			Next: "-1",
		})
	})
	mux.HandleFunc("POST /file/download_info", func(w http.ResponseWriter, r *http.Request) {
		var req downloadInfoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.FileID)
		assert.Equal(t, "abc", req.Etag)

		writeEnvelope(t, w, http.StatusOK, downloadInfoData{DownloadURL: "https://dl.example/movie"})
	})

	c := newTestClient(t, mux, "alice", "pw", "tok")

	_, err := c.ListDir(context.Background(), 0)
	require.NoError(t, err)

	link, err := c.LinkAt(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "https://dl.example/movie", link)
}

func TestLinkAtOutOfRange(t *testing.T) {
	c := newTestClient(t, http.NewServeMux(), "alice", "pw", "tok")

	_, err := c.LinkAt(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFolder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /file/upload_request", func(w http.ResponseWriter, r *http.Request) {
		var req uploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "new-folder", req.FileName)
		assert.Equal(t, entryTypeFolder, req.Type)
		assert.Equal(t, int64(5), req.ParentFileID)

		writeEnvelope(t, w, http.StatusOK, uploadRequestData{FileID: 77})
	})

	c := newTestClient(t, mux, "alice", "pw", "tok")
	c.SetCwd(5)

	id, err := c.CreateFolder(context.Background(), "new-folder")
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
}

func TestDeleteBackendFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /file/trash", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusBadRequest, struct{}{})
	})

	c := newTestClient(t, mux, "alice", "pw", "tok")

	err := c.Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrBadRequest)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
}

func TestShare(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /share/create", func(w http.ResponseWriter, r *http.Request) {
		var req shareCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, strconv.FormatInt(13, 10), req.FileIDList)
		assert.Equal(t, shareNeverExpires, req.Expiration)

		writeEnvelope(t, w, http.StatusOK, shareCreateData{ShareURL: "https://www.123pan.com/s/abc"})
	})

	c := newTestClient(t, mux, "alice", "pw", "tok")

	url, err := c.Share(context.Background(), 13)
	require.NoError(t, err)
	assert.Equal(t, "https://www.123pan.com/s/abc", url)
}

func TestHTTPErrorClassified(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /file/trash", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := newTestClient(t, mux, "alice", "pw", "tok")

	err := c.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, ErrServerError)
}
