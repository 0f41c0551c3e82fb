package pan

import "encoding/json"

// Entry type discriminator in listing responses. The API uses 1 for folders
// and 0 for files.
const entryTypeFolder = 1

// Entry is one item in a directory listing, mirroring the API's field names.
type Entry struct {
	FileID    int64  `json:"FileId"`
	FileName  string `json:"FileName"`
	Type      int    `json:"Type"`
	Size      int64  `json:"Size"`
	Etag      string `json:"Etag"`
	S3KeyFlag string `json:"S3KeyFlag"`
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.Type == entryTypeFolder
}

// envelope is the body-level response wrapper every endpoint uses.
// Code 200 means success; Data holds the endpoint-specific payload.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type signInRequest struct {
	Passport string `json:"passport"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type signInData struct {
	Token string `json:"token"`
}

type listData struct {
	InfoList []Entry `json:"InfoList"`
	Next     string  `json:"Next"`
}

type downloadInfoRequest struct {
	DriveID   int64  `json:"driveId"`
	Etag      string `json:"etag"`
	FileID    int64  `json:"fileId"`
	FileName  string `json:"fileName"`
	S3KeyFlag string `json:"s3keyFlag"`
	Size      int64  `json:"size"`
}

type downloadInfoData struct {
	DownloadURL string `json:"DownloadUrl"`
}

// uploadRequest doubles as the folder-creation request: folders are created
// with type 1, zero size, and an empty etag.
type uploadRequest struct {
	DriveID      int64  `json:"driveId"`
	Etag         string `json:"etag"`
	FileName     string `json:"fileName"`
	ParentFileID int64  `json:"parentFileId"`
	Size         int64  `json:"size"`
	Type         int    `json:"type"`
	Duplicate    int    `json:"duplicate"`
}

type uploadRequestData struct {
	FileID       int64  `json:"fileId"`
	Reuse        bool   `json:"reuse"`
	PresignedURL string `json:"presignedUrl"`
}

type uploadCompleteRequest struct {
	FileID int64 `json:"fileId"`
}

type trashRequest struct {
	DriveID   int64       `json:"driveId"`
	Operation bool        `json:"operation"`
	Trash     []trashItem `json:"fileTrashInfoList"`
}

type trashItem struct {
	FileID int64 `json:"FileId"`
}

type shareCreateRequest struct {
	DriveID    int64  `json:"driveId"`
	Expiration string `json:"expiration"`
	FileIDList string `json:"fileIdList"`
	SharePwd   string `json:"sharePwd"`
}

type shareCreateData struct {
	ShareURL string `json:"shareUrl"`
}
