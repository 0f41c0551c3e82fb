package pan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://www.123pan.com/b/api"

const userAgent = "panbridge/0.1"

// driveID selects the account's primary drive. The web API always uses 0.
const driveID = 0

// listPageSize is the page size for listing requests, the maximum the API
// accepts.
const listPageSize = 100

// Client is an HTTP client for the 123pan web API. It carries the account
// credentials, the session token, and the mutable directory cursor: the API
// has no path lookup, and download-link requests reference positions in the
// most recently fetched listing, so the client must remember both the
// current parent ID and that listing.
//
// Client is not safe for concurrent use; callers serialize access.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	user     string
	password string
	token    string

	// Directory cursor.
	parentFileID int64
	lastList     []Entry
}

// New creates a client for the given account. token may be empty or stale;
// SignIn falls back to passport/password authentication when it is rejected.
func New(baseURL string, httpClient *http.Client, user, password, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		user:       user,
		password:   password,
		token:      token,
	}
}

// Credentials returns the account credentials and the current session token.
func (c *Client) Credentials() (user, password, token string) {
	return c.user, c.password, c.token
}

// Cwd returns the current directory cursor.
func (c *Client) Cwd() int64 {
	return c.parentFileID
}

// SetCwd moves the directory cursor without fetching anything.
func (c *Client) SetCwd(dirID int64) {
	c.parentFileID = dirID
}

// doJSON executes a request against the API and decodes the body-level
// envelope. Non-2xx HTTP responses are classified and returned as errors;
// the body-level code is the caller's to interpret.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody any) (*envelope, error) {
	var body io.Reader

	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("pan: marshaling %s request: %w", path, err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("pan: creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Platform", "web")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pan: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		return nil, &APIError{
			Code:    resp.StatusCode,
			Message: string(errBody),
			Err:     classifyCode(resp.StatusCode),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("pan: decoding %s response: %w", path, err)
	}

	c.logger.Debug("api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("code", env.Code),
	)

	return &env, nil
}

// call executes a request and requires a body-level code of 200, decoding
// the data payload into out when it is non-nil. Most endpoints go through
// here; SignIn interprets the code itself.
func (c *Client) call(ctx context.Context, method, path string, reqBody, out any) error {
	env, err := c.doJSON(ctx, method, path, reqBody)
	if err != nil {
		return err
	}

	if env.Code != http.StatusOK {
		return &APIError{Code: env.Code, Message: env.Message, Err: classifyCode(env.Code)}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("pan: decoding %s data: %w", path, err)
		}
	}

	return nil
}
