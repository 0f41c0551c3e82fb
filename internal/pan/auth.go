package pan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// SignIn authenticates the session and returns the backend's body-level
// status code. A stored token is validated first; only when the backend
// rejects it does the client fall back to passport/password sign-in, which
// replaces the token on success. A non-200 return with a nil error means the
// backend refused the credentials; the caller decides what that means.
func (c *Client) SignIn(ctx context.Context) (int, error) {
	if c.token != "" {
		code, err := c.checkToken(ctx)
		if err == nil && code == http.StatusOK {
			c.logger.Debug("session token still valid")

			return code, nil
		}

		if err != nil && !errors.Is(err, ErrUnauthorized) {
			return 0, err
		}

		c.logger.Info("stored token rejected, signing in with credentials")
	}

	env, err := c.doJSON(ctx, http.MethodPost, "/user/sign_in", signInRequest{
		Passport: c.user,
		Password: c.password,
		Remember: true,
	})
	if err != nil {
		return 0, err
	}

	if env.Code != http.StatusOK {
		return env.Code, nil
	}

	var data signInData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, fmt.Errorf("pan: decoding sign-in data: %w", err)
	}

	if data.Token == "" {
		return 0, fmt.Errorf("pan: sign-in succeeded but no token issued: %w", ErrFailed)
	}

	c.token = data.Token
	c.logger.Info("signed in", slog.String("user", c.user))

	return env.Code, nil
}

// checkToken probes the user-info endpoint with the stored token.
// Returns the body-level code; ErrUnauthorized means the token is stale.
func (c *Client) checkToken(ctx context.Context) (int, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/user/info", nil)
	if err != nil {
		return 0, err
	}

	if env.Code != http.StatusOK {
		return env.Code, &APIError{Code: env.Code, Message: env.Message, Err: classifyCode(env.Code)}
	}

	return env.Code, nil
}
