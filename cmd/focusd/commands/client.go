package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

const clientTimeout = 15 * time.Second

// apiClient talks to the daemon's admin API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(root *CLI) *apiClient {
	base := root.Addr
	if base == "" {
		base = loadConfigOrDefault(root.Config).AdminAddr()
	}
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: clientTimeout},
	}
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *apiClient) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return ferrors.InternalError("failed to encode request").WithCause(err).Build()
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return ferrors.ValidationError("invalid daemon address").WithCause(err).WithContext("addr", c.base).Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ferrors.DaemonError("focusd daemon is not reachable; is it running?").
			WithCause(err).
			WithContext("addr", c.base).
			UserAction().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr ferrors.HTTPErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		category := ferrors.CategoryDaemon
		if apiErr.Code != "" {
			category = ferrors.ErrorCategory(apiErr.Code)
		}
		return ferrors.NewError(category, apiErr.Error).WithContext("status", resp.StatusCode).Build()
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ferrors.InternalError(fmt.Sprintf("unexpected response from %s", path)).WithCause(err).Build()
	}
	return nil
}
