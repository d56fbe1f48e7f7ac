// Package store is the HTTP client for the remote document store.
//
// Paths are handled in their UI-facing form (forward slashes) everywhere in
// the application; conversion to the backend's back-slash form happens only
// when a request is built.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ferrum-editor/ferrum/internal/types"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of an error response is kept for messages
const maxErrorBody = 512

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration // zero means no timeout
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the document store API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a store client
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the API base the client was configured with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ToRequestPath converts a UI path to the backend form
func ToRequestPath(path string) string {
	return strings.ReplaceAll(path, "/", "\\")
}

// FetchFile loads a document
func (c *Client) FetchFile(ctx context.Context, path string) (*types.FileContent, error) {
	const op = "getFileContent"

	endpoint := c.baseURL + "/getFileContent?path=" + url.QueryEscape(ToRequestPath(path))
	var result types.FileContent
	if err := c.do(ctx, op, http.MethodGet, endpoint, nil, "", &result); err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if result.Missing() {
		return nil, ErrNotFound
	}

	c.logger.Debug("fetched file", zap.String("path", path), zap.Int("bytes", len(result.Content)))
	return &result, nil
}

// SaveFile writes a document. It is never retried.
func (c *Client) SaveFile(ctx context.Context, path, content string) error {
	const op = "saveFileContent"

	body, err := json.Marshal(types.SaveFileRequest{
		Path:    ToRequestPath(path),
		Content: content,
	})
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	return c.do(ctx, op, http.MethodPost, c.baseURL+"/saveFileContent", bytes.NewReader(body), "application/json", nil)
}

// GetConfig fetches the canonical server configuration
func (c *Client) GetConfig(ctx context.Context) (*types.Config, error) {
	var env types.ConfigEnvelope
	if err := c.do(ctx, "getConfig", http.MethodGet, c.baseURL+"/getConfig", nil, "", &env); err != nil {
		return nil, err
	}
	return &env.Config, nil
}

// SetConfig replaces the server configuration
func (c *Client) SetConfig(ctx context.Context, cfg types.Config) error {
	const op = "setConfig"

	body, err := json.Marshal(types.ConfigEnvelope{Config: cfg})
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
	}
	return c.do(ctx, op, http.MethodPost, c.baseURL+"/setConfig", bytes.NewReader(body), "application/json", nil)
}

// GetSysInfo fetches one telemetry sample
func (c *Client) GetSysInfo(ctx context.Context) (*types.SysInfo, error) {
	var info types.SysInfo
	if err := c.do(ctx, "getSysInfo", http.MethodGet, c.baseURL+"/getSysInfo", nil, "", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UploadFile stores the contents of r as name inside dir
func (c *Client) UploadFile(ctx context.Context, dir, name string, r io.Reader) error {
	const op = "uploadFile"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read upload: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	endpoint := c.baseURL + "/uploadFile?path=" + url.QueryEscape(ToRequestPath(dir))
	return c.do(ctx, op, http.MethodPost, endpoint, &buf, mw.FormDataContentType(), nil)
}

// do performs a request and decodes a JSON response into out when non-nil
func (c *Client) do(ctx context.Context, op, method, endpoint string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("store request failed", zap.String("op", op), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("store request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
		return &TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(text)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
