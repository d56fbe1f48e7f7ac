package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ferrum-editor/ferrum/internal/store"
	"github.com/ferrum-editor/ferrum/internal/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultInterval is the sampling period when none is configured
const DefaultInterval = 2 * time.Second

// ErrUnsupportedRequest is returned for a request type other than getSysInfo
var ErrUnsupportedRequest = errors.New("unsupported sampler request")

// Sampler produces samples on out until ctx is cancelled
type Sampler interface {
	Run(ctx context.Context, req types.SysInfoRequest, out chan<- types.SysInfo) error
}

// NewRequest builds the start request for a sampler
func NewRequest(apiURL string) types.SysInfoRequest {
	return types.SysInfoRequest{Type: types.RequestTypeGetSysInfo, APIURL: apiURL}
}

func checkRequest(req types.SysInfoRequest) error {
	if req.Type != types.RequestTypeGetSysInfo {
		return fmt.Errorf("%w: %q", ErrUnsupportedRequest, req.Type)
	}
	if req.APIURL == "" {
		return fmt.Errorf("%w: missing apiUrl", ErrUnsupportedRequest)
	}
	return nil
}

// send delivers a sample unless ctx is done first
func send(ctx context.Context, out chan<- types.SysInfo, info types.SysInfo) bool {
	select {
	case out <- info:
		return true
	case <-ctx.Done():
		return false
	}
}

// PollSampler requests a sample over HTTP every Interval
type PollSampler struct {
	Interval   time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Run implements Sampler
func (p *PollSampler) Run(ctx context.Context, req types.SysInfoRequest, out chan<- types.SysInfo) error {
	if err := checkRequest(req); err != nil {
		return err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	client := store.New(store.Options{BaseURL: req.APIURL, HTTPClient: p.HTTPClient, Logger: logger})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		info, err := client.GetSysInfo(ctx)
		switch {
		case err == nil:
			if !send(ctx, out, *info) {
				return ctx.Err()
			}
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			logger.Debug("sysinfo poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// StreamSampler subscribes to the backend's websocket sample stream and
// reconnects after RetryWait when the connection drops.
type StreamSampler struct {
	Interval  time.Duration
	RetryWait time.Duration
	Dialer    *websocket.Dialer
	Logger    *zap.Logger
}

// StreamURL derives the websocket endpoint from an API base URL
func StreamURL(apiURL string, interval time.Duration) (string, error) {
	u, err := url.Parse(strings.TrimRight(apiURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid api url scheme %q", u.Scheme)
	}
	u.Path += "/sysInfo/stream"
	if interval > 0 {
		q := u.Query()
		q.Set("interval", interval.String())
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Run implements Sampler
func (s *StreamSampler) Run(ctx context.Context, req types.SysInfoRequest, out chan<- types.SysInfo) error {
	if err := checkRequest(req); err != nil {
		return err
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint, err := StreamURL(req.APIURL, s.Interval)
	if err != nil {
		return err
	}
	dialer := s.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		}
	}
	wait := s.RetryWait
	if wait <= 0 {
		wait = DefaultInterval
	}

	for {
		err := s.stream(ctx, dialer, endpoint, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug("sysinfo stream interrupted", zap.String("url", endpoint), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *StreamSampler) stream(ctx context.Context, dialer *websocket.Dialer, endpoint string, out chan<- types.SysInfo) error {
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	// Unblock ReadJSON when the bridge cancels
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		var info types.SysInfo
		if err := conn.ReadJSON(&info); err != nil {
			return err
		}
		if !send(ctx, out, info) {
			return ctx.Err()
		}
	}
}
