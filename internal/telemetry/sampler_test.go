package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ferrum-editor/ferrum/internal/types"
	"github.com/gorilla/websocket"
)

func TestPollSampler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getSysInfo" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(types.SysInfo{System: "Linux", CPUUsage: 5})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan types.SysInfo)
	errc := make(chan error, 1)
	p := &PollSampler{Interval: 10 * time.Millisecond}
	go func() { errc <- p.Run(ctx, NewRequest(srv.URL), out) }()

	for i := 0; i < 2; i++ {
		select {
		case info := <-out:
			if info.System != "Linux" {
				t.Errorf("sample = %+v", info)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no sample received")
		}
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestSampler_RejectsUnknownRequest(t *testing.T) {
	req := types.SysInfoRequest{Type: "getFileList", APIURL: "http://x"}
	out := make(chan types.SysInfo)

	for _, s := range []Sampler{&PollSampler{}, &StreamSampler{}} {
		if err := s.Run(context.Background(), req, out); !errors.Is(err, ErrUnsupportedRequest) {
			t.Errorf("%T.Run() error = %v, want ErrUnsupportedRequest", s, err)
		}
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		api      string
		interval time.Duration
		want     string
		wantErr  bool
	}{
		{"http://localhost:3001", 0, "ws://localhost:3001/sysInfo/stream", false},
		{"https://host/api/", 2 * time.Second, "wss://host/api/sysInfo/stream?interval=2s", false},
		{"ftp://host", 0, "", true},
	}

	for _, tt := range tests {
		got, err := StreamURL(tt.api, tt.interval)
		if (err != nil) != tt.wantErr {
			t.Errorf("StreamURL(%q) error = %v", tt.api, err)
			continue
		}
		if got != tt.want {
			t.Errorf("StreamURL(%q) = %q, want %q", tt.api, got, tt.want)
		}
	}
}

func TestStreamSampler(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			if err := conn.WriteJSON(types.SysInfo{System: "Linux", UpTime: uint64(i)}); err != nil {
				return
			}
		}
		// hold the connection until the client leaves
		conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan types.SysInfo)
	errc := make(chan error, 1)
	s := &StreamSampler{RetryWait: 10 * time.Millisecond}
	go func() { errc <- s.Run(ctx, NewRequest(srv.URL), out) }()

	for i := 0; i < 3; i++ {
		select {
		case info := <-out:
			if info.UpTime != uint64(i) {
				t.Errorf("sample %d uptime = %d", i, info.UpTime)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no sample received")
		}
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
