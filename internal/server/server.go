// Package server is a reference document store backend. It serves a local
// directory over the HTTP API the editor talks to and is what `ferrum serve`
// runs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ferrum-editor/ferrum/internal/language"
	"github.com/ferrum-editor/ferrum/internal/logging"
	"github.com/ferrum-editor/ferrum/internal/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// maxUploadSize caps multipart uploads
	maxUploadSize = 32 << 20
	// maxBodySize caps JSON request bodies
	maxBodySize = 16 << 20

	defaultStreamInterval = 2 * time.Second
	minStreamInterval     = 200 * time.Millisecond
)

// Options configures a Server
type Options struct {
	Root       string // served directory
	ConfigPath string // config.json or config.yaml
	Addr       string
	SysInfo    SysInfoSource
	Logger     *zap.Logger
}

// Server serves the document store API
type Server struct {
	root    string
	addr    string
	config  *ConfigStore
	sysinfo SysInfoSource
	logger  *zap.Logger

	upgrader   websocket.Upgrader
	httpServer *http.Server

	streamsMu sync.Mutex
	streams   map[*websocket.Conn]struct{}
}

// New creates a server for opts.Root
func New(opts Options) (*Server, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("invalid root: %s is not a directory", root)
	}

	configs, err := OpenConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	source := opts.SysInfo
	if source == nil {
		source = HostCollector{}
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":3001"
	}

	return &Server{
		root:    root,
		addr:    addr,
		config:  configs,
		sysinfo: source,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The editor may be served from any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		streams: make(map[*websocket.Conn]struct{}),
	}, nil
}

// Handler returns the API routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /getFileContent", instrument("getFileContent", s.handleGetFileContent))
	mux.HandleFunc("POST /saveFileContent", instrument("saveFileContent", s.handleSaveFileContent))
	mux.HandleFunc("GET /getConfig", instrument("getConfig", s.handleGetConfig))
	mux.HandleFunc("POST /setConfig", instrument("setConfig", s.handleSetConfig))
	mux.HandleFunc("GET /getSysInfo", instrument("getSysInfo", s.handleGetSysInfo))
	mux.HandleFunc("POST /uploadFile", instrument("uploadFile", s.handleUploadFile))
	mux.HandleFunc("GET /sysInfo/stream", s.handleSysInfoStream)
	mux.Handle("GET /metrics", metricsHandler())
	return withCORS(logging.Middleware(s.logger, mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving documents",
			zap.String("root", s.root),
			zap.String("addr", ln.Addr().String()),
		)
		errc <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop closes open streams and shuts the HTTP server down
func (s *Server) Stop() error {
	s.streamsMu.Lock()
	for conn := range s.streams {
		conn.Close()
	}
	s.streamsMu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Root returns the absolute served directory
func (s *Server) Root() string {
	return s.root
}

func (s *Server) handleGetFileContent(w http.ResponseWriter, r *http.Request) {
	requestPath := r.URL.Query().Get("path")
	full, err := resolve(s.root, requestPath)
	if err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Missing documents are reported in-band with a 200
			documentsMissingTotal.Inc()
			writeJSON(w, http.StatusOK, types.FileContent{Err: types.NotFoundCode})
			return
		}
		s.logger.Error("failed to read document", zap.String("path", full), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, types.FileContent{
		Content: string(data),
		Format:  language.Detect(full),
	})
}

func (s *Server) handleSaveFileContent(w http.ResponseWriter, r *http.Request) {
	var req types.SaveFileRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	full, err := resolve(s.root, req.Path)
	if err != nil {
		documentsSavedTotal.WithLabelValues(statusLabel(false)).Inc()
		writeError(w, http.StatusForbidden, err)
		return
	}
	if full == s.root {
		writeError(w, http.StatusBadRequest, errors.New("path names the root directory"))
		return
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		documentsSavedTotal.WithLabelValues(statusLabel(false)).Inc()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := writeFileAtomic(full, []byte(req.Content)); err != nil {
		s.logger.Error("failed to save document", zap.String("path", full), zap.Error(err))
		documentsSavedTotal.WithLabelValues(statusLabel(false)).Inc()
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	documentsSavedTotal.WithLabelValues(statusLabel(true)).Inc()
	s.logger.Info("document saved", zap.String("path", full), zap.Int("bytes", len(req.Content)))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ConfigEnvelope{Config: s.config.Get()})
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var env types.ConfigEnvelope
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&env); err != nil {
		configPushesTotal.WithLabelValues(statusLabel(false)).Inc()
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := s.config.Set(env.Config); err != nil {
		configPushesTotal.WithLabelValues(statusLabel(false)).Inc()
		writeError(w, http.StatusBadRequest, err)
		return
	}

	configPushesTotal.WithLabelValues(statusLabel(true)).Inc()
	s.logger.Info("config updated")
	writeJSON(w, http.StatusOK, types.ConfigEnvelope{Config: s.config.Get()})
}

func (s *Server) handleGetSysInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.sysinfo.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	dir, err := resolve(s.root, r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean("/" + header.Filename))
	if name == "/" || name == "." {
		writeError(w, http.StatusBadRequest, errors.New("invalid file name"))
		return
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := writeFileAtomic(filepath.Join(dir, name), data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	bytesUploadedTotal.Add(float64(len(data)))
	s.logger.Info("file uploaded", zap.String("dir", dir), zap.String("name", name), zap.Int("bytes", len(data)))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	http.Error(w, err.Error(), status)
}
