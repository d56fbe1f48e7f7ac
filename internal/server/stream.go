package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// handleSysInfoStream pushes a sample every interval until the client leaves
func (s *Server) handleSysInfoStream(w http.ResponseWriter, r *http.Request) {
	interval := defaultStreamInterval
	if raw := r.URL.Query().Get("interval"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			interval = d
		}
	}
	if interval < minStreamInterval {
		interval = minStreamInterval
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("sysinfo stream upgrade failed", zap.Error(err))
		return
	}

	s.streamsMu.Lock()
	s.streams[conn] = struct{}{}
	s.streamsMu.Unlock()
	streamConnections.Inc()

	defer func() {
		s.streamsMu.Lock()
		delete(s.streams, conn)
		s.streamsMu.Unlock()
		streamConnections.Dec()
		conn.Close()
	}()

	// Drain client frames so close messages are processed
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		info, err := s.sysinfo.Collect(r.Context())
		if err != nil {
			s.logger.Warn("failed to collect sysinfo", zap.Error(err))
		} else {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(info); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("sysinfo stream write failed", zap.Error(err))
				}
				return
			}
		}

		select {
		case <-gone:
			return
		case <-ticker.C:
		}
	}
}
