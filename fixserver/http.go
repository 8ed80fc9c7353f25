/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fixserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fixengine/fixlog"
)

// StatusServer exposes a read-only HTTP introspection surface over a
// Server: health, per-session status, and Prometheus counters. It is
// deliberately read-only; it exposes no session control actions.
type StatusServer struct {
	fix    *Server
	router *mux.Router
	http   *http.Server
	port   int

	sessionsActive prometheus.GaugeFunc
	heartbeatsSent prometheus.Counter
	resendsIssued  prometheus.Counter
	sequenceGaps   prometheus.Counter
}

// NewStatusServer builds the status/metrics surface bound to fix: a router
// built once in the constructor, served by Run.
func NewStatusServer(fix *Server, port int) *StatusServer {
	s := &StatusServer{fix: fix, router: mux.NewRouter(), port: port}

	s.sessionsActive = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fix_sessions_active",
		Help: "Number of sessions currently registered with the acceptor",
	}, func() float64 { return float64(len(s.fix.Snapshot())) })

	s.heartbeatsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_heartbeats_sent_total",
		Help: "Total heartbeats sent across all sessions",
	})
	s.resendsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_resend_requests_total",
		Help: "Total ResendRequests issued across all sessions",
	})
	s.sequenceGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fix_sequence_gaps_total",
		Help: "Total inbound sequence gaps detected across all sessions",
	})

	s.setupRoutes()
	return s
}

// ObserveHeartbeatSent increments the heartbeat counter; callers wire this
// through fixsession.WithOnSend by inspecting the outbound MsgType.
func (s *StatusServer) ObserveHeartbeatSent() { s.heartbeatsSent.Inc() }

// ObserveResendIssued increments the resend-request counter.
func (s *StatusServer) ObserveResendIssued() { s.resendsIssued.Inc() }

// ObserveSequenceGap increments the sequence-gap counter.
func (s *StatusServer) ObserveSequenceGap() { s.sequenceGaps.Inc() }

func (s *StatusServer) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *StatusServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	snapshot := s.fix.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		fixlog.ForComponent("fixserver").WithError(err).Warn("failed to encode sessions status response")
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	log := fixlog.ForComponent("fixserver-http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// Run serves the status surface until ctx is cancelled, then shuts down
// gracefully.
func (s *StatusServer) Run(ctx context.Context) error {
	s.router.Use(loggingMiddleware)
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log := fixlog.ForComponent("fixserver-http")
	go func() {
		<-ctx.Done()
		log.Info("context done, shutting down status server")
		_ = s.http.Shutdown(context.Background())
	}()

	log.Infof("status server listening on port %d", s.port)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
