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

// Package fixserver implements the acceptor: it listens for inbound
// connections, authenticates the first Logon against a registered set of
// peer configs, and upgrades each authenticated connection into a
// fixsession.Session. A single acceptor multiplexes any number of
// registered peers.
package fixserver

import (
	"context"
	"sync"
	"time"

	"fixengine/fixerrors"
	"fixengine/fixlog"
	"fixengine/fixmsg"
	"fixengine/fixnet"
	"fixengine/fixsession"
	"fixengine/fixstore"
	"fixengine/fixtag"
)

const defaultLogonTimeout = 1 * time.Second

// ServerConfig describes one acceptor: where it listens, which BeginStrings
// it accepts, and the set of peer configs it will authenticate against.
// Peers are registered in their initiator-oriented form (SenderCompID is
// the initiator's id); the acceptor swaps sender/target per connection
// (Config.Swapped).
type ServerConfig struct {
	Host string
	Port int

	SupportedBeginStrings []string
	Peers                 []fixsession.Config

	// LogonTimeout bounds how long the acceptor waits for the first Logon
	// on a freshly-accepted connection before dropping it as unresponsive.
	// Defaults to 1 second.
	LogonTimeout time.Duration

	// DefaultStoreDSN backs sessions whose matched peer Config.StoreDSN is
	// empty.
	DefaultStoreDSN string
}

func (c ServerConfig) logonTimeout() time.Duration {
	if c.LogonTimeout <= 0 {
		return defaultLogonTimeout
	}
	return c.LogonTimeout
}

func (c ServerConfig) supportsBeginString(begin string) bool {
	supported := c.SupportedBeginStrings
	if len(supported) == 0 {
		supported = []string{"FIX.4.2"}
	}
	for _, v := range supported {
		if v == begin {
			return true
		}
	}
	return false
}

// Observers are optional counters fired as sessions operate, wiring
// fixsession.WithOnSend's per-message view into StatusServer's Prometheus
// counters without fixsession depending on fixserver or prometheus itself.
type Observers struct {
	HeartbeatSent func()
	ResendIssued  func()
	SequenceGap   func()
}

// ServerOption configures optional Server behavior at construction.
type ServerOption func(*Server)

// WithObservers registers counters fired on qualifying outbound messages
// across every session this acceptor authenticates.
func WithObservers(o Observers) ServerOption {
	return func(s *Server) { s.observers = o }
}

// SetObservers registers Observers after construction, for callers (like
// cmd/fixacceptor) that need a *Server to exist before they can build the
// StatusServer whose counters back the Observers.
func (s *Server) SetObservers(o Observers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = o
}

// Server accepts inbound connections on a fixnet.Listener and upgrades
// authenticated ones into fixsession.Session values, delivered to the
// application through Sessions.
type Server struct {
	cfg       ServerConfig
	listener  fixnet.Listener
	peers     map[fixsession.SessionID]fixsession.Config
	observers Observers

	mu       sync.Mutex
	sessions map[fixsession.SessionID]*fixsession.Session

	sessionsCh chan *fixsession.Session
	closeCh    chan struct{}
	closeOnce  sync.Once
}

// NewServer builds an acceptor over listener, indexing cfg.Peers by their
// 4-tuple session identity.
func NewServer(cfg ServerConfig, listener fixnet.Listener, opts ...ServerOption) *Server {
	peers := make(map[fixsession.SessionID]fixsession.Config, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peers[p.ID()] = p
	}
	s := &Server{
		cfg:        cfg,
		listener:   listener,
		peers:      peers,
		sessions:   make(map[fixsession.SessionID]*fixsession.Session),
		sessionsCh: make(chan *fixsession.Session, 16),
		closeCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// onSessionSend fires on every outbound message any registered session
// writes, translating the ones the status surface cares about into the
// registered Observers callbacks.
func (s *Server) onSessionSend(msg *fixmsg.FixMessage) {
	s.mu.Lock()
	obs := s.observers
	s.mu.Unlock()

	switch msg.MsgType() {
	case fixtag.MsgTypeHeartbeat:
		if obs.HeartbeatSent != nil {
			obs.HeartbeatSent()
		}
	case fixtag.MsgTypeResendRequest:
		if obs.ResendIssued != nil {
			obs.ResendIssued()
		}
		if obs.SequenceGap != nil {
			obs.SequenceGap()
		}
	}
}

// Sessions returns the channel newly-authenticated sessions are delivered
// on.
func (s *Server) Sessions() <-chan *fixsession.Session { return s.sessionsCh }

// Serve accepts connections until ctx is cancelled or the server is closed.
// Each accepted connection is authenticated and upgraded on its own
// goroutine so one slow or unresponsive client never blocks others.
func (s *Server) Serve(ctx context.Context) error {
	for {
		t, err := s.listener.Accept(ctx)
		if err != nil {
			select {
			case <-s.closeCh:
				return nil
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, t)
	}
}

// handleConn performs accept-time authentication: read the first Logon
// within LogonTimeout, authenticate it, and on success construct a Session
// that replays the already-read bytes through its own parser before being
// handed to the application.
func (s *Server) handleConn(ctx context.Context, t fixnet.Transport) {
	logonCtx, cancel := context.WithTimeout(ctx, s.cfg.logonTimeout())
	defer cancel()

	msg, raw, err := readFirstMessage(logonCtx, t)
	if err != nil {
		fixlog.ForComponent("fixserver").WithError(err).WithField("remote", t.RemoteAddr()).Warn("dropping connection: no Logon received in time")
		_ = t.Close()
		return
	}
	if msg.MsgType() != fixtag.MsgTypeLogon {
		fixlog.ForComponent("fixserver").WithField("remote", t.RemoteAddr()).Warn("dropping connection: first message was not a Logon")
		_ = t.Close()
		return
	}

	acceptorCfg, err := s.authenticate(msg)
	if err != nil {
		fixlog.ForComponent("fixserver").WithError(err).WithField("remote", t.RemoteAddr()).Warn("Logon authentication failed")
		_ = t.Close()
		return
	}

	sessionID := acceptorCfg.ID()
	dsn := acceptorCfg.StoreDSN
	if dsn == "" {
		dsn = s.cfg.DefaultStoreDSN
	}
	store, err := fixstore.Open(dsn, sessionID.String())
	if err != nil {
		fixlog.ForComponent("fixserver").WithError(err).Warn("failed to open message store for authenticated session")
		_ = t.Close()
		return
	}

	sess := fixsession.NewSession(acceptorCfg, store, t,
		fixsession.WithInitialBuffer(raw),
		fixsession.WithOnClose(s.forgetSession),
		fixsession.WithOnSend(s.onSessionSend),
	)

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	select {
	case s.sessionsCh <- sess:
	case <-s.closeCh:
		_ = sess.Close()
	}
}

// authenticate matches msg's identity tags against the registered peer set
// and returns the acceptor-side (sender/target swapped) Config to construct
// the Session with.
func (s *Server) authenticate(msg *fixmsg.FixMessage) (fixsession.Config, error) {
	begin := msg.BeginString()
	if !s.cfg.supportsBeginString(begin) {
		return fixsession.Config{}, &fixerrors.AuthenticationError{Reason: "unsupported BeginString " + begin}
	}

	sender, _ := msg.Get(fixtag.TagSenderCompID)
	target, _ := msg.Get(fixtag.TagTargetCompID)
	candidate := fixsession.SessionID{BeginString: begin, SenderCompID: sender, TargetCompID: target, Qualifier: ""}

	peerCfg, ok := s.peers[candidate]
	if !ok {
		return fixsession.Config{}, &fixerrors.AuthenticationError{Reason: "no registered peer config for " + candidate.String()}
	}

	acceptorCfg := peerCfg.Swapped()
	acceptorID := acceptorCfg.ID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[acceptorID]; ok {
		if !existing.Flags().Has(fixsession.FlagClosed) {
			return fixsession.Config{}, &fixerrors.AuthenticationError{Reason: "session already active for " + acceptorID.String()}
		}
		delete(s.sessions, acceptorID)
	}
	return acceptorCfg, nil
}

func (s *Server) forgetSession(id fixsession.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Close stops accepting new connections and closes every session currently
// registered.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.listener.Close()
		s.mu.Lock()
		sessions := make([]*fixsession.Session, 0, len(s.sessions))
		for _, sess := range s.sessions {
			sessions = append(sessions, sess)
		}
		s.mu.Unlock()
		for _, sess := range sessions {
			_ = sess.Close()
		}
	})
	return err
}

// SessionStatus summarizes one registered session for the read-only HTTP
// status surface (http.go).
type SessionStatus struct {
	ID     string
	Flags  fixsession.Flags
	Local  int
	Remote int
}

// Snapshot returns a point-in-time summary of every currently registered
// session, for the status/metrics HTTP endpoints.
func (s *Server) Snapshot() []SessionStatus {
	s.mu.Lock()
	sessions := make([]*fixsession.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	out := make([]SessionStatus, 0, len(sessions))
	for _, sess := range sessions {
		local, remote, err := sess.Counters()
		status := SessionStatus{ID: sess.ID().String(), Flags: sess.Flags()}
		if err == nil {
			status.Local, status.Remote = local, remote
		}
		out = append(out, status)
	}
	return out
}

type readFirstResult struct {
	msg *fixmsg.FixMessage
	raw []byte
	err error
}

// readFirstMessage reads from t until one complete frame decodes or ctx is
// done, returning both the decoded message and every byte read (so the
// caller can replay them, frame included, through a fresh parser). On
// cancellation it closes t to unblock the reading goroutine and drains its
// result in the background, the same pattern fixnet.TCPListener.Accept
// uses for a cancellable blocking call with no native context support.
func readFirstMessage(ctx context.Context, t fixnet.Transport) (*fixmsg.FixMessage, []byte, error) {
	resultCh := make(chan readFirstResult, 1)
	go func() {
		parser := fixmsg.NewParser()
		var raw []byte
		buf := make([]byte, 4096)
		for {
			n, err := t.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				raw = append(raw, chunk...)
				parser.AppendBuffer(chunk)
				if msg, perr, ok := parser.GetMessage(); ok {
					if perr != nil {
						resultCh <- readFirstResult{err: perr}
						return
					}
					resultCh <- readFirstResult{msg: msg, raw: raw}
					return
				}
			}
			if err != nil {
				resultCh <- readFirstResult{err: err}
				return
			}
		}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, nil, res.err
		}
		return res.msg, res.raw, nil
	case <-ctx.Done():
		_ = t.Close()
		go func() { <-resultCh }()
		return nil, nil, &fixerrors.UnresponsiveClientError{}
	}
}
