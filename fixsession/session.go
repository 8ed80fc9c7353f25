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

package fixsession

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fixengine/fixbuild"
	"fixengine/fixerrors"
	"fixengine/fixlog"
	"fixengine/fixmsg"
	"fixengine/fixnet"
	"fixengine/fixstore"
	"fixengine/fixtag"
)

// pollTick bounds how long the poll loop blocks on a transport read before
// re-checking the heartbeat clock and outbound queue.
const pollTick = 10 * time.Millisecond

type readResult struct {
	data []byte
	err  error
}

// Option configures optional Session behavior at construction.
type Option func(*Session)

// WithLogger overrides the session's default per-session logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) { s.log = log }
}

// WithOnClose registers an observer fired once, after Close has released
// the transport and store, reporting the session identity that just closed.
func WithOnClose(fn func(SessionID)) Option {
	return func(s *Session) { s.onClose = fn }
}

// WithOnSend registers an observer fired after each successful transport
// write.
func WithOnSend(fn func(*fixmsg.FixMessage)) Option {
	return func(s *Session) { s.onSend = fn }
}

// WithInitialBuffer seeds the parser with bytes already read off the wire
// before this Session existed. An acceptor authenticating a new connection
// reads the Logon itself before a Session can be constructed to own the
// transport; this replays those bytes — Logon included — through the new
// session's own parser so it is dispatched the same way any other inbound
// message is.
func WithInitialBuffer(data []byte) Option {
	return func(s *Session) { s.parser.AppendBuffer(data) }
}

// Session is the session-layer state machine: login handshake, heartbeats,
// sequence integrity, gap handling, resend, and logout. One Session owns
// one Transport and one MessageStore and runs its own poll loop on a
// dedicated goroutine.
type Session struct {
	config    Config
	store     fixstore.MessageStore
	transport fixnet.Transport
	parser    *fixmsg.Parser

	mu                  sync.Mutex
	flags               Flags
	nextHeartbeatDue     time.Time
	resetRequestPending bool
	closeErr            error

	outboundCh chan *fixmsg.FixMessage
	inboundCh  chan *fixmsg.FixMessage
	readCh     chan readResult
	closeCh    chan struct{}
	closeOnce  sync.Once

	log      *logrus.Entry
	onClose  func(SessionID)
	onSend   func(*fixmsg.FixMessage)
}

// NewSession constructs a Session bound to store and transport and starts
// its reader and poll-loop goroutines immediately: a session is live from
// the moment it is created.
func NewSession(cfg Config, store fixstore.MessageStore, transport fixnet.Transport, opts ...Option) *Session {
	s := &Session{
		config:     cfg,
		store:      store,
		transport:  transport,
		parser:     fixmsg.NewParser(),
		outboundCh: make(chan *fixmsg.FixMessage, 256),
		inboundCh:  make(chan *fixmsg.FixMessage, 64),
		readCh:     make(chan readResult, 1),
		closeCh:    make(chan struct{}),
		log:        fixlog.ForSession(cfg.BeginString, cfg.SenderCompID, cfg.TargetCompID),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.nextHeartbeatDue = time.Now().Add(cfg.HeartBtIntOrDefault())

	go s.readLoop()
	go s.pollLoop()
	return s
}

// ID returns this session's 4-tuple identity.
func (s *Session) ID() SessionID { return s.config.ID() }

// Flags returns a snapshot of the session's state bitset.
func (s *Session) Flags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// Send is the application's outbound entry point: it populates missing
// header fields, persists the message, advances the local sequence
// counter, and enqueues it for the poll loop to write.
func (s *Session) Send(msg *fixmsg.FixMessage) error {
	return s.enqueueOutbound(msg, true)
}

// Logon sends a Logon with the configured HeartBtInt.
func (s *Session) Logon() error {
	s.mu.Lock()
	s.flags |= FlagInitLogon
	s.mu.Unlock()
	return s.Send(fixbuild.BuildLogon(int(s.config.HeartBtIntOrDefault().Seconds()), false))
}

// Logout sets WAIT_LOGOUT and sends Logout.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.flags |= FlagWaitLogout
	s.mu.Unlock()
	return s.Send(fixbuild.BuildLogout())
}

// Test sends a TestRequest, generating a TestReqID if id is empty.
func (s *Session) Test(id string) error {
	return s.Send(fixbuild.BuildTestRequest(id))
}

// ResetSeqNums sends Logon with ResetSeqNumFlag='Y' and MsgSeqNum=1,
// bypassing the normal local-counter increment, and records the request so
// the peer's paired reply is recognized rather than re-triggering our own
// reply.
func (s *Session) ResetSeqNums() error {
	s.mu.Lock()
	s.resetRequestPending = true
	s.mu.Unlock()
	msg := fixbuild.BuildLogon(int(s.config.HeartBtIntOrDefault().Seconds()), true)
	return s.enqueueOutbound(msg, false)
}

// ReceiveOptions configures which inbound messages Receive surfaces.
type ReceiveOptions struct {
	SkipAdmin     bool
	SkipDuplicate bool
}

// ReceiveOption mutates a ReceiveOptions.
type ReceiveOption func(*ReceiveOptions)

// SkipAdmin filters out session-layer administrative messages. Admin
// messages never reach the application channel in this engine in the first
// place (dispatchAdmin handles them internally before Receive ever sees
// them), so this option is a documented no-op kept for symmetry with
// SkipDuplicate.
func SkipAdmin() ReceiveOption {
	return func(o *ReceiveOptions) { o.SkipAdmin = true }
}

// SkipDuplicate filters out PossDupFlag='Y' messages, such as the ones
// replayed verbatim during a resend, so a caller that doesn't care about
// replay traffic doesn't have to check the flag itself.
func SkipDuplicate() ReceiveOption {
	return func(o *ReceiveOptions) { o.SkipDuplicate = true }
}

// Receive blocks for the next application-visible message matching opts
// (in-sequence messages, plus PossDupFlag='Y' duplicates unless
// SkipDuplicate is given), or returns ctx.Err() / a closed-session error,
// whichever comes first.
func (s *Session) Receive(ctx context.Context, opts ...ReceiveOption) (*fixmsg.FixMessage, error) {
	var o ReceiveOptions
	for _, opt := range opts {
		opt(&o)
	}
	for {
		select {
		case msg := <-s.inboundCh:
			if o.SkipAdmin && msg.IsAdmin() {
				continue
			}
			if o.SkipDuplicate && msg.IsPossDup() {
				continue
			}
			return msg, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.closeCh:
			s.mu.Lock()
			err := s.closeErr
			s.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return nil, &fixerrors.SessionClosedError{}
		}
	}
}

// Counters returns the session's current local (outbound) and remote
// (inbound) sequence numbers.
func (s *Session) Counters() (local, remote int, err error) {
	local, err = s.store.GetLocal()
	if err != nil {
		return 0, 0, err
	}
	remote, err = s.store.GetRemote()
	if err != nil {
		return 0, 0, err
	}
	return local, remote, nil
}

// History returns stored messages with MsgSeqNum in [minSeq, maxSeq] (0 for
// maxSeq means unbounded), oldest-first, capped at limit (0 means
// unbounded). It wraps the store's GetMsgs so callers don't have to reach
// into the store directly.
func (s *Session) History(minSeq, maxSeq, limit int) ([]*fixmsg.FixMessage, error) {
	return s.store.GetMsgs(minSeq, maxSeq, limit, fixstore.IndexAll, fixstore.Ascending)
}

// CloseWithTimeout drains any outbound messages already enqueued via Send,
// then closes the session, giving up and closing anyway once timeout
// elapses. It waits only for the outbound queue to empty, not for any reply
// from the peer (such as a Logout acknowledgement). Callers typically pass
// 2 seconds.
func (s *Session) CloseWithTimeout(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		pending := len(s.outboundCh)
		closed := s.flags.Has(FlagClosed)
		s.mu.Unlock()
		if closed || pending == 0 {
			break
		}
		time.Sleep(pollTick)
	}
	return s.Close()
}

// Close idempotently closes the transport and the store and fires the
// registered on-close observer.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.flags |= FlagClosed
		s.mu.Unlock()
		close(s.closeCh)

		if cerr := s.transport.Close(); cerr != nil {
			err = cerr
		}
		if serr := s.store.Close(); serr != nil && err == nil {
			err = serr
		}
		if s.onClose != nil {
			s.onClose(s.config.ID())
		}
	})
	return err
}

// fail records cause as the session's terminal error and closes it; a
// pending or future Receive returns cause instead of SessionClosedError.
func (s *Session) fail(cause error) {
	s.mu.Lock()
	if s.closeErr == nil {
		s.closeErr = cause
	}
	s.mu.Unlock()
	_ = s.Close()
	s.log.WithError(cause).Warn("session closed")
}

// enqueueOutbound is Send's and ResetSeqNums' shared path: prepare the
// message under the state lock, then hand it to the poll loop's outbound
// queue, which is the sole goroutine permitted to write to the transport.
func (s *Session) enqueueOutbound(msg *fixmsg.FixMessage, incr bool) error {
	if err := s.prepareOutbound(msg, incr); err != nil {
		return err
	}
	select {
	case s.outboundCh <- msg:
		return nil
	case <-s.closeCh:
		return &fixerrors.SessionClosedError{}
	}
}

// adminReply is the poll loop's own path for sending a reply while handling
// an inbound message: since the poll loop is already the sole writer
// goroutine, it writes directly instead of round-tripping through
// outboundCh (which exists for the cross-goroutine Send/ResetSeqNums path
// and would deadlock if the poll loop tried to both fill and drain it
// inline).
func (s *Session) adminReply(msg *fixmsg.FixMessage, incr bool) {
	if err := s.prepareOutbound(msg, incr); err != nil {
		s.log.WithError(err).Warn("failed to prepare admin reply")
		return
	}
	s.writeOne(msg)
}

func (s *Session) prepareOutbound(msg *fixmsg.FixMessage, incr bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags.Has(FlagClosed) {
		return &fixerrors.SessionClosedError{}
	}
	if err := s.populateHeader(msg, incr); err != nil {
		return err
	}
	return s.store.StoreMsg(msg, s.config.SenderCompID)
}

// populateHeader fills in missing header fields and conditionally advances
// the local counter. Fields already set by the caller (e.g. a resend's
// original MsgSeqNum, or ResetSeqNums' forced "1") are left untouched.
func (s *Session) populateHeader(msg *fixmsg.FixMessage, incr bool) error {
	if _, ok := msg.Get(fixtag.TagMsgSeqNum); !ok {
		local, err := s.store.GetLocal()
		if err != nil {
			return err
		}
		msg.AppendHeader(fixtag.TagMsgSeqNum, strconv.Itoa(local+1))
	}
	if _, ok := msg.Get(fixtag.TagBeginString); !ok {
		msg.AppendHeader(fixtag.TagBeginString, s.config.BeginString)
	}
	if _, ok := msg.Get(fixtag.TagSenderCompID); !ok {
		msg.AppendHeader(fixtag.TagSenderCompID, s.config.SenderCompID)
	}
	if _, ok := msg.Get(fixtag.TagTargetCompID); !ok {
		msg.AppendHeader(fixtag.TagTargetCompID, s.config.TargetCompID)
	}
	if _, ok := msg.Get(fixtag.TagSendingTime); !ok {
		msg.AppendHeader(fixtag.TagSendingTime, time.Now().UTC().Format(fixtag.FixTimeFormat))
	}
	if incr {
		if _, err := s.store.IncrLocal(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) writeOne(msg *fixmsg.FixMessage) {
	encoded := fixmsg.Encode(msg, s.config.BeginString)
	if _, err := s.transport.Write(encoded); err != nil {
		s.fail(err)
		return
	}
	s.mu.Lock()
	s.nextHeartbeatDue = time.Now().Add(s.config.HeartBtIntOrDefault())
	s.mu.Unlock()
	if s.onSend != nil {
		s.onSend(msg)
	}
}

func (s *Session) drainOutbound() {
	for {
		select {
		case msg := <-s.outboundCh:
			s.writeOne(msg)
		default:
			return
		}
	}
}

func (s *Session) checkHeartbeat() {
	s.mu.Lock()
	due := !s.flags.Has(FlagClosed) && !time.Now().Before(s.nextHeartbeatDue)
	s.mu.Unlock()
	if due {
		s.adminReply(fixbuild.BuildHeartbeat(""), true)
	}
}

// readLoop continuously reads from the transport and forwards chunks (or
// the terminal error) to the poll loop over readCh. It is the only
// goroutine that calls transport.Read.
func (s *Session) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.transport.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.readCh <- readResult{data: chunk}:
			case <-s.closeCh:
				return
			}
		}
		if err != nil {
			select {
			case s.readCh <- readResult{err: err}:
			case <-s.closeCh:
			}
			return
		}
	}
}

// pollLoop is the session's single cooperative state-machine loop: check
// the heartbeat clock, drain outbound, process one buffered inbound
// message if available, else wait up to pollTick for more bytes.
func (s *Session) pollLoop() {
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		s.checkHeartbeat()
		s.drainOutbound()

		msg, perr, ok := s.parser.GetMessage()
		if ok {
			if perr != nil {
				s.log.WithError(perr).Warn("discarding malformed FIX frame")
			} else {
				s.handleInbound(msg)
			}
			continue
		}

		select {
		case <-s.closeCh:
			return
		case r := <-s.readCh:
			if r.err != nil {
				s.fail(r.err)
				return
			}
			s.parser.AppendBuffer(r.data)
		case <-time.After(pollTick):
		}
	}
}
