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
	"io"
	"net"
	"testing"
	"time"

	"fixengine/fixbuild"
	"fixengine/fixmsg"
	"fixengine/fixnet"
	"fixengine/fixsession"
	"fixengine/fixtag"
)

// pipeTransport adapts a net.Conn to fixnet.Transport for tests, the same
// adapter fixsession's own tests use.
type pipeTransport struct {
	conn net.Conn
	addr string
}

func (p *pipeTransport) Read(b []byte) (int, error)  { return p.conn.Read(b) }
func (p *pipeTransport) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *pipeTransport) Close() error                { return p.conn.Close() }
func (p *pipeTransport) RemoteAddr() string          { return p.addr }

// fakeListener hands pre-connected pipe transports to Serve's Accept loop,
// standing in for fixnet.TCPListener.
type fakeListener struct {
	connCh chan *pipeTransport
	closed chan struct{}
}

func newFakeListener() *fakeListener {
	return &fakeListener{connCh: make(chan *pipeTransport, 4), closed: make(chan struct{})}
}

func (l *fakeListener) Accept(ctx context.Context) (fixnet.Transport, error) {
	select {
	case t := <-l.connCh:
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, io.EOF
	}
}

func (l *fakeListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func (l *fakeListener) Addr() string { return "fake" }

// connect creates a linked pipe pair, hands the listener side to the
// fakeListener's Accept queue, and returns the client side for the test to
// drive directly.
func (l *fakeListener) connect() net.Conn {
	client, serverSide := net.Pipe()
	l.connCh <- &pipeTransport{conn: serverSide, addr: "test-client"}
	return client
}

func testPeerConfig() fixsession.Config {
	return fixsession.Config{
		BeginString:  "FIX.4.2",
		SenderCompID: "CLIENT",
		TargetCompID: "ACCEPTOR",
		HeartBtInt:   30,
		StoreDSN:     "inmemory://",
	}
}

func writeLogon(t *testing.T, conn net.Conn, cfg fixsession.Config) {
	t.Helper()
	msg := fixbuild.BuildLogon(cfg.HeartBtInt, false)
	msg.AppendHeader(fixtag.TagMsgSeqNum, "1")
	msg.AppendHeader(fixtag.TagSenderCompID, cfg.SenderCompID)
	msg.AppendHeader(fixtag.TagTargetCompID, cfg.TargetCompID)
	msg.AppendHeader(fixtag.TagSendingTime, time.Now().UTC().Format(fixtag.FixTimeFormat))
	if _, err := conn.Write(fixmsg.Encode(msg, cfg.BeginString)); err != nil {
		t.Fatalf("writing Logon: %v", err)
	}
}

func readOne(t *testing.T, conn net.Conn, timeout time.Duration) *fixmsg.FixMessage {
	t.Helper()
	parser := fixmsg.NewParser()
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 4096)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, err := conn.Read(buf)
		if n > 0 {
			parser.AppendBuffer(buf[:n])
			if msg, perr, ok := parser.GetMessage(); ok {
				if perr != nil {
					t.Fatalf("malformed frame: %v", perr)
				}
				return msg
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			t.Fatalf("reading: %v", err)
		}
	}
	t.Fatalf("timed out waiting for a message")
	return nil
}

func TestServer_AuthenticatesRegisteredPeer(t *testing.T) {
	peerCfg := testPeerConfig()
	listener := newFakeListener()
	srv := NewServer(ServerConfig{
		SupportedBeginStrings: []string{"FIX.4.2"},
		Peers:                 []fixsession.Config{peerCfg},
		DefaultStoreDSN:       "inmemory://",
	}, listener)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	conn := listener.connect()
	defer conn.Close()
	writeLogon(t, conn, peerCfg)

	ack := readOne(t, conn, 2*time.Second)
	if ack.MsgType() != fixtag.MsgTypeLogon {
		t.Fatalf("expected Logon ack from the acceptor, got %s", ack.MsgType())
	}

	select {
	case sess := <-srv.Sessions():
		if sess.ID().SenderCompID != peerCfg.TargetCompID || sess.ID().TargetCompID != peerCfg.SenderCompID {
			t.Fatalf("expected the acceptor-side (swapped) session identity, got %+v", sess.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the authenticated session")
	}
}

func TestServer_RejectsUnregisteredPeer(t *testing.T) {
	listener := newFakeListener()
	srv := NewServer(ServerConfig{
		SupportedBeginStrings: []string{"FIX.4.2"},
		DefaultStoreDSN:       "inmemory://",
	}, listener)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	conn := listener.connect()
	defer conn.Close()
	writeLogon(t, conn, testPeerConfig())

	select {
	case <-srv.Sessions():
		t.Fatalf("expected no session to be authenticated for an unregistered peer")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestServer_EvictsClosedSessionOnReconnect(t *testing.T) {
	peerCfg := testPeerConfig()
	listener := newFakeListener()
	srv := NewServer(ServerConfig{
		SupportedBeginStrings: []string{"FIX.4.2"},
		Peers:                 []fixsession.Config{peerCfg},
		DefaultStoreDSN:       "inmemory://",
	}, listener)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	conn1 := listener.connect()
	writeLogon(t, conn1, peerCfg)
	_ = readOne(t, conn1, 2*time.Second)

	var first *fixsession.Session
	select {
	case first = <-srv.Sessions():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the first session")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("closing first session: %v", err)
	}
	_ = conn1.Close()

	// Give forgetSession's WithOnClose callback a moment to run, then
	// re-authenticate the same identity: the first (now closed) entry
	// should be evicted rather than rejected as already-active.
	time.Sleep(100 * time.Millisecond)

	conn2 := listener.connect()
	defer conn2.Close()
	writeLogon(t, conn2, peerCfg)
	ack := readOne(t, conn2, 2*time.Second)
	if ack.MsgType() != fixtag.MsgTypeLogon {
		t.Fatalf("expected a second successful authentication, got %s", ack.MsgType())
	}
}
