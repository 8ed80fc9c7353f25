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

// Package fixnet provides the raw byte-stream transport a Session reads
// frames from and writes encoded messages to. The session layer never
// touches net.Conn directly; it depends only on this narrow interface,
// backed by a small TCP client/server pair the engine owns itself.
package fixnet

import (
	"context"
	"io"
)

// Transport is a bidirectional byte stream plus the address metadata a
// session needs to log and to authenticate an acceptor connection against.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer

	// RemoteAddr identifies the peer, for logging and acceptor auditing.
	RemoteAddr() string
}

// Dialer establishes outbound connections for an initiator session. Dial
// makes a single attempt; neither this package nor fixsession retries a
// failed dial or applies any backoff.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Transport, error)
}

// Listener accepts inbound connections for an acceptor server.
type Listener interface {
	Accept(ctx context.Context) (Transport, error)
	Close() error
	Addr() string
}
