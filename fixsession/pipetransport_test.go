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

import "net"

// pipeTransport adapts a net.Conn (from net.Pipe) to fixnet.Transport, so
// tests can wire two Sessions directly together without a real socket.
type pipeTransport struct {
	conn net.Conn
	addr string
}

func (p *pipeTransport) Read(b []byte) (int, error)  { return p.conn.Read(b) }
func (p *pipeTransport) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *pipeTransport) Close() error                { return p.conn.Close() }
func (p *pipeTransport) RemoteAddr() string          { return p.addr }

// newPipePair returns two linked transports, the same way a dialed
// initiator and an accepted acceptor connection are linked by a real TCP
// socket.
func newPipePair() (*pipeTransport, *pipeTransport) {
	a, b := net.Pipe()
	return &pipeTransport{conn: a, addr: "initiator"}, &pipeTransport{conn: b, addr: "acceptor"}
}
