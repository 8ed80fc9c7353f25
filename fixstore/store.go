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

// Package fixstore implements the per-session MessageStore contract:
// durable storage of sent/received messages, monotonic sequence counters,
// and sequenced retrieval for resend. MemoryStore is the in-process
// implementation used by tests and single-process deployments; SQLiteStore
// durably persists the same contract over prepared statements via
// go-sqlite3.
package fixstore

import (
	"fixengine/fixmsg"
)

// SortOrder controls the direction of GetMsgs/GetSent/GetReceived scans.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Index selects which secondary sequence index a range query scans.
type Index int

const (
	IndexSent Index = iota
	IndexReceived
	IndexAll
)

// Unbounded is used for max/limit parameters meaning "no upper bound".
const Unbounded = 0

// MessageStore is the durable, ordered record of a single session's sent
// and received messages plus its local/remote sequence counters. All
// operations are implicitly scoped to one session; a store implementation
// shared across sessions (e.g. a Redis- or SQLite-backed one) must isolate
// sessions by key prefix internally.
type MessageStore interface {
	// GetLocal returns the current local (outbound) sequence counter,
	// initializing it to 1 on first use.
	GetLocal() (int, error)
	// GetRemote returns the current remote (inbound) sequence counter,
	// initializing it to 1 on first use.
	GetRemote() (int, error)
	// IncrLocal atomically increments and returns the new local counter,
	// initializing it to 1 before the first increment if unset.
	IncrLocal() (int, error)
	// IncrRemote atomically increments and returns the new remote counter,
	// initializing it to 1 before the first increment if unset.
	IncrRemote() (int, error)
	// SetLocal forces the local counter to n.
	SetLocal(n int) error
	// SetRemote forces the remote counter to n.
	SetRemote(n int) error

	// StoreMsg persists msg under a storage UID, indexing it by sequence
	// number in the sent or received index (chosen by comparing
	// SenderCompID against sender); the storage time is recorded with it
	// but is not a lookup index.
	// Duplicate sequence numbers within an index are dropped silently.
	StoreMsg(msg *fixmsg.FixMessage, sender string) error

	// GetSent returns sent messages with MsgSeqNum in [min, max] (max==0
	// meaning unbounded), oldest-first, bounded by limit (0 meaning
	// unbounded).
	GetSent(min, max, limit int) ([]*fixmsg.FixMessage, error)
	// GetReceived is the received-index analogue of GetSent.
	GetReceived(min, max, limit int) ([]*fixmsg.FixMessage, error)
	// GetMsgs is the general form: choose the index and sort order
	// explicitly.
	GetMsgs(min, max, limit int, index Index, order SortOrder) ([]*fixmsg.FixMessage, error)

	// Reset deletes all message and index entries for this session, then
	// sets local=1 and remote=2, since the reset handshake itself consumes
	// one remote sequence number beyond the fresh baseline.
	Reset() error
	// Close releases any resources held by the store.
	Close() error
}
