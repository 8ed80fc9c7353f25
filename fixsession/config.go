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

// Package fixsession implements the session-layer state machine: the login
// handshake, heartbeats, test requests, sequence integrity, gap handling,
// resend processing, and logout. It is the core this module exists to
// build; fixbuild/fixmsg/fixstore/fixnet are its supporting leaves.
package fixsession

import (
	"fmt"
	"time"

	"fixengine/fixerrors"
)

// Config describes one counterparty relationship. Host/Port are used only
// by an initiator; an acceptor session is bound to a config matched by
// (BeginString, SenderCompID, TargetCompID, Qualifier) at Logon time.
type Config struct {
	Host string
	Port int

	BeginString  string // "FIX.4.2", "FIX.4.4", ...
	SenderCompID string
	TargetCompID string
	Qualifier    string
	Account      string

	HeartBtInt   int // seconds, default 30
	ResetOnLogon bool

	// StoreDSN selects the MessageStore backend (fixstore.Open), e.g.
	// "inmemory://" or "sqlite:///var/lib/fix/sessions.db".
	StoreDSN string
}

// ID returns the 4-tuple session identity, symmetric under role swap.
func (c Config) ID() SessionID {
	return SessionID{
		BeginString:  c.BeginString,
		SenderCompID: c.SenderCompID,
		TargetCompID: c.TargetCompID,
		Qualifier:    c.Qualifier,
	}
}

// Swapped returns the acceptor's view of this config: sender and target
// exchanged, since the acceptor's SenderCompID is the initiator's
// TargetCompID and vice versa.
func (c Config) Swapped() Config {
	swapped := c
	swapped.SenderCompID, swapped.TargetCompID = c.TargetCompID, c.SenderCompID
	return swapped
}

// Validate checks the fields an engine-level config must carry regardless
// of how it was constructed (DSN parse, YAML, or direct struct literal).
func (c Config) Validate() error {
	if c.BeginString == "" {
		return &fixerrors.ConfigError{Reason: "BeginString is required"}
	}
	if c.SenderCompID == "" || c.TargetCompID == "" {
		return &fixerrors.ConfigError{Reason: "SenderCompID and TargetCompID are required"}
	}
	if c.HeartBtInt < 0 {
		return &fixerrors.ConfigError{Reason: fmt.Sprintf("HeartBtInt must be >= 0, got %d", c.HeartBtInt)}
	}
	return nil
}

// HeartBtIntOrDefault returns the configured heartbeat interval, defaulting
// to 30 seconds when unset.
func (c Config) HeartBtIntOrDefault() time.Duration {
	if c.HeartBtInt <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HeartBtInt) * time.Second
}

// SessionID is the 4-tuple session identity: protocol version plus the
// counterparty pair and an optional qualifier distinguishing multiple
// sessions between the same two CompIDs.
type SessionID struct {
	BeginString  string
	SenderCompID string
	TargetCompID string
	Qualifier    string
}

func (id SessionID) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", id.BeginString, id.SenderCompID, id.TargetCompID, id.Qualifier)
}

// Flags is the session state bitset.
type Flags uint16

const (
	FlagDefault Flags = 0
	FlagWaitResend Flags = 1 << iota
	FlagWaitLogout
	FlagLogoutResend
	FlagInitLogon
	FlagLoggedOn
	FlagClosing
	FlagClosed
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
