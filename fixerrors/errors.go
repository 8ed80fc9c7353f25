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

// Package fixerrors defines the behavioral error taxonomy shared across the
// engine. Errors are plain values, never used to drive control flow (see
// fixsession's validateHeader/validateSequence, which return a small
// Verdict result type instead of
// raising and recovering).
package fixerrors

import "fmt"

// ConfigError reports invalid or missing connection parameters, raised
// synchronously at setup and never from the session poll loop.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "fix config error: " + e.Reason }

// AuthenticationError reports an acceptor rejecting a Logon: unknown peer,
// version mismatch, or a duplicate session already bound to the id.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string { return "fix authentication error: " + e.Reason }

// MissingTagError reports a required header tag absent from an inbound
// message.
type MissingTagError struct {
	Tag int
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("fix: required tag %d missing", e.Tag)
}

// IncorrectTagError reports a header tag present but holding an unexpected
// value.
type IncorrectTagError struct {
	Tag      int
	Expected string
	Actual   string
}

func (e *IncorrectTagError) Error() string {
	return fmt.Sprintf("fix: tag %d expected %q, got %q", e.Tag, e.Expected, e.Actual)
}

// FatalSequenceGapError reports an inbound MsgSeqNum strictly below the
// expected remote sequence number, not marked PossDupFlag='Y'. It closes
// the owning session.
type FatalSequenceGapError struct {
	Gap int
}

func (e *FatalSequenceGapError) Error() string {
	return fmt.Sprintf("fix: fatal sequence gap %d", e.Gap)
}

// SessionClosedError is returned by any operation attempted on a closed
// session.
type SessionClosedError struct{}

func (e *SessionClosedError) Error() string { return "fix: session is closed" }

// BindClosedError is returned by the acceptor's session iterator once
// Server.Close has been called.
type BindClosedError struct{}

func (e *BindClosedError) Error() string { return "fix: server bind closed" }

// UnresponsiveClientError reports an acceptor giving up waiting for the
// first Logon within its accept timeout.
type UnresponsiveClientError struct{}

func (e *UnresponsiveClientError) Error() string { return "fix: client did not send Logon in time" }
