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

package fixbuild

import (
	"fixengine/fixmsg"
	"fixengine/fixtag"
)

// The business-message catalog (NewOrderSingle, ExecutionReport, etc.) is
// out of scope for this engine: business bodies are opaque payload that the
// session neither builds nor interprets. NewOrderSingle exists here only
// because spec scenarios S5/S6 (resend fidelity, out-of-sequence recovery)
// exercise the session with "an application message" and the test suite
// needs one concrete, minimal example to stand in for "any non-admin
// message" without reaching for a full per-message type generator - which
// is explicitly out of scope (spec PURPOSE & SCOPE: "A separate
// dictionary/schema component... is scaffolding around the core").
const MsgTypeNewOrderSingle = "D"

// NewOrderSingleFields is the minimal opaque payload used by tests to stand
// in for a real application message.
type NewOrderSingleFields struct {
	ClOrdID string
	Symbol  string
	Side    string
}

// BuildNewOrderSingle creates a minimal New Order Single (D) test fixture.
func BuildNewOrderSingle(f NewOrderSingleFields) *fixmsg.FixMessage {
	msg := fixmsg.New(MsgTypeNewOrderSingle)
	msg.AppendBody(fixtag.Tag(11), f.ClOrdID) // ClOrdID
	msg.AppendBody(fixtag.Tag(55), f.Symbol)  // Symbol
	msg.AppendBody(fixtag.Tag(54), f.Side)    // Side
	return msg
}
