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

// Package fixbuild provides message factories for the session-layer
// administrative messages: one small function per message type, setting
// only the fields that type needs, built against the dependency-free
// fixmsg.FixMessage.
package fixbuild

import (
	"strconv"

	"github.com/google/uuid"

	"fixengine/fixmsg"
	"fixengine/fixtag"
)

// BuildLogon creates a Logon<A> message. When reset is true, ResetSeqNumFlag
// is set to 'Y' and MsgSeqNum is preset to 1; the caller sends it with incr
// suppressed (fixsession.Session.ResetSeqNums).
func BuildLogon(hbInt int, reset bool) *fixmsg.FixMessage {
	msg := fixmsg.New(fixtag.MsgTypeLogon)
	msg.AppendBody(fixtag.TagEncryptMethod, fixtag.EncryptMethodNone)
	msg.AppendBody(fixtag.TagHeartBtInt, strconv.Itoa(hbInt))
	if reset {
		msg.AppendHeader(fixtag.TagMsgSeqNum, "1")
		msg.AppendBody(fixtag.TagResetSeqNumFlag, "Y")
	}
	return msg
}

// BuildLogout creates a Logout<5> message.
func BuildLogout() *fixmsg.FixMessage {
	return fixmsg.New(fixtag.MsgTypeLogout)
}

// BuildHeartbeat creates a Heartbeat<0> message, optionally echoing a
// TestReqID<112> in reply to a TestRequest.
func BuildHeartbeat(testReqID string) *fixmsg.FixMessage {
	msg := fixmsg.New(fixtag.MsgTypeHeartbeat)
	if testReqID != "" {
		msg.AppendBody(fixtag.TagTestReqID, testReqID)
	}
	return msg
}

// BuildTestRequest creates a TestRequest<1> message. If testReqID is empty a
// fresh UUID is generated.
func BuildTestRequest(testReqID string) *fixmsg.FixMessage {
	if testReqID == "" {
		testReqID = uuid.NewString()
	}
	msg := fixmsg.New(fixtag.MsgTypeTestRequest)
	msg.AppendBody(fixtag.TagTestReqID, testReqID)
	return msg
}

// BuildResendRequest creates a ResendRequest<2> message. endSeqNo of 0 means
// "through infinity" on both the requesting and responding side.
func BuildResendRequest(beginSeqNo, endSeqNo int) *fixmsg.FixMessage {
	msg := fixmsg.New(fixtag.MsgTypeResendRequest)
	msg.AppendBody(fixtag.TagBeginSeqNo, strconv.Itoa(beginSeqNo))
	msg.AppendBody(fixtag.TagEndSeqNo, strconv.Itoa(endSeqNo))
	return msg
}

// BuildSequenceReset creates a SequenceReset<4> message. When gapFill is
// true, GapFillFlag is 'Y' (used to coalesce skipped admin messages during a
// resend reply); otherwise it is 'N' (reset-mode, used only by the out-of-
// band store reset path, which this engine drives via Logon<141>=Y instead).
func BuildSequenceReset(newSeqNo int, gapFill bool) *fixmsg.FixMessage {
	msg := fixmsg.New(fixtag.MsgTypeSequenceReset)
	msg.AppendBody(fixtag.TagNewSeqNo, strconv.Itoa(newSeqNo))
	if gapFill {
		msg.AppendBody(fixtag.TagGapFillFlag, "Y")
	} else {
		msg.AppendBody(fixtag.TagGapFillFlag, "N")
	}
	return msg
}

// BuildGapFill creates the SequenceReset-GapFill used to collapse a run of
// stored administrative messages during a resend reply: seqNum is the
// MsgSeqNum of the first collapsed message, newSeqNo is one past the last.
func BuildGapFill(seqNum, newSeqNo int) *fixmsg.FixMessage {
	msg := BuildSequenceReset(newSeqNo, true)
	msg.AppendHeader(fixtag.TagMsgSeqNum, strconv.Itoa(seqNum))
	return msg
}

// RejectParams carries the fields needed to build a session-level Reject<3>.
type RejectParams struct {
	RefSeqNum  int
	RefTagID   int
	RefMsgType string
	Reason     int
	Text       string
}

// BuildReject creates a Reject<3> message referencing the offending tag and
// a SessionRejectReason code (fixtag.RejectReasonRequiredTagMissing or
// fixtag.RejectReasonValueIsIncorrect).
func BuildReject(p RejectParams) *fixmsg.FixMessage {
	msg := fixmsg.New(fixtag.MsgTypeReject)
	msg.AppendBody(fixtag.TagRefSeqNum, strconv.Itoa(p.RefSeqNum))
	msg.AppendBody(fixtag.TagText, p.Text)
	msg.AppendBody(fixtag.TagRefTagID, strconv.Itoa(p.RefTagID))
	msg.AppendBody(fixtag.TagRefMsgType, p.RefMsgType)
	msg.AppendBody(fixtag.TagSessionRejectReason, strconv.Itoa(p.Reason))
	return msg
}
