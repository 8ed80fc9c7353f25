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

// Package fixtag holds the session-layer tag/type dictionary shared by every
// other package in this module: a small, version-agnostic constant table.
// The engine treats FIX.4.2, FIX.4.4 and FIXT.1.1 identically at the session
// layer, so the dictionary carries no per-version branching.
package fixtag

// Tag is a FIX field tag number.
type Tag int

// --- Session-layer header/trailer tags ---
const (
	TagBeginString    Tag = 8
	TagBodyLength     Tag = 9
	TagMsgType        Tag = 35
	TagCheckSum       Tag = 10
	TagMsgSeqNum      Tag = 34
	TagSenderCompID   Tag = 49
	TagTargetCompID   Tag = 56
	TagSendingTime    Tag = 52
	TagOrigSendingTime Tag = 122
	TagPossDupFlag    Tag = 43
	TagHeartBtInt     Tag = 108
	TagTestReqID      Tag = 112
	TagGapFillFlag    Tag = 123
	TagResetSeqNumFlag Tag = 141
	TagBeginSeqNo     Tag = 7
	TagEndSeqNo       Tag = 16
	TagNewSeqNo       Tag = 36
	TagEncryptMethod  Tag = 98
	TagRefSeqNum      Tag = 45
	TagRefTagID       Tag = 371
	TagRefMsgType     Tag = 372
	TagSessionRejectReason Tag = 373
	TagText           Tag = 58
)

// --- Session-layer message types ---
const (
	MsgTypeHeartbeat     = "0"
	MsgTypeTestRequest   = "1"
	MsgTypeResendRequest = "2"
	MsgTypeReject        = "3"
	MsgTypeSequenceReset = "4"
	MsgTypeLogout        = "5"
	MsgTypeLogon         = "A"
)

// --- SessionRejectReason (tag 373) values ---
const (
	RejectReasonRequiredTagMissing = 1
	RejectReasonValueIsIncorrect   = 5
)

// --- Protocol constants ---
const (
	FixTimeFormat = "20060102-15:04:05.000000"
	EncryptMethodNone = "0"
)

// AdminMsgTypes is the set of session-layer administrative message types.
// Never resent verbatim during a ResendRequest replay; see fixsession.
var AdminMsgTypes = map[string]bool{
	MsgTypeLogon:         true,
	MsgTypeLogout:        true,
	MsgTypeHeartbeat:     true,
	MsgTypeTestRequest:   true,
	MsgTypeResendRequest: true,
	MsgTypeSequenceReset: true,
}

// IsAdmin reports whether msgType is a session-layer administrative type.
func IsAdmin(msgType string) bool {
	return AdminMsgTypes[msgType]
}

// HeaderRequired lists the tags every inbound message must carry.
var HeaderRequired = []Tag{
	TagBeginString,
	TagBodyLength,
	TagTargetCompID,
	TagSenderCompID,
	TagSendingTime,
	TagMsgSeqNum,
	TagMsgType,
}
