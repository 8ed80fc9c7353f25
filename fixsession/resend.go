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
	"fixengine/fixbuild"
	"fixengine/fixmsg"
	"fixengine/fixstore"
	"fixengine/fixtag"
)

// handleResendRequest replies to an inbound ResendRequest: stored admin
// messages in range are coalesced into SequenceReset-GapFill runs;
// application messages are replayed verbatim with PossDupFlag and
// OrigSendingTime set. Everything is sent with incr=false so the local
// counter is not advanced by the replay.
func (s *Session) handleResendRequest(msg *fixmsg.FixMessage) {
	beginSeqNo, _ := msg.GetInt(fixtag.TagBeginSeqNo)
	endSeqNo, _ := msg.GetInt(fixtag.TagEndSeqNo) // 0 means "through infinity"; fixstore.Unbounded shares that value

	sent, err := s.store.GetSent(beginSeqNo, endSeqNo, fixstore.Unbounded)
	if err != nil {
		s.log.WithError(err).Warn("resend: failed to load sent messages")
		return
	}

	var run adminRun
	for _, m := range sent {
		seqNum, ok := m.SeqNum()
		if !ok {
			continue
		}
		if m.IsAdmin() {
			run.extend(seqNum)
			continue
		}
		s.flushAdminRun(&run)
		s.adminReply(cloneForResend(m), false)
	}
	s.flushAdminRun(&run)
}

// adminRun tracks a contiguous stretch of stored admin messages awaiting
// coalescing into a single SequenceReset-GapFill.
type adminRun struct {
	open  bool
	start int
	next  int
}

func (r *adminRun) extend(seqNum int) {
	if !r.open {
		r.start = seqNum
		r.open = true
	}
	r.next = seqNum + 1
}

func (s *Session) flushAdminRun(r *adminRun) {
	if !r.open {
		return
	}
	s.adminReply(fixbuild.BuildGapFill(r.start, r.next), false)
	r.open = false
}

// cloneForResend copies m's fields and marks it a resend: PossDupFlag='Y',
// OrigSendingTime set from the original SendingTime. MsgSeqNum is left as
// it was on the original message, so the reply carries its original
// sequence number.
func cloneForResend(m *fixmsg.FixMessage) *fixmsg.FixMessage {
	clone := &fixmsg.FixMessage{
		Header: append([]fixmsg.Field(nil), m.Header...),
		Body:   append([]fixmsg.Field(nil), m.Body...),
	}
	origSendingTime, _ := clone.Get(fixtag.TagSendingTime)
	clone.Set(fixtag.TagPossDupFlag, "Y")
	clone.Set(fixtag.TagOrigSendingTime, origSendingTime)
	return clone
}
