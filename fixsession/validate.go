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
	"fixengine/fixmsg"
	"fixengine/fixtag"
)

// Kind discriminates the outcome of validating one inbound message. Go has
// no sum types, so Kind plus the payload fields on Verdict carry the result
// a caller branches on instead of catching an exception.
type Kind int

const (
	// KindOK: header valid, sequence exactly in order (gap == 0). The
	// message is persisted and the remote counter advances.
	KindOK Kind = iota
	// KindExempt: header valid, sequence numerically out of order, but the
	// message is one of the kinds exempted from the gap check (a
	// reset-mode SequenceReset, a reset-mode Logon, or a PossDup
	// duplicate). Dispatch proceeds, but the message is not persisted and
	// the remote counter is not advanced by it — only gap == 0 does that.
	KindExempt
	// KindHeaderError: a required tag is missing or holds an unexpected
	// value. A Reject<3> is sent; the poll loop continues.
	KindHeaderError
	// KindFatalHeader: the message lacks even a MsgSeqNum, so sequence
	// checking cannot proceed. Closes the session.
	KindFatalHeader
	// KindGap: MsgSeqNum is ahead of expected. A ResendRequest is sent
	// and the message itself is dropped: it is neither stored, dispatched,
	// nor yielded, and is not buffered for later delivery.
	KindGap
	// KindFatalGap: MsgSeqNum is behind expected and not a duplicate.
	// Closes the session.
	KindFatalGap
)

// Verdict is the result of validating one inbound message: header checks
// plus the sequence-integrity comparison against the store's remote
// counter.
type Verdict struct {
	Kind Kind

	// Populated when Kind == KindHeaderError or KindFatalHeader.
	Tag    fixtag.Tag
	Reason int // fixtag.RejectReasonRequiredTagMissing / RejectReasonValueIsIncorrect

	// Populated when Kind == KindExempt, KindGap, or KindFatalGap.
	Gap int
}

func ok() Verdict      { return Verdict{Kind: KindOK} }
func exempt(n int) Verdict { return Verdict{Kind: KindExempt, Gap: n} }
func headerError(tag fixtag.Tag, reason int) Verdict {
	return Verdict{Kind: KindHeaderError, Tag: tag, Reason: reason}
}
func fatalHeader(tag fixtag.Tag) Verdict {
	return Verdict{Kind: KindFatalHeader, Tag: tag, Reason: fixtag.RejectReasonRequiredTagMissing}
}
func gap(n int) Verdict      { return Verdict{Kind: KindGap, Gap: n} }
func fatalGap(n int) Verdict { return Verdict{Kind: KindFatalGap, Gap: n} }

// validateHeader checks the required-tag and identity rules for an inbound
// message's header. It does not look at sequence numbers; sequence
// integrity is layered on top by validateSequence once the header is
// known-good enough to carry a MsgSeqNum.
func (s *Session) validateHeader(msg *fixmsg.FixMessage) Verdict {
	for _, tag := range fixtag.HeaderRequired {
		if _, ok := msg.Get(tag); !ok {
			if tag == fixtag.TagMsgSeqNum {
				return fatalHeader(tag)
			}
			return headerError(tag, fixtag.RejectReasonRequiredTagMissing)
		}
	}

	if begin, _ := msg.Get(fixtag.TagBeginString); begin != s.config.BeginString {
		return headerError(fixtag.TagBeginString, fixtag.RejectReasonValueIsIncorrect)
	}
	if target, _ := msg.Get(fixtag.TagTargetCompID); target != s.config.SenderCompID {
		return headerError(fixtag.TagTargetCompID, fixtag.RejectReasonValueIsIncorrect)
	}
	if sender, _ := msg.Get(fixtag.TagSenderCompID); sender != s.config.TargetCompID {
		return headerError(fixtag.TagSenderCompID, fixtag.RejectReasonValueIsIncorrect)
	}
	if msg.MsgType() == fixtag.MsgTypeLogon {
		if hb, hasHb := msg.GetInt(fixtag.TagHeartBtInt); hasHb && hb != int(s.config.HeartBtIntOrDefault().Seconds()) {
			return headerError(fixtag.TagHeartBtInt, fixtag.RejectReasonValueIsIncorrect)
		}
	}
	return ok()
}

// validateSequence compares an inbound message's MsgSeqNum against
// expected, the store's current remote counter. A reset-mode SequenceReset
// is exempt from both directions (it is, by definition, resynchronizing the
// counter); a reset-mode Logon is exempt only from the negative-gap fatal
// check, which does not extend to the positive-gap ResendRequest branch.
// Exempted nonzero-gap messages return KindExempt rather than KindOK: only
// an exact gap of zero causes the message to be persisted and the remote
// counter to advance.
func validateSequence(msg *fixmsg.FixMessage, expected int) Verdict {
	seqNum, _ := msg.SeqNum()
	g := seqNum - expected
	if g == 0 {
		return ok()
	}
	if g > 0 {
		if isResetModeSequenceReset(msg) {
			return exempt(g)
		}
		return gap(g)
	}
	if msg.IsPossDup() || isResetModeSequenceReset(msg) || isResetLogon(msg) {
		return exempt(g)
	}
	return fatalGap(g)
}

func isResetModeSequenceReset(msg *fixmsg.FixMessage) bool {
	if msg.MsgType() != fixtag.MsgTypeSequenceReset {
		return false
	}
	gapFill, _ := msg.Get(fixtag.TagGapFillFlag)
	return gapFill != "Y"
}

func isResetLogon(msg *fixmsg.FixMessage) bool {
	if msg.MsgType() != fixtag.MsgTypeLogon {
		return false
	}
	reset, _ := msg.Get(fixtag.TagResetSeqNumFlag)
	return reset == "Y"
}
