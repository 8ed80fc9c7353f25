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
	"fmt"

	"fixengine/fixbuild"
	"fixengine/fixerrors"
	"fixengine/fixmsg"
	"fixengine/fixtag"
)

// handleInbound runs per-message processing for one inbound frame: header
// validation, sequence integrity, admin dispatch, then delivery to the
// application if the message is not a session-layer admin type and is
// either in-sequence or an exempted PossDup duplicate. It always runs on the
// poll loop goroutine.
//
// Only an exact sequence match (gap == 0) persists the message and advances
// the remote counter; the exempted nonzero-gap cases (a reset-mode
// SequenceReset or Logon, or a PossDup duplicate) still reach admin dispatch
// below, but leave the store and remote counter untouched.
func (s *Session) handleInbound(msg *fixmsg.FixMessage) {
	hv := s.validateHeader(msg)
	switch hv.Kind {
	case KindFatalHeader:
		s.fail(&fixerrors.MissingTagError{Tag: int(fixtag.TagMsgSeqNum)})
		return
	case KindHeaderError:
		s.replyReject(msg, hv)
		return
	}

	expected, err := s.store.GetRemote()
	if err != nil {
		s.log.WithError(err).Warn("failed to read remote sequence counter")
		return
	}

	sv := validateSequence(msg, expected)
	switch sv.Kind {
	case KindGap:
		s.handleGap(expected, sv.Gap)
		return
	case KindFatalGap:
		s.fail(&fixerrors.FatalSequenceGapError{Gap: sv.Gap})
		return
	}

	if sv.Kind == KindOK {
		if err := s.store.StoreMsg(msg, s.config.SenderCompID); err != nil {
			s.log.WithError(err).Warn("failed to store inbound message")
		}
		if _, err := s.store.IncrRemote(); err != nil {
			s.log.WithError(err).Warn("failed to advance remote sequence counter")
		}

		logoutResendPending := s.clearWaitResend(msg)
		if logoutResendPending {
			s.adminReply(fixbuild.BuildLogout(), true)
			_ = s.Close()
			return
		}
	}

	s.dispatchAdmin(msg)
}

// handleGap sends a ResendRequest and sets WAIT_RESEND, unless one is
// already outstanding.
func (s *Session) handleGap(expected, gap int) {
	s.mu.Lock()
	already := s.flags.Has(FlagWaitResend)
	if !already {
		s.flags |= FlagWaitResend
	}
	s.mu.Unlock()
	if already {
		return
	}
	s.log.Infof("sequence gap of %d detected, requesting resend from %d", gap, expected)
	s.adminReply(fixbuild.BuildResendRequest(expected, 0), true)
}

// clearWaitResend clears WAIT_RESEND once a non-duplicate in-sequence
// message arrives, and reports whether a deferred Logout (LOGOUT_RESEND)
// should now be sent.
func (s *Session) clearWaitResend(msg *fixmsg.FixMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.flags.Has(FlagWaitResend) || msg.IsPossDup() {
		return false
	}
	s.flags &^= FlagWaitResend
	if s.flags.Has(FlagLogoutResend) {
		s.flags &^= FlagLogoutResend
		return true
	}
	return false
}

// dispatchAdmin routes a header/sequence-valid inbound message to its
// session-layer handler, or delivers it to the application. Duplicate admin
// messages (PossDupFlag='Y') are dropped before dispatch, except
// SequenceReset, which must still be reprocessed on resend.
func (s *Session) dispatchAdmin(msg *fixmsg.FixMessage) {
	if msg.IsPossDup() && msg.IsAdmin() && msg.MsgType() != fixtag.MsgTypeSequenceReset {
		seqNum, _ := msg.SeqNum()
		s.log.Debugf("dropping duplicate admin message seq=%d type=%s", seqNum, msg.MsgType())
		return
	}
	switch msg.MsgType() {
	case fixtag.MsgTypeLogon:
		s.handleLogon(msg)
	case fixtag.MsgTypeLogout:
		s.handleLogout(msg)
	case fixtag.MsgTypeHeartbeat:
		// No action beyond the sequence bookkeeping already performed.
	case fixtag.MsgTypeTestRequest:
		s.handleTestRequest(msg)
	case fixtag.MsgTypeReject:
		text, _ := msg.Get(fixtag.TagText)
		s.log.Warnf("received Reject: %s", text)
	case fixtag.MsgTypeResendRequest:
		s.handleResendRequest(msg)
	case fixtag.MsgTypeSequenceReset:
		s.handleSequenceReset(msg)
	default:
		s.deliver(msg)
	}
}

// deliver hands a business message to the application via Receive. It
// blocks (subject to closeCh) if no one is currently receiving, providing
// natural backpressure against an application that isn't keeping up.
func (s *Session) deliver(msg *fixmsg.FixMessage) {
	select {
	case s.inboundCh <- msg:
	case <-s.closeCh:
	}
}

// handleLogon processes an inbound Logon, including the reset-mode
// handshake.
func (s *Session) handleLogon(msg *fixmsg.FixMessage) {
	resetFlag, _ := msg.Get(fixtag.TagResetSeqNumFlag)
	if resetFlag == "Y" {
		s.mu.Lock()
		wasPending := s.resetRequestPending
		s.resetRequestPending = false
		s.mu.Unlock()

		if err := s.store.Reset(); err != nil {
			s.log.WithError(err).Warn("failed to reset store on Logon reset-mode")
		}
		if !wasPending {
			reply := fixbuild.BuildLogon(int(s.config.HeartBtIntOrDefault().Seconds()), true)
			s.adminReply(reply, false)
		}
		s.mu.Lock()
		s.flags |= FlagLoggedOn
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	wasInit := s.flags.Has(FlagInitLogon)
	if wasInit {
		s.flags &^= FlagInitLogon
	}
	s.flags |= FlagLoggedOn
	s.mu.Unlock()

	if !wasInit {
		reply := fixbuild.BuildLogon(int(s.config.HeartBtIntOrDefault().Seconds()), false)
		s.adminReply(reply, true)
	}
}

// handleLogout replies and closes the session, unless a resend is in
// progress, in which case the reply and close are deferred to
// clearWaitResend's LOGOUT_RESEND path.
func (s *Session) handleLogout(msg *fixmsg.FixMessage) {
	s.mu.Lock()
	waitingForResend := s.flags.Has(FlagWaitResend)
	weInitiated := s.flags.Has(FlagWaitLogout)
	s.flags &^= FlagLoggedOn
	if waitingForResend {
		s.flags |= FlagLogoutResend
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if !weInitiated {
		s.adminReply(fixbuild.BuildLogout(), true)
	}
	_ = s.Close()
}

func (s *Session) handleTestRequest(msg *fixmsg.FixMessage) {
	testReqID, _ := msg.Get(fixtag.TagTestReqID)
	s.adminReply(fixbuild.BuildHeartbeat(testReqID), true)
}

// handleSequenceReset processes an inbound SequenceReset. In the reset-mode
// branch (GapFillFlag absent/'N'), a NewSeqNo below the current expected
// remote counter is rejected with a Reject<3> and the counter is left
// untouched; see DESIGN.md for why a reject does not also apply the update.
func (s *Session) handleSequenceReset(msg *fixmsg.FixMessage) {
	newSeqNo, _ := msg.GetInt(fixtag.TagNewSeqNo)
	gapFillFlag, _ := msg.Get(fixtag.TagGapFillFlag)

	if gapFillFlag == "Y" {
		if err := s.store.SetRemote(newSeqNo); err != nil {
			s.log.WithError(err).Warn("failed to apply gap-fill SequenceReset")
		}
		return
	}

	expected, err := s.store.GetRemote()
	if err != nil {
		s.log.WithError(err).Warn("failed to read remote sequence counter")
		return
	}
	if newSeqNo < expected {
		seqNum, _ := msg.SeqNum()
		s.adminReply(fixbuild.BuildReject(fixbuild.RejectParams{
			RefSeqNum:  seqNum,
			RefTagID:   int(fixtag.TagNewSeqNo),
			RefMsgType: fixtag.MsgTypeSequenceReset,
			Reason:     fixtag.RejectReasonValueIsIncorrect,
			Text:       fmt.Sprintf("NewSeqNo %d is less than expected remote sequence %d", newSeqNo, expected),
		}), true)
		return
	}
	if err := s.store.SetRemote(newSeqNo); err != nil {
		s.log.WithError(err).Warn("failed to apply reset-mode SequenceReset")
	}
}

func (s *Session) replyReject(msg *fixmsg.FixMessage, v Verdict) {
	seqNum, _ := msg.SeqNum()
	s.adminReply(fixbuild.BuildReject(fixbuild.RejectParams{
		RefSeqNum:  seqNum,
		RefTagID:   int(v.Tag),
		RefMsgType: msg.MsgType(),
		Reason:     v.Reason,
		Text:       rejectReasonText(v.Tag, v.Reason),
	}), true)
}

func rejectReasonText(tag fixtag.Tag, reason int) string {
	switch reason {
	case fixtag.RejectReasonRequiredTagMissing:
		return fmt.Sprintf("required tag %d missing", tag)
	case fixtag.RejectReasonValueIsIncorrect:
		return fmt.Sprintf("tag %d value is incorrect", tag)
	default:
		return fmt.Sprintf("tag %d rejected", tag)
	}
}
