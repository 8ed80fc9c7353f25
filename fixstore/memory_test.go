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

package fixstore

import (
	"testing"

	"fixengine/fixmsg"
	"fixengine/fixtag"
)

// Tests for MemoryStore behavior: counters, sent/received indexing, range
// queries, and reset semantics.

func makeMsg(seqNum int, sender, target string) *fixmsg.FixMessage {
	msg := fixmsg.New(fixtag.MsgTypeHeartbeat)
	msg.AppendHeader(fixtag.TagBeginString, "FIX.4.2")
	msg.AppendHeader(fixtag.TagMsgSeqNum, itoa(seqNum))
	msg.AppendHeader(fixtag.TagSenderCompID, sender)
	msg.AppendHeader(fixtag.TagTargetCompID, target)
	msg.AppendHeader(fixtag.TagSendingTime, "20250101-00:00:00.000000")
	return msg
}

func itoa(n int) string {
	digits := []byte{}
	if n == 0 {
		return "0"
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestMemoryStore_CountersInitializeToOne(t *testing.T) {
	s := NewMemoryStore()
	local, err := s.GetLocal()
	if err != nil || local != 1 {
		t.Fatalf("expected local=1, got %d err=%v", local, err)
	}
	remote, err := s.GetRemote()
	if err != nil || remote != 1 {
		t.Fatalf("expected remote=1, got %d err=%v", remote, err)
	}
}

func TestMemoryStore_IncrLocalIncrements(t *testing.T) {
	s := NewMemoryStore()
	first, _ := s.IncrLocal()
	second, _ := s.IncrLocal()
	if first != 2 || second != 3 {
		t.Fatalf("expected 2 then 3, got %d then %d", first, second)
	}
}

func TestMemoryStore_IncrRemoteInitializesThenIncrements(t *testing.T) {
	s := NewMemoryStore()
	first, _ := s.IncrRemote()
	if first != 2 {
		t.Fatalf("expected first IncrRemote to yield 2 (init at 1, then incr), got %d", first)
	}
}

func TestMemoryStore_StoreMsgIndexesBySenderRole(t *testing.T) {
	s := NewMemoryStore()
	sent := makeMsg(1, "US", "THEM")
	recv := makeMsg(1, "THEM", "US")

	if err := s.StoreMsg(sent, "US"); err != nil {
		t.Fatalf("unexpected error storing sent message: %v", err)
	}
	if err := s.StoreMsg(recv, "US"); err != nil {
		t.Fatalf("unexpected error storing received message: %v", err)
	}

	sentMsgs, err := s.GetSent(0, 0, 0)
	if err != nil || len(sentMsgs) != 1 {
		t.Fatalf("expected 1 sent message, got %d err=%v", len(sentMsgs), err)
	}
	recvMsgs, err := s.GetReceived(0, 0, 0)
	if err != nil || len(recvMsgs) != 1 {
		t.Fatalf("expected 1 received message, got %d err=%v", len(recvMsgs), err)
	}
}

func TestMemoryStore_GetMsgsRangeAndOrder(t *testing.T) {
	s := NewMemoryStore()
	for i := 1; i <= 5; i++ {
		if err := s.StoreMsg(makeMsg(i, "US", "THEM"), "US"); err != nil {
			t.Fatalf("store failed at seq %d: %v", i, err)
		}
	}

	asc, err := s.GetMsgs(2, 4, 0, IndexSent, Ascending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asc) != 3 {
		t.Fatalf("expected 3 messages in range [2,4], got %d", len(asc))
	}
	seq0, _ := asc[0].SeqNum()
	seq2, _ := asc[2].SeqNum()
	if seq0 != 2 || seq2 != 4 {
		t.Fatalf("expected ascending order 2..4, got first=%d last=%d", seq0, seq2)
	}

	desc, err := s.GetMsgs(2, 4, 0, IndexSent, Descending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := desc[0].SeqNum()
	if first != 4 {
		t.Fatalf("expected descending order to start at 4, got %d", first)
	}
}

func TestMemoryStore_DuplicateSeqNumDroppedSilently(t *testing.T) {
	s := NewMemoryStore()
	if err := s.StoreMsg(makeMsg(1, "US", "THEM"), "US"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.StoreMsg(makeMsg(1, "US", "THEM"), "US"); err != nil {
		t.Fatalf("duplicate store should be a silent no-op, got error: %v", err)
	}
	msgs, _ := s.GetSent(0, 0, 0)
	if len(msgs) != 1 {
		t.Fatalf("expected duplicate to be dropped, got %d messages", len(msgs))
	}
}

func TestMemoryStore_ResetClearsMessagesAndCrossesCounters(t *testing.T) {
	s := NewMemoryStore()
	s.StoreMsg(makeMsg(1, "US", "THEM"), "US")
	s.SetLocal(5)
	s.SetRemote(7)

	if err := s.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	local, _ := s.GetLocal()
	remote, _ := s.GetRemote()
	if local != 1 || remote != 2 {
		t.Fatalf("expected local=1 remote=2 after reset, got local=%d remote=%d", local, remote)
	}
	msgs, _ := s.GetMsgs(0, 0, 0, IndexAll, Ascending)
	if len(msgs) != 0 {
		t.Fatalf("expected reset to clear all stored messages, got %d", len(msgs))
	}
}
