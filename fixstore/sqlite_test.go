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
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, sessionKey string) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := OpenSQLiteStore(path, sessionKey)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_CountersInitializeToOne(t *testing.T) {
	s := openTestStore(t, "US:THEM")
	local, err := s.GetLocal()
	if err != nil || local != 1 {
		t.Fatalf("expected local=1, got %d err=%v", local, err)
	}
	remote, err := s.GetRemote()
	if err != nil || remote != 1 {
		t.Fatalf("expected remote=1, got %d err=%v", remote, err)
	}
}

func TestSQLiteStore_IncrLocalAndIncrRemote(t *testing.T) {
	s := openTestStore(t, "US:THEM")
	first, err := s.IncrLocal()
	if err != nil || first != 2 {
		t.Fatalf("expected 2, got %d err=%v", first, err)
	}
	second, err := s.IncrRemote()
	if err != nil || second != 2 {
		t.Fatalf("expected 2, got %d err=%v", second, err)
	}
}

func TestSQLiteStore_StoreAndRetrieveBySenderRole(t *testing.T) {
	s := openTestStore(t, "US:THEM")
	sent := makeMsg(1, "US", "THEM")
	recv := makeMsg(1, "THEM", "US")

	if err := s.StoreMsg(sent, "US"); err != nil {
		t.Fatalf("store sent: %v", err)
	}
	if err := s.StoreMsg(recv, "US"); err != nil {
		t.Fatalf("store received: %v", err)
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

func TestSQLiteStore_DuplicateSeqNumDroppedSilently(t *testing.T) {
	s := openTestStore(t, "US:THEM")
	if err := s.StoreMsg(makeMsg(1, "US", "THEM"), "US"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.StoreMsg(makeMsg(1, "US", "THEM"), "US"); err != nil {
		t.Fatalf("duplicate insert should be a silent no-op, got error: %v", err)
	}
	msgs, err := s.GetSent(0, 0, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("expected 1 message after duplicate store, got %d err=%v", len(msgs), err)
	}
}

func TestSQLiteStore_GetMsgsRangeAndOrder(t *testing.T) {
	s := openTestStore(t, "US:THEM")
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
	first, _ := asc[0].SeqNum()
	last, _ := asc[2].SeqNum()
	if first != 2 || last != 4 {
		t.Fatalf("expected ascending 2..4, got first=%d last=%d", first, last)
	}

	desc, err := s.GetMsgs(2, 4, 0, IndexSent, Descending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top, _ := desc[0].SeqNum(); top != 4 {
		t.Fatalf("expected descending order to start at 4, got %d", top)
	}
}

func TestSQLiteStore_ResetClearsMessagesAndCrossesCounters(t *testing.T) {
	s := openTestStore(t, "US:THEM")
	if err := s.StoreMsg(makeMsg(1, "US", "THEM"), "US"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetLocal(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetRemote(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

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

func TestSQLiteStore_SessionsAreIsolatedBySessionKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	a, err := OpenSQLiteStore(path, "A:B")
	if err != nil {
		t.Fatalf("open A: %v", err)
	}
	defer a.Close()
	b, err := OpenSQLiteStore(path, "B:A")
	if err != nil {
		t.Fatalf("open B: %v", err)
	}
	defer b.Close()

	if err := a.StoreMsg(makeMsg(1, "A", "B"), "A"); err != nil {
		t.Fatalf("store in A: %v", err)
	}
	if err := a.SetLocal(9); err != nil {
		t.Fatalf("set local in A: %v", err)
	}

	bMsgs, err := b.GetSent(0, 0, 0)
	if err != nil || len(bMsgs) != 0 {
		t.Fatalf("expected session B to see no messages from A, got %d err=%v", len(bMsgs), err)
	}
	bLocal, err := b.GetLocal()
	if err != nil || bLocal != 1 {
		t.Fatalf("expected session B's counter to be unaffected by A, got %d err=%v", bLocal, err)
	}
}
