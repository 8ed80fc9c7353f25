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
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fixengine/fixmsg"
)

type storedMsg struct {
	uid       string
	encoded   []byte
	storedAt  time.Time
	seqNum    int
	isSent    bool
}

// MemoryStore is an in-process MessageStore, safe for the single-session
// access pattern where one poll loop owns inbound writes and Send owns
// outbound writes, guarded here by a plain mutex since no cross-process
// sharing is possible.
type MemoryStore struct {
	mu sync.Mutex

	local      int
	localSet   bool
	remote     int
	remoteSet  bool

	byUID    map[string]*storedMsg
	sentIdx  map[int]string
	recvIdx  map[int]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUID:   make(map[string]*storedMsg),
		sentIdx: make(map[int]string),
		recvIdx: make(map[int]string),
	}
}

func (s *MemoryStore) GetLocal() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.localSet {
		s.local = 1
		s.localSet = true
	}
	return s.local, nil
}

func (s *MemoryStore) GetRemote() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.remoteSet {
		s.remote = 1
		s.remoteSet = true
	}
	return s.remote, nil
}

func (s *MemoryStore) IncrLocal() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.localSet {
		s.local = 1
		s.localSet = true
	}
	s.local++
	return s.local, nil
}

func (s *MemoryStore) IncrRemote() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.remoteSet {
		s.remote = 1
		s.remoteSet = true
	}
	s.remote++
	return s.remote, nil
}

func (s *MemoryStore) SetLocal(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = n
	s.localSet = true
	return nil
}

func (s *MemoryStore) SetRemote(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = n
	s.remoteSet = true
	return nil
}

func (s *MemoryStore) StoreMsg(msg *fixmsg.FixMessage, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seqNum, ok := msg.SeqNum()
	if !ok {
		return &fixmsg.InvalidMessageError{Reason: "cannot store a message with no MsgSeqNum"}
	}

	senderOfMsg, _ := msg.Get(49) // TagSenderCompID
	isSent := senderOfMsg == sender

	idx := s.recvIdx
	if isSent {
		idx = s.sentIdx
	}
	if _, exists := idx[seqNum]; exists {
		// Duplicate sequence number within the index: dropped silently.
		return nil
	}

	uid := uuid.NewString()
	msg.UID = uid
	s.byUID[uid] = &storedMsg{
		uid:      uid,
		encoded:  fixmsg.Encode(msg, msg.BeginString()),
		storedAt: time.Now(),
		seqNum:   seqNum,
		isSent:   isSent,
	}
	idx[seqNum] = uid
	return nil
}

func (s *MemoryStore) GetSent(min, max, limit int) ([]*fixmsg.FixMessage, error) {
	return s.GetMsgs(min, max, limit, IndexSent, Ascending)
}

func (s *MemoryStore) GetReceived(min, max, limit int) ([]*fixmsg.FixMessage, error) {
	return s.GetMsgs(min, max, limit, IndexReceived, Ascending)
}

func (s *MemoryStore) GetMsgs(min, max, limit int, index Index, order SortOrder) ([]*fixmsg.FixMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seqNums := make([]int, 0)
	seen := make(map[int]bool)
	collect := func(idx map[int]string) {
		for seq := range idx {
			if max != Unbounded && seq > max {
				continue
			}
			if seq < min {
				continue
			}
			if !seen[seq] {
				seen[seq] = true
				seqNums = append(seqNums, seq)
			}
		}
	}

	switch index {
	case IndexSent:
		collect(s.sentIdx)
	case IndexReceived:
		collect(s.recvIdx)
	case IndexAll:
		collect(s.sentIdx)
		collect(s.recvIdx)
	}

	if order == Ascending {
		sort.Ints(seqNums)
	} else {
		sort.Sort(sort.Reverse(sort.IntSlice(seqNums)))
	}

	if limit != Unbounded && len(seqNums) > limit {
		seqNums = seqNums[:limit]
	}

	out := make([]*fixmsg.FixMessage, 0, len(seqNums))
	for _, seq := range seqNums {
		var uid string
		switch index {
		case IndexSent:
			uid = s.sentIdx[seq]
		case IndexReceived:
			uid = s.recvIdx[seq]
		case IndexAll:
			if u, ok := s.sentIdx[seq]; ok {
				uid = u
			} else {
				uid = s.recvIdx[seq]
			}
		}
		stored := s.byUID[uid]
		if stored == nil {
			continue
		}
		msg, err := decodeStored(stored.encoded)
		if err != nil {
			continue
		}
		msg.UID = stored.uid
		out = append(out, msg)
	}
	return out, nil
}

func decodeStored(encoded []byte) (*fixmsg.FixMessage, error) {
	p := fixmsg.NewParser()
	p.AppendBuffer(encoded)
	msg, err, ok := p.GetMessage()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &fixmsg.InvalidMessageError{Reason: "stored message failed to re-decode"}
	}
	return msg, nil
}

func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUID = make(map[string]*storedMsg)
	s.sentIdx = make(map[int]string)
	s.recvIdx = make(map[int]string)
	s.local = 1
	s.localSet = true
	s.remote = 2
	s.remoteSet = true
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
