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

// Package fixmsg implements the FIX wire codec: the FixMessage value type,
// SOH-delimited tag=value encoding with BodyLength/CheckSum computation, and
// an incremental parser over a byte stream. FixMessage is a self-contained,
// dependency-free message representation with ordered field access.
package fixmsg

import (
	"strconv"

	"fixengine/fixtag"
)

// SOH is the FIX field delimiter, ASCII 0x01.
const SOH = byte(0x01)

// Field is a single tag=value pair. Repeating-group members are preserved
// as ordered duplicate pairs; the codec never reinterprets group structure.
type Field struct {
	Tag   fixtag.Tag
	Value string
}

// FixMessage is an ordered sequence of header and body fields. The trailer
// (CheckSum, tag 10) is implicit and computed at encode time; BodyLength and
// BeginString are written as the first two header fields on encode.
type FixMessage struct {
	// UID is a locally assigned storage key, set by MessageStore.StoreMsg.
	UID string

	Header []Field
	Body   []Field

	cachedSeqNum   int
	haveSeqNum     bool
	cachedMsgType  string
	cachedBegin    string
	cachedPossDup  bool
}

// New returns an empty message with the given MsgType set as the first
// header field after the implicit BeginString/BodyLength pair.
func New(msgType string) *FixMessage {
	m := &FixMessage{}
	m.AppendHeader(fixtag.TagMsgType, msgType)
	return m
}

// AppendHeader appends a field to the header section.
func (m *FixMessage) AppendHeader(tag fixtag.Tag, value string) {
	m.Header = append(m.Header, Field{tag, value})
	m.invalidateCache(tag)
}

// AppendBody appends a field to the body section.
func (m *FixMessage) AppendBody(tag fixtag.Tag, value string) {
	m.Body = append(m.Body, Field{tag, value})
}

func (m *FixMessage) invalidateCache(tag fixtag.Tag) {
	switch tag {
	case fixtag.TagMsgSeqNum:
		m.haveSeqNum = false
	case fixtag.TagMsgType:
		m.cachedMsgType = ""
	case fixtag.TagBeginString:
		m.cachedBegin = ""
	case fixtag.TagPossDupFlag:
		m.cachedPossDup = false
	}
}

// Get returns the first value for tag, searching header then body.
func (m *FixMessage) Get(tag fixtag.Tag) (string, bool) {
	for _, f := range m.Header {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	for _, f := range m.Body {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// GetInt is a convenience wrapper around Get for integer-valued tags.
func (m *FixMessage) GetInt(tag fixtag.Tag) (int, bool) {
	v, ok := m.Get(tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set replaces the first occurrence of tag with value, or appends it to the
// header if not present. Used for PossDupFlag mutation during resend.
func (m *FixMessage) Set(tag fixtag.Tag, value string) {
	for i, f := range m.Header {
		if f.Tag == tag {
			m.Header[i].Value = value
			m.invalidateCache(tag)
			return
		}
	}
	for i, f := range m.Body {
		if f.Tag == tag {
			m.Body[i].Value = value
			return
		}
	}
	m.AppendHeader(tag, value)
}

// Remove deletes every occurrence of tag from header and body.
func (m *FixMessage) Remove(tag fixtag.Tag) {
	m.Header = removeTag(m.Header, tag)
	m.Body = removeTag(m.Body, tag)
	m.invalidateCache(tag)
}

func removeTag(fields []Field, tag fixtag.Tag) []Field {
	out := fields[:0]
	for _, f := range fields {
		if f.Tag != tag {
			out = append(out, f)
		}
	}
	return out
}

// SeqNum returns MsgSeqNum<34>, caching on first access.
func (m *FixMessage) SeqNum() (int, bool) {
	if m.haveSeqNum {
		return m.cachedSeqNum, true
	}
	n, ok := m.GetInt(fixtag.TagMsgSeqNum)
	if ok {
		m.cachedSeqNum = n
		m.haveSeqNum = true
	}
	return n, ok
}

// MsgType returns MsgType<35>, caching on first access.
func (m *FixMessage) MsgType() string {
	if m.cachedMsgType == "" {
		m.cachedMsgType, _ = m.Get(fixtag.TagMsgType)
	}
	return m.cachedMsgType
}

// BeginString returns BeginString<8>, caching on first access.
func (m *FixMessage) BeginString() string {
	if m.cachedBegin == "" {
		m.cachedBegin, _ = m.Get(fixtag.TagBeginString)
	}
	return m.cachedBegin
}

// IsPossDup reports whether PossDupFlag<43> is set to 'Y'.
func (m *FixMessage) IsPossDup() bool {
	v, _ := m.Get(fixtag.TagPossDupFlag)
	return v == "Y"
}

// IsAdmin reports whether this message's MsgType is a session-layer
// administrative type.
func (m *FixMessage) IsAdmin() bool {
	return fixtag.IsAdmin(m.MsgType())
}
