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

// Benchmarks for the wire codec and parser.
// Run with: go test -bench=. -benchmem ./fixmsg/
package fixmsg

import (
	"testing"

	"fixengine/fixtag"
)

func benchMessage() *FixMessage {
	msg := New(fixtag.MsgTypeHeartbeat)
	msg.AppendHeader(fixtag.TagMsgSeqNum, "12345")
	msg.AppendHeader(fixtag.TagSenderCompID, "INITIATOR")
	msg.AppendHeader(fixtag.TagTargetCompID, "ACCEPTOR")
	msg.AppendHeader(fixtag.TagSendingTime, "20250101-12:00:00.000000")
	return msg
}

func BenchmarkEncode(b *testing.B) {
	msg := benchMessage()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Encode(msg, "FIX.4.2")
	}
}

func BenchmarkParser_GetMessage(b *testing.B) {
	frame := Encode(benchMessage(), "FIX.4.2")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := NewParser()
		p.AppendBuffer(frame)
		_, _, _ = p.GetMessage()
	}
}

func BenchmarkParser_ManyMessagesInOneBuffer(b *testing.B) {
	frame := Encode(benchMessage(), "FIX.4.2")
	batch := make([]byte, 0, len(frame)*100)
	for i := 0; i < 100; i++ {
		batch = append(batch, frame...)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := NewParser()
		p.AppendBuffer(batch)
		for {
			_, _, ok := p.GetMessage()
			if !ok {
				break
			}
		}
	}
}
