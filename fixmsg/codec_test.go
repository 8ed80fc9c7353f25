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

package fixmsg

import (
	"strings"
	"testing"

	"fixengine/fixtag"
)

// Tests for the wire codec.
// These verify header ordering, BodyLength/CheckSum computation, and that a
// decoded message re-encodes into a frame that decodes to the same MsgSeqNum
// and MsgType.

func TestEncode_HeaderOrder(t *testing.T) {
	msg := New(fixtag.MsgTypeLogon)
	msg.AppendHeader(fixtag.TagSendingTime, "20250101-00:00:00.000000")
	msg.AppendHeader(fixtag.TagTargetCompID, "ACCEPTOR")
	msg.AppendHeader(fixtag.TagSenderCompID, "INITIATOR")
	msg.AppendHeader(fixtag.TagMsgSeqNum, "1")
	msg.AppendBody(fixtag.TagHeartBtInt, "30")

	out := string(Encode(msg, "FIX.4.2"))

	wantPrefix := "8=FIX.4.2\x019="
	if !strings.HasPrefix(out, wantPrefix) {
		t.Fatalf("expected prefix %q, got %q", wantPrefix, out)
	}

	// canonical order after BodyLength: 35, 34, 49, 56, 52, then body
	idxMsgType := strings.Index(out, "35=A\x01")
	idxSeqNum := strings.Index(out, "34=1\x01")
	idxSender := strings.Index(out, "49=INITIATOR\x01")
	idxTarget := strings.Index(out, "56=ACCEPTOR\x01")
	idxSendTime := strings.Index(out, "52=20250101")
	idxHbInt := strings.Index(out, "108=30\x01")

	for name, idx := range map[string]int{
		"MsgType": idxMsgType, "SeqNum": idxSeqNum, "Sender": idxSender,
		"Target": idxTarget, "SendingTime": idxSendTime, "HeartBtInt": idxHbInt,
	} {
		if idx == -1 {
			t.Fatalf("field %s not found in encoded message: %q", name, out)
		}
	}
	if !(idxMsgType < idxSeqNum && idxSeqNum < idxSender && idxSender < idxTarget && idxTarget < idxSendTime && idxSendTime < idxHbInt) {
		t.Fatalf("fields out of canonical order: %q", out)
	}
	if !strings.HasSuffix(out, "\x01") || !strings.Contains(out, "10=") {
		t.Fatalf("expected trailing CheckSum field, got %q", out)
	}
}

func TestEncode_BodyLengthIsByteCountAfterItself(t *testing.T) {
	msg := New(fixtag.MsgTypeHeartbeat)
	msg.AppendHeader(fixtag.TagMsgSeqNum, "5")
	msg.AppendHeader(fixtag.TagSenderCompID, "A")
	msg.AppendHeader(fixtag.TagTargetCompID, "B")
	msg.AppendHeader(fixtag.TagSendingTime, "20250101-00:00:00.000000")

	out := Encode(msg, "FIX.4.2")
	parser := NewParser()
	parser.AppendBuffer(out)
	decoded, err, ok := parser.GetMessage()
	if !ok || err != nil {
		t.Fatalf("expected message to parse cleanly, got ok=%v err=%v", ok, err)
	}
	if mt := decoded.MsgType(); mt != fixtag.MsgTypeHeartbeat {
		t.Fatalf("expected MsgType %q, got %q", fixtag.MsgTypeHeartbeat, mt)
	}
}

func TestCheckSum_ModuloWraps(t *testing.T) {
	// A body long enough that the raw byte sum exceeds 256 many times over;
	// verifies the mod-256 wraparound, not just small sums.
	long := strings.Repeat("58=xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx\x01", 50)
	sum := computeCheckSum(long)
	if len(sum) != 3 {
		t.Fatalf("expected 3-digit checksum, got %q", sum)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	parser := NewParser()
	parser.AppendBuffer(mustValidFrame(t))
	msg, err, ok := parser.GetMessage()
	if !ok || err != nil {
		t.Fatalf("expected valid frame to parse, got ok=%v err=%v", ok, err)
	}

	reencoded := Encode(msg, msg.BeginString())
	parser2 := NewParser()
	parser2.AppendBuffer(reencoded)
	msg2, err, ok := parser2.GetMessage()
	if !ok || err != nil {
		t.Fatalf("expected re-encoded frame to parse, got ok=%v err=%v", ok, err)
	}

	seq1, _ := msg.SeqNum()
	seq2, _ := msg2.SeqNum()
	if seq1 != seq2 {
		t.Fatalf("seq num changed across round trip: %d != %d", seq1, seq2)
	}
	if msg.MsgType() != msg2.MsgType() {
		t.Fatalf("msg type changed across round trip")
	}
}

// mustValidFrame builds a correctly checksummed Logon frame via Encode,
// since hand-writing a checksum byte-for-byte in source is error-prone and
// would silently bitrot if the header order ever changes.
func mustValidFrame(t *testing.T) []byte {
	t.Helper()
	msg := New(fixtag.MsgTypeLogon)
	msg.AppendHeader(fixtag.TagMsgSeqNum, "1")
	msg.AppendHeader(fixtag.TagSenderCompID, "INIT")
	msg.AppendHeader(fixtag.TagTargetCompID, "ACPT")
	msg.AppendHeader(fixtag.TagSendingTime, "20250101-00:00:00.000000")
	msg.AppendBody(fixtag.TagHeartBtInt, "30")
	return Encode(msg, "FIX.4.2")
}
