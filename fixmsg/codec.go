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
	"strconv"
	"strings"

	"fixengine/fixtag"
)

// canonicalOrder is the fixed header sequence after BeginString/BodyLength,
// per spec: {8, 9, 35, [routing], 34, 49, 56, 52, ...body...}. This engine
// targets FIX.4.2/4.4 which carry no routing tags, so the routing slot is
// empty.
var canonicalOrder = []fixtag.Tag{
	fixtag.TagMsgType,
	fixtag.TagMsgSeqNum,
	fixtag.TagSenderCompID,
	fixtag.TagTargetCompID,
	fixtag.TagSendingTime,
}

// Encode serializes msg to wire bytes, computing BodyLength<9> and
// CheckSum<10>. beginString is written as the first field regardless of
// whether msg.Header already carries one (the session is the sole source of
// truth for the wire version).
func Encode(msg *FixMessage, beginString string) []byte {
	var body strings.Builder

	canonical := make(map[fixtag.Tag]string, len(canonicalOrder))
	var extra []Field
	for _, f := range msg.Header {
		isCanonical := false
		for _, tag := range canonicalOrder {
			if f.Tag == tag {
				canonical[tag] = f.Value
				isCanonical = true
				break
			}
		}
		if !isCanonical && f.Tag != fixtag.TagBeginString && f.Tag != fixtag.TagBodyLength {
			extra = append(extra, f)
		}
	}

	for _, tag := range canonicalOrder {
		if v, ok := canonical[tag]; ok {
			writeField(&body, tag, v)
		}
	}
	for _, f := range extra {
		writeField(&body, f.Tag, f.Value)
	}
	for _, f := range msg.Body {
		writeField(&body, f.Tag, f.Value)
	}

	bodyStr := body.String()

	var out strings.Builder
	writeField(&out, fixtag.TagBeginString, beginString)
	writeField(&out, fixtag.TagBodyLength, strconv.Itoa(len(bodyStr)))
	out.WriteString(bodyStr)

	checksum := computeCheckSum(out.String())
	writeField(&out, fixtag.TagCheckSum, checksum)

	return []byte(out.String())
}

func writeField(b *strings.Builder, tag fixtag.Tag, value string) {
	b.WriteString(strconv.Itoa(int(tag)))
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte(SOH)
}

// computeCheckSum sums every byte of s modulo 256 and renders it as a
// zero-padded 3-digit decimal string.
func computeCheckSum(s string) string {
	var sum int
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}
	sum %= 256
	return padCheckSum(sum)
}

func padCheckSum(sum int) string {
	digits := strconv.Itoa(sum)
	for len(digits) < 3 {
		digits = "0" + digits
	}
	return digits
}
