/*
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
"License"); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
"AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package flows

import (
	"encoding/binary"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
)

// flowModFixedLen is the size of a flow mod up to its match: the OpenFlow
// header followed by 40 bytes of fixed fields.
const flowModFixedLen = 8 + 40

// FlowMod is an ofp13 flow mod whose match is padded to exactly the next
// multiple of 8 bytes on the wire. ofp13.OfpMatch adds 8 bytes of padding to
// matches that are already aligned, which switches read as a bogus instruction.
type FlowMod struct {
	*ofp13.OfpFlowMod
}

func (m *FlowMod) Serialize() []byte {
	packet := m.OfpFlowMod.Serialize()

	excess := m.matchPaddingExcess()
	if excess == 0 {
		return packet
	}

	matchEnd := flowModFixedLen + m.Match.Size() - excess
	fixed := make([]byte, 0, len(packet)-excess)
	fixed = append(fixed, packet[:matchEnd]...)
	fixed = append(fixed, packet[matchEnd+excess:]...)
	binary.BigEndian.PutUint16(fixed[2:], uint16(len(fixed)))

	return fixed
}

func (m *FlowMod) Size() int {
	return m.OfpFlowMod.Size() - m.matchPaddingExcess()
}

func (m *FlowMod) matchPaddingExcess() int {
	length := 4
	for _, field := range m.Match.OxmFields {
		length += field.Size()
	}

	padded := (length + 7) / 8 * 8
	return m.Match.Size() - padded
}
