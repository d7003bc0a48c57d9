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

package connection

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
)

// headerLen is the size of the OpenFlow header every message starts with.
const headerLen = 8

var (
	ErrShortHeader        = errors.New("openflow header too short")
	ErrInvalidLength      = errors.New("invalid openflow message length")
	ErrUnsupportedMessage = errors.New("unsupported openflow message")
)

func SerializeMessage(msg ofp13.OFMessage) []byte {
	return msg.Serialize()
}

// ParseMessage decodes a single framed message. Message types the codec does
// not know about are reported with ErrUnsupportedMessage.
func ParseMessage(buf []byte) (msg ofp13.OFMessage, err error) {
	if len(buf) < headerLen {
		return nil, ErrShortHeader
	}

	defer func() {
		if r := recover(); r != nil {
			msg = nil
			err = fmt.Errorf("malformed openflow message of type %d: %v", buf[1], r)
		}
	}()

	msg = ofp13.Parse(buf)
	if msg == nil {
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedMessage, buf[1])
	}

	return msg, nil
}

// MessageLength returns the length of the entire message as carried by its
// header. The length includes the header itself.
func MessageLength(buf []byte) (int, error) {
	if len(buf) < headerLen {
		return 0, ErrShortHeader
	}

	// Length attribute in OFP header is uint16 read in BigEndian
	// buf[2:] because first byte is version, second byte is type and
	// length is next
	length := int(binary.BigEndian.Uint16(buf[2:]))
	if length < headerLen {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	return length, nil
}

// ReadMessage reads the next framed message from reader. The returned buffer
// holds exactly one message.
func ReadMessage(reader *bufio.Reader) ([]byte, error) {
	// peak into the first 8 bytes (the size of OF header messages)
	// the header message contains the length of the entire message
	// which we need later to move the reader forward
	header, err := reader.Peek(headerLen)
	if err != nil {
		return nil, err
	}

	msgLen, err := MessageLength(header)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, msgLen)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, err
	}

	return buf, nil
}
