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
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
)

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func Test_OFListener(t *testing.T) {
	listener, err := NewOFListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("error creating listener: %v", err)
	}
	defer listener.Close()

	go listener.Serve()

	sw, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("error connecting to listener: %v", err)
	}
	defer sw.Close()

	event := nextEvent(t, listener.Events())
	if !event.Connected || event.Conn == nil {
		t.Fatalf("expected connected event, got %+v", event)
	}
	conn := event.Conn

	if _, err := sw.Write(ofp13.NewOfpHello().Serialize()); err != nil {
		t.Fatalf("error writing hello: %v", err)
	}

	event = nextEvent(t, listener.Events())
	if _, ok := event.Msg.(*ofp13.OfpHello); !ok {
		t.Fatalf("expected hello message, got %T", event.Msg)
	}
	if event.Conn != conn {
		t.Errorf("expected message on the same connection")
	}

	if err := conn.Send(ofp13.NewOfpFeaturesRequest()); err != nil {
		t.Fatalf("unexpected error sending: %v", err)
	}

	sw.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf, err := ReadMessage(bufio.NewReader(sw))
	if err != nil {
		t.Fatalf("error reading from controller: %v", err)
	}
	if buf[1] != ofp13.OFPT_FEATURES_REQUEST {
		t.Errorf("expected features request, got type %d", buf[1])
	}

	sw.Close()

	event = nextEvent(t, listener.Events())
	if !event.Closed || event.Conn != conn {
		t.Fatalf("expected closed event, got %+v", event)
	}

	if err := conn.Send(ofp13.NewOfpEchoRequest()); err != ErrConnectionClosed {
		t.Errorf("expected ErrConnectionClosed after close, got %v", err)
	}
}

func Test_OFConnID(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := NewOFConn(server)
	defer conn.Close()

	if conn.HasID() || conn.ID() != 0 {
		t.Errorf("expected no datapath ID before features reply")
	}

	conn.SetID(0x1)
	if !conn.HasID() || conn.ID() != 0x1 {
		t.Errorf("expected datapath ID 1, got %d", conn.ID())
	}
}

type acceptError struct {
	temporary bool
}

func (e acceptError) Error() string   { return "accept failed" }
func (e acceptError) Timeout() bool   { return false }
func (e acceptError) Temporary() bool { return e.temporary }

func Test_AcceptRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "temporary net error",
			err:       acceptError{temporary: true},
			retryable: true,
		},
		{
			name:      "wrapped temporary net error",
			err:       fmt.Errorf("accept tcp: %w", acceptError{temporary: true}),
			retryable: true,
		},
		{
			name:      "permanent net error",
			err:       acceptError{},
			retryable: false,
		},
		{
			name:      "plain error",
			err:       errors.New("use of closed network connection"),
			retryable: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if actual := acceptRetryable(test.err); actual != test.retryable {
				t.Logf("actual: %t", actual)
				t.Logf("expected: %t", test.retryable)
				t.Errorf("unexpected retryable result for %v", test.err)
			}
		})
	}
}
