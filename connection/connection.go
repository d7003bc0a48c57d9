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
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"

	"k8s.io/klog"
)

const eventsBufferSize = 256

var ErrConnectionClosed = errors.New("openflow connection closed")

// Event is a single southbound occurrence on a switch connection. Exactly one
// of Connected, Msg or Closed is set.
type Event struct {
	Conn      *OFConn
	Connected bool
	Msg       ofp13.OFMessage
	Closed    bool
}

// OFListener accepts connections from OpenFlow switches and funnels the
// messages of every connection into a single event channel.
type OFListener struct {
	listener net.Listener
	events   chan Event

	connsMu sync.Mutex
	conns   map[*OFConn]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func NewOFListener(addr string) (*OFListener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &OFListener{
		listener: listener,
		events:   make(chan Event, eventsBufferSize),
		conns:    make(map[*OFConn]struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (l *OFListener) Addr() net.Addr {
	return l.listener.Addr()
}

func (l *OFListener) Events() <-chan Event {
	return l.events
}

// Serve accepts connections until the listener is closed.
func (l *OFListener) Serve() error {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-l.done:
				return nil
			default:
			}

			if acceptRetryable(err) {
				klog.Errorf("error accepting TCP connections: %v", err)
				continue
			}
			return err
		}

		ofConn := NewOFConn(conn)
		l.connsMu.Lock()
		l.conns[ofConn] = struct{}{}
		l.connsMu.Unlock()

		klog.Infof("switch connected from %s", ofConn.RemoteAddr())

		go ofConn.ProcessQueue()
		go l.handleConn(ofConn)
	}
}

// acceptRetryable reports whether Accept may succeed when called again, as
// after EMFILE. net.Error.Temporary is deprecated but is still set for those
// errors by the net package.
func acceptRetryable(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Temporary()
}

// Close stops accepting connections and closes every open switch connection.
func (l *OFListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.listener.Close()

		l.connsMu.Lock()
		defer l.connsMu.Unlock()
		for conn := range l.conns {
			conn.Close()
		}
	})
	return err
}

func (l *OFListener) emit(event Event) bool {
	select {
	case l.events <- event:
		return true
	case <-l.done:
		return false
	}
}

func (l *OFListener) handleConn(conn *OFConn) {
	defer func() {
		conn.Close()

		l.connsMu.Lock()
		delete(l.conns, conn)
		l.connsMu.Unlock()

		l.emit(Event{Conn: conn, Closed: true})
	}()

	if !l.emit(Event{Conn: conn, Connected: true}) {
		return
	}

	reader := bufio.NewReader(conn.conn)
	for {
		buf, err := ReadMessage(reader)
		if err != nil {
			if err != io.EOF && !conn.isClosed() {
				klog.Errorf("error reading connection from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		msg, err := ParseMessage(buf)
		if err != nil {
			klog.V(4).Infof("dropping message from %s: %v", conn.RemoteAddr(), err)
			continue
		}

		if !l.emit(Event{Conn: conn, Msg: msg}) {
			return
		}
	}
}

// OFConn is a connection to a single switch. There should be only one
// instance of OFConn per connection from the switch. Messages passed to Send
// are queued and written in order by ProcessQueue.
type OFConn struct {
	conn net.Conn

	datapathID    uint64
	hasDatapathID int32

	queue     []ofp13.OFMessage
	queueMu   sync.Mutex
	queueCond sync.Cond
	closed    bool
}

func NewOFConn(conn net.Conn) *OFConn {
	of := &OFConn{
		conn:  conn,
		queue: make([]ofp13.OFMessage, 0),
	}

	of.queueCond.L = &of.queueMu
	return of
}

// ID returns the datapath ID reported by the switch, zero until SetID is called.
func (of *OFConn) ID() uint64 {
	return atomic.LoadUint64(&of.datapathID)
}

func (of *OFConn) SetID(datapathID uint64) {
	atomic.StoreUint64(&of.datapathID, datapathID)
	atomic.StoreInt32(&of.hasDatapathID, 1)
}

// HasID reports whether the switch has identified itself.
func (of *OFConn) HasID() bool {
	return atomic.LoadInt32(&of.hasDatapathID) == 1
}

func (of *OFConn) RemoteAddr() string {
	return of.conn.RemoteAddr().String()
}

// Send queues msg for writing. It does not wait for the message to hit the wire.
func (of *OFConn) Send(msg ofp13.OFMessage) error {
	of.queueMu.Lock()
	defer of.queueMu.Unlock()

	if of.closed {
		return ErrConnectionClosed
	}

	of.queue = append(of.queue, msg)
	of.queueCond.Broadcast()
	return nil
}

// ProcessQueue writes queued messages until the connection is closed.
func (of *OFConn) ProcessQueue() {
	for {
		of.queueMu.Lock()
		for len(of.queue) == 0 && !of.closed {
			of.queueCond.Wait()
		}

		if of.closed {
			of.queueMu.Unlock()
			return
		}

		msg := of.queue[0]
		of.queue = of.queue[1:]
		of.queueMu.Unlock()

		if _, err := of.conn.Write(SerializeMessage(msg)); err != nil {
			klog.Errorf("error writing to connection %s: %v", of.RemoteAddr(), err)
			of.Close()
			return
		}
	}
}

// Close closes the underlying connection and drops any queued messages.
func (of *OFConn) Close() error {
	of.queueMu.Lock()
	if of.closed {
		of.queueMu.Unlock()
		return nil
	}
	of.closed = true
	of.queue = nil
	of.queueCond.Broadcast()
	of.queueMu.Unlock()

	return of.conn.Close()
}

func (of *OFConn) isClosed() bool {
	of.queueMu.Lock()
	defer of.queueMu.Unlock()
	return of.closed
}
