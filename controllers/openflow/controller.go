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

// Package openflow programs the connected OpenFlow switches with the rules of
// the service function chain flows known to the controller.
package openflow

import (
	"sync"
	"time"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog"

	"github.com/k-vswitch/k-sfc/config"
	"github.com/k-vswitch/k-sfc/connection"
	"github.com/k-vswitch/k-sfc/flows"
	"github.com/k-vswitch/k-sfc/metrics"
	"github.com/k-vswitch/k-sfc/sfc"
	"github.com/k-vswitch/k-sfc/switches"
)

// switchConn is a connection to a switch as seen by the event handlers.
type switchConn interface {
	switches.Datapath

	SetID(datapathID uint64)
	HasID() bool
	RemoteAddr() string
	Close() error
}

type Controller struct {
	// mu guards the registry, the flow table and the rule journals. It is
	// shared by the southbound event loop and the northbound operations.
	mu sync.Mutex

	registry  *switches.Registry
	flowTable map[uint64]*sfc.BiFlow
	journals  map[uint64]*flows.FlowsBuffer

	source       sfc.MatchSource
	tables       config.Tables
	metadataMask uint64
	echoInterval time.Duration

	metrics *metrics.Registry
}

func NewController(cfg *config.Config, source sfc.MatchSource, m *metrics.Registry) *Controller {
	if source == nil {
		source = sfc.EmptySource{}
	}

	return &Controller{
		registry:     switches.NewRegistry(),
		flowTable:    make(map[uint64]*sfc.BiFlow),
		journals:     make(map[uint64]*flows.FlowsBuffer),
		source:       source,
		tables:       cfg.Tables,
		metadataMask: cfg.MetadataMask,
		echoInterval: cfg.EchoInterval.Duration,
		metrics:      m,
	}
}

// Run processes southbound events one at a time until stopCh is closed. Echo
// requests are sent to every registered switch in the background.
func (c *Controller) Run(events <-chan connection.Event, stopCh <-chan struct{}) {
	go wait.Until(c.keepalive, c.echoInterval, stopCh)

	for {
		select {
		case event := <-events:
			c.handleEvent(event)
		case <-stopCh:
			klog.Info("stopping openflow controller")
			return
		}
	}
}

func (c *Controller) handleEvent(event connection.Event) {
	switch {
	case event.Connected:
		c.handleConnected(event.Conn)
	case event.Closed:
		c.handleClosed(event.Conn)
	case event.Msg != nil:
		c.handleMessage(event.Conn, event.Msg)
	}
}

func (c *Controller) handleConnected(conn switchConn) {
	// send initial hello which is required to establish a proper connection
	// with an open flow switch.
	if err := conn.Send(ofp13.NewOfpHello()); err != nil {
		klog.Errorf("error sending OF_HELLO to %s: %v", conn.RemoteAddr(), err)
		return
	}

	klog.V(4).Infof("OF_HELLO message sent to switch %s", conn.RemoteAddr())
}

func (c *Controller) handleMessage(conn switchConn, msg ofp13.OFMessage) {
	switch msgVal := msg.(type) {
	case *ofp13.OfpHeader:
		if msgVal.Type == ofp13.OFPT_ECHO_REQUEST {
			c.metrics.RecordSouthboundMessage("echo_request")

			echoReply := ofp13.NewOfpEchoReply()
			echoReply.Xid = msgVal.Xid
			if err := conn.Send(echoReply); err != nil {
				klog.Errorf("error sending echo reply to %s: %v", conn.RemoteAddr(), err)
				return
			}
			klog.V(5).Info("echo reply sent to switch")
		}

		if msgVal.Type == ofp13.OFPT_ECHO_REPLY {
			c.metrics.RecordSouthboundMessage("echo_reply")
			klog.V(5).Info("received echo reply from switch")
		}

	case *ofp13.OfpHello:
		c.metrics.RecordSouthboundMessage("hello")

		// hello received, next thing to do is send a feature request message
		// to receive the data path ID of the switch
		featureReq := ofp13.NewOfpFeaturesRequest()
		if err := conn.Send(featureReq); err != nil {
			klog.Errorf("error sending features request to %s: %v", conn.RemoteAddr(), err)
		}

	case *ofp13.OfpSwitchFeatures:
		c.metrics.RecordSouthboundMessage("features_reply")
		c.handleFeaturesReply(conn, msgVal)

	case *ofp13.OfpErrorMsg:
		c.metrics.RecordSouthboundMessage("error")
		c.metrics.RecordRuleInstallFailure("switch_error")
		klog.Warningf("switch %s reported error type=%d code=%d for xid %d",
			switches.FormatDPID(conn.ID()), msgVal.Type, msgVal.Code, msgVal.Header.Xid)

	case *ofp13.OfpPacketIn:
		c.metrics.RecordSouthboundMessage("packet_in")
		c.handlePacketIn(conn, msgVal)

	default:
		c.metrics.RecordSouthboundMessage("other")
		klog.V(5).Infof("ignoring message %T from switch %s", msg, conn.RemoteAddr())
	}
}

// handleFeaturesReply installs the default-miss rules on a switch and then
// registers it, so that the switch never receives a flow's rules first.
func (c *Controller) handleFeaturesReply(conn switchConn, features *ofp13.OfpSwitchFeatures) {
	dpid := features.DatapathId
	conn.SetID(dpid)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.registry.Get(dpid); ok && existing != conn {
		klog.Infof("switch %s reconnected from %s, replacing previous connection",
			switches.FormatDPID(dpid), conn.RemoteAddr())
		c.registry.Unregister(dpid)

		// the stale connection would otherwise live until TCP gives up on it
		if stale, ok := existing.(switchConn); ok {
			if err := stale.Close(); err != nil {
				klog.V(4).Infof("error closing previous connection of switch %s: %v", switches.FormatDPID(dpid), err)
			}
		}
	}

	c.journals[dpid] = flows.NewFlowsBuffer()
	if err := c.installDefaultMiss(conn); err != nil {
		klog.Warningf("error installing default-miss rules on switch %s: %v", switches.FormatDPID(dpid), err)
	}

	if c.registry.Register(dpid, conn) {
		klog.Infof("registered switch %s from %s", switches.FormatDPID(dpid), conn.RemoteAddr())
	}
	c.metrics.SetSwitchesConnected(c.registry.Len())
}

func (c *Controller) handleClosed(conn switchConn) {
	if !conn.HasID() {
		klog.V(4).Infof("connection from %s closed before the switch identified itself", conn.RemoteAddr())
		return
	}

	dpid := conn.ID()

	c.mu.Lock()
	defer c.mu.Unlock()

	// a reconnected switch may already be registered on a newer connection
	if existing, ok := c.registry.Get(dpid); !ok || existing != conn {
		return
	}

	c.registry.Unregister(dpid)
	delete(c.journals, dpid)
	c.metrics.SetSwitchesConnected(c.registry.Len())

	klog.Infof("unregistered switch %s", switches.FormatDPID(dpid))
}

func (c *Controller) keepalive() {
	c.mu.Lock()
	dps := c.registry.All()
	c.mu.Unlock()

	for _, dp := range dps {
		if err := dp.Send(ofp13.NewOfpEchoRequest()); err != nil {
			klog.V(4).Infof("error sending echo request to switch %s: %v", switches.FormatDPID(dp.ID()), err)
		}
	}
}
