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

package openflow

import (
	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"k8s.io/klog"

	"github.com/k-vswitch/k-sfc/switches"
)

// handlePacketIn floods packets punted by the default-miss rules out of every
// port except the one they arrived on.
func (c *Controller) handlePacketIn(conn switchConn, packetIn *ofp13.OfpPacketIn) {
	inPort, ok := packetInPort(packetIn)
	if !ok {
		klog.Warningf("packet-in from switch %s without in_port", switches.FormatDPID(conn.ID()))
		return
	}

	if klog.V(5) {
		klog.Infof("packet-in from switch %s port %d table %d: %s",
			switches.FormatDPID(conn.ID()), inPort, packetIn.TableId, describePacket(packetIn.Data))
	}

	// the payload only has to be sent back if the switch did not buffer it
	var data []byte
	if packetIn.BufferId == ofp13.OFP_NO_BUFFER {
		data = packetIn.Data
	}

	actions := []ofp13.OfpAction{ofp13.NewOfpActionOutput(ofp13.OFPP_FLOOD, 0)}
	packetOut := ofp13.NewOfpPacketOut(packetIn.BufferId, inPort, actions, data)
	if err := conn.Send(packetOut); err != nil {
		klog.Errorf("error sending packet-out to switch %s: %v", switches.FormatDPID(conn.ID()), err)
	}
}

func packetInPort(packetIn *ofp13.OfpPacketIn) (uint32, bool) {
	if packetIn.Match == nil {
		return 0, false
	}

	for _, field := range packetIn.Match.OxmFields {
		if inPort, ok := field.(*ofp13.OxmInPort); ok {
			return inPort.Value, true
		}
	}

	return 0, false
}

// describePacket summarizes the ethernet and IPv4 headers of a frame.
func describePacket(data []byte) string {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Lazy)

	eth, ok := packet.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if !ok {
		return "non-ethernet frame"
	}

	summary := eth.SrcMAC.String() + " > " + eth.DstMAC.String() + " " + eth.EthernetType.String()
	if ip, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		summary += " " + ip.SrcIP.String() + " > " + ip.DstIP.String() + " " + ip.Protocol.String()
	}

	return summary
}
