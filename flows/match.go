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
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
)

// fieldSpec describes a supported match field. Fields are listed in OXM order
// so that prerequisites such as eth_type always precede the fields needing them.
type fieldSpec struct {
	name  string
	ofctl string
	build func(value string) (ofp13.OxmField, error)
}

var fieldSpecs = []fieldSpec{
	{name: "in_port", ofctl: "in_port", build: func(v string) (ofp13.OxmField, error) {
		port, err := parseUint(v, 32)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmInPort(uint32(port)), nil
	}},
	{name: "eth_dst", ofctl: "dl_dst", build: func(v string) (ofp13.OxmField, error) {
		return ofp13.NewOxmEthDst(v)
	}},
	{name: "eth_src", ofctl: "dl_src", build: func(v string) (ofp13.OxmField, error) {
		return ofp13.NewOxmEthSrc(v)
	}},
	{name: "eth_type", ofctl: "dl_type", build: func(v string) (ofp13.OxmField, error) {
		ethType, err := parseUint(v, 16)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmEthType(uint16(ethType)), nil
	}},
	{name: "vlan_vid", ofctl: "vlan_vid", build: func(v string) (ofp13.OxmField, error) {
		vid, err := parseUint(v, 16)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmVlanVid(uint16(vid)), nil
	}},
	{name: "ip_proto", ofctl: "nw_proto", build: func(v string) (ofp13.OxmField, error) {
		proto, err := parseUint(v, 8)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmIpProto(uint8(proto)), nil
	}},
	{name: "ipv4_src", ofctl: "nw_src", build: func(v string) (ofp13.OxmField, error) {
		return ipv4Field(v, ofp13.NewOxmIpv4Src, ofp13.NewOxmIpv4SrcW)
	}},
	{name: "ipv4_dst", ofctl: "nw_dst", build: func(v string) (ofp13.OxmField, error) {
		return ipv4Field(v, ofp13.NewOxmIpv4Dst, ofp13.NewOxmIpv4DstW)
	}},
	{name: "tcp_src", ofctl: "tcp_src", build: func(v string) (ofp13.OxmField, error) {
		port, err := parseUint(v, 16)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmTcpSrc(uint16(port)), nil
	}},
	{name: "tcp_dst", ofctl: "tcp_dst", build: func(v string) (ofp13.OxmField, error) {
		port, err := parseUint(v, 16)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmTcpDst(uint16(port)), nil
	}},
	{name: "udp_src", ofctl: "udp_src", build: func(v string) (ofp13.OxmField, error) {
		port, err := parseUint(v, 16)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmUdpSrc(uint16(port)), nil
	}},
	{name: "udp_dst", ofctl: "udp_dst", build: func(v string) (ofp13.OxmField, error) {
		port, err := parseUint(v, 16)
		if err != nil {
			return nil, err
		}
		return ofp13.NewOxmUdpDst(uint16(port)), nil
	}},
}

var fieldIndex = func() map[string]int {
	index := make(map[string]int, len(fieldSpecs))
	for i, spec := range fieldSpecs {
		index[spec.name] = i
	}
	return index
}()

// SupportedFields returns the names accepted by Match.WithField.
func SupportedFields() []string {
	names := make([]string, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		names = append(names, spec.name)
	}
	return names
}

type matchField struct {
	index int
	value string
	oxm   ofp13.OxmField
}

// Match is a match predicate built only from the fields that were given a
// value. A Match with no fields matches every packet.
type Match struct {
	fields []matchField
}

func NewMatch() *Match {
	return &Match{}
}

// MatchFromFields builds a Match from a name to value mapping, skipping empty
// values.
func MatchFromFields(fields map[string]string) (*Match, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	m := NewMatch()
	for _, name := range names {
		if err := m.WithField(name, fields[name]); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// WithField adds name=value to the match. Empty values are ignored, a field set
// twice keeps the last value.
func (m *Match) WithField(name, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	i, ok := fieldIndex[name]
	if !ok {
		return fmt.Errorf("unsupported match field %q", name)
	}

	oxm, err := fieldSpecs[i].build(value)
	if err != nil {
		return fmt.Errorf("invalid value %q for match field %q: %v", value, name, err)
	}

	field := matchField{index: i, value: value, oxm: oxm}
	for j := range m.fields {
		if m.fields[j].index == i {
			m.fields[j] = field
			return nil
		}
	}

	m.fields = append(m.fields, field)
	sort.Slice(m.fields, func(a, b int) bool { return m.fields[a].index < m.fields[b].index })
	return nil
}

// Fields returns the fields of the match by name.
func (m *Match) Fields() map[string]string {
	fields := make(map[string]string, len(m.fields))
	for _, field := range m.fields {
		fields[fieldSpecs[field.index].name] = field.value
	}
	return fields
}

func (m *Match) Len() int {
	return len(m.fields)
}

// OfpMatch encodes the match as an OpenFlow 1.3 OXM match.
func (m *Match) OfpMatch() *ofp13.OfpMatch {
	match := ofp13.NewOfpMatch()
	for _, field := range m.fields {
		match.Append(field.oxm)
	}
	return match
}

// String renders the match in ovs-ofctl syntax, e.g. "nw_src=10.0.0.1 tcp_dst=80".
func (m *Match) String() string {
	parts := make([]string, 0, len(m.fields))
	for _, field := range m.fields {
		parts = append(parts, fmt.Sprintf("%s=%s", fieldSpecs[field.index].ofctl, field.value))
	}
	return strings.Join(parts, " ")
}

func parseUint(value string, bitSize int) (uint64, error) {
	return strconv.ParseUint(value, 0, bitSize)
}

func ipv4Field(value string,
	exact func(string) (*ofp13.OxmIpv4, error),
	masked func(string, int) (*ofp13.OxmIpv4, error)) (ofp13.OxmField, error) {

	if !strings.Contains(value, "/") {
		if ip := net.ParseIP(value); ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("not an IPv4 address")
		}
		return exact(value)
	}

	ip, ipNet, err := net.ParseCIDR(value)
	if err != nil {
		return nil, err
	}
	if ip.To4() == nil {
		return nil, fmt.Errorf("not an IPv4 network")
	}

	ones, _ := ipNet.Mask.Size()
	return masked(ipNet.IP.String(), ones)
}
