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

// Package flows builds the OpenFlow rules the controller installs on switches.
package flows

import (
	"fmt"
	"strings"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
)

type output struct {
	port   uint32
	maxLen uint16
}

// Rule is a single flow table entry. Rules are built with the With* methods and
// encoded with FlowMod.
type Rule struct {
	table    uint8
	priority uint16
	match    *Match

	outputs []output

	writeMetadata bool
	metadata      uint64
	metadataMask  uint64

	gotoTable bool
	nextTable uint8
}

func NewRule() *Rule {
	return &Rule{match: NewMatch()}
}

// String renders the rule in ovs-ofctl syntax.
func (r *Rule) String() string {
	rule := fmt.Sprintf("table=%d priority=%d", r.table, r.priority)

	if r.match.Len() > 0 {
		rule = fmt.Sprintf("%s %s", rule, r.match)
	}

	var actionSet []string
	for _, out := range r.outputs {
		if out.port == ofp13.OFPP_CONTROLLER {
			actionSet = append(actionSet, fmt.Sprintf("CONTROLLER:%d", out.maxLen))
			continue
		}
		actionSet = append(actionSet, fmt.Sprintf("output:%d", out.port))
	}

	if r.writeMetadata {
		actionSet = append(actionSet, fmt.Sprintf("write_metadata:%#x/%#x", r.metadata, r.metadataMask))
	}

	if r.gotoTable {
		actionSet = append(actionSet, fmt.Sprintf("goto_table:%d", r.nextTable))
	}

	actions := fmt.Sprintf("actions=%s", strings.Join(actionSet, ","))
	return fmt.Sprintf("%s %s", rule, actions)
}

// FlowMod encodes the rule as an OpenFlow 1.3 flow add message. The rule always
// carries an apply-actions instruction, empty if the rule has no outputs.
func (r *Rule) FlowMod() (*FlowMod, error) {
	if r.gotoTable && r.nextTable <= r.table {
		return nil, fmt.Errorf("goto table %d must be greater than table %d", r.nextTable, r.table)
	}

	apply := ofp13.NewOfpInstructionActions(ofp13.OFPIT_APPLY_ACTIONS)
	for _, out := range r.outputs {
		apply.Append(ofp13.NewOfpActionOutput(out.port, out.maxLen))
	}
	instructions := []ofp13.OfpInstruction{apply}

	if r.gotoTable {
		instructions = append(instructions, ofp13.NewOfpInstructionGotoTable(r.nextTable))
	}

	if r.writeMetadata {
		instructions = append(instructions, ofp13.NewOfpInstructionWriteMetadata(r.metadata, r.metadataMask))
	}

	flowMod := ofp13.NewOfpFlowModAdd(0, 0, r.table, r.priority, 0, r.match.OfpMatch(), instructions)
	return &FlowMod{OfpFlowMod: flowMod}, nil
}

func (r *Rule) Table() uint8 {
	return r.table
}

func (r *Rule) Priority() uint16 {
	return r.priority
}

func (r *Rule) Match() *Match {
	return r.match
}

// Metadata returns the metadata written by the rule and whether it writes any.
func (r *Rule) Metadata() (uint64, bool) {
	return r.metadata, r.writeMetadata
}

// Flow Matchers
func (r *Rule) WithTable(table uint8) *Rule {
	r.table = table
	return r
}

func (r *Rule) WithPriority(priority uint16) *Rule {
	r.priority = priority
	return r
}

func (r *Rule) WithMatch(match *Match) *Rule {
	if match == nil {
		match = NewMatch()
	}
	r.match = match
	return r
}

// Actions
func (r *Rule) WithActionOutput(port uint32, maxLen uint16) *Rule {
	r.outputs = append(r.outputs, output{port: port, maxLen: maxLen})
	return r
}

// WithActionController sends matching packets to the controller unbuffered.
func (r *Rule) WithActionController() *Rule {
	return r.WithActionOutput(ofp13.OFPP_CONTROLLER, ofp13.OFPCML_NO_BUFFER)
}

// Instructions
func (r *Rule) WithMetadata(metadata, mask uint64) *Rule {
	r.writeMetadata = true
	r.metadata = metadata
	r.metadataMask = mask
	return r
}

func (r *Rule) WithGotoTable(table uint8) *Rule {
	r.gotoTable = true
	r.nextTable = table
	return r
}
