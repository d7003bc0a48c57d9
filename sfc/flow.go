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

// Package sfc models a service function chain flow: a forward flow, the reverse
// flow derived from it and the chain of hops both directions share.
package sfc

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/k-vswitch/k-sfc/chain"
)

const (
	// ReverseIDOffset keeps reverse flow IDs disjoint from forward flow IDs.
	ReverseIDOffset = 3000

	// MaxFlowID is the largest forward flow ID whose reverse ID still fits the
	// 32 bit metadata tag.
	MaxFlowID = math.MaxUint32 - ReverseIDOffset
)

// ErrInvalidFlowID is returned for flow IDs that are not a decimal integer in
// [0, MaxFlowID].
var ErrInvalidFlowID = errors.New("invalid flow ID")

// ParseFlowID parses the textual flow ID used by the northbound API.
func ParseFlowID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidFlowID, s, err)
	}

	if id > MaxFlowID {
		return 0, fmt.Errorf("%w %q: greater than %d", ErrInvalidFlowID, s, MaxFlowID)
	}

	return id, nil
}

// BiFlow is a forward flow paired with its reverse flow. Both directions share
// one chain of hops; the first hop carries the forward flow ID.
type BiFlow struct {
	forwardID uint64
	reverseID uint64

	fields map[uint64]Fields
	chain  *chain.Chain
}

// NewBiFlow builds the flow pair for flowID from def. The reverse match fields
// are derived from the forward ones by swapping src and dst.
func NewBiFlow(flowID uint64, def Definition) *BiFlow {
	forward := def.Fields.Copy()
	reverseID := flowID + ReverseIDOffset

	c := chain.New(strconv.FormatUint(flowID, 10), !def.OneWay)
	for _, hop := range def.Hops {
		c.Append(hop.ID, !hop.OneWay)
	}

	return &BiFlow{
		forwardID: flowID,
		reverseID: reverseID,
		fields: map[uint64]Fields{
			flowID:    forward,
			reverseID: forward.Reverse(),
		},
		chain: c,
	}
}

func (f *BiFlow) ForwardID() uint64 {
	return f.forwardID
}

func (f *BiFlow) ReverseID() uint64 {
	return f.reverseID
}

// IDs returns the flow IDs in installation order, forward first.
func (f *BiFlow) IDs() []uint64 {
	return []uint64{f.forwardID, f.reverseID}
}

// FieldsFor returns the match fields of the direction identified by flowID, or
// nil if flowID belongs to neither direction.
func (f *BiFlow) FieldsFor(flowID uint64) Fields {
	return f.fields[flowID]
}

func (f *BiFlow) Chain() *chain.Chain {
	return f.chain
}

// Bidirectional reports whether the reverse direction should be installed at
// all, which is the case when any hop of the chain permits reverse traffic.
func (f *BiFlow) Bidirectional() bool {
	return f.chain.Bidirectional()
}

// String renders the forward hop sequence of the flow.
func (f *BiFlow) String() string {
	return f.chain.String()
}
