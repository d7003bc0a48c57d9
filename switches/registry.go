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

// Package switches tracks the datapaths currently connected to the controller.
package switches

import (
	"fmt"
	"sort"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
	"k8s.io/klog"
)

// Datapath is the handle used to program a connected switch.
type Datapath interface {
	// ID returns the datapath ID reported by the switch.
	ID() uint64
	// Send queues msg for delivery to the switch. It does not wait for the
	// switch to process the message.
	Send(msg ofp13.OFMessage) error
}

// Registry maps datapath IDs to the handles of connected switches.
//
// Registry is not safe for concurrent use; callers serialize access.
type Registry struct {
	datapaths map[uint64]Datapath
	states    map[uint64]State
}

func NewRegistry() *Registry {
	return &Registry{
		datapaths: make(map[uint64]Datapath),
		states:    make(map[uint64]State),
	}
}

// Register adds the switch if it is not registered yet. It reports whether the
// switch was added.
func (r *Registry) Register(id uint64, dp Datapath) bool {
	if _, exists := r.datapaths[id]; exists {
		return false
	}

	if err := r.transition(id, eventUp); err != nil {
		klog.Warningf("not registering datapath %s: %v", FormatDPID(id), err)
		return false
	}

	r.datapaths[id] = dp
	return true
}

// Unregister removes the switch if it is registered. It reports whether the
// switch was removed.
func (r *Registry) Unregister(id uint64) bool {
	if _, exists := r.datapaths[id]; !exists {
		return false
	}

	if err := r.transition(id, eventDown); err != nil {
		klog.Warningf("not unregistering datapath %s: %v", FormatDPID(id), err)
		return false
	}

	delete(r.datapaths, id)
	return true
}

// Get returns the handle of a registered switch.
func (r *Registry) Get(id uint64) (Datapath, bool) {
	dp, ok := r.datapaths[id]
	return dp, ok
}

// All returns a snapshot of the registered handles in no particular order.
func (r *Registry) All() []Datapath {
	dps := make([]Datapath, 0, len(r.datapaths))
	for _, dp := range r.datapaths {
		dps = append(dps, dp)
	}

	return dps
}

// IDs returns the registered datapath IDs in ascending order.
func (r *Registry) IDs() []uint64 {
	ids := make([]uint64, 0, len(r.datapaths))
	for id := range r.datapaths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

func (r *Registry) Len() int {
	return len(r.datapaths)
}

// State returns the lifecycle state of a switch. Switches never seen are
// StateUnknown.
func (r *Registry) State(id uint64) State {
	state, ok := r.states[id]
	if !ok {
		return StateUnknown
	}

	return state
}

// FormatDPID formats a datapath ID the way switches usually print it, e.g.
// "00:00:00:00:00:00:00:01".
func FormatDPID(id uint64) string {
	b := make([]byte, 0, 23)
	for shift := 56; shift >= 0; shift -= 8 {
		if shift != 56 {
			b = append(b, ':')
		}
		b = append(b, fmt.Sprintf("%02x", byte(id>>uint(shift)))...)
	}

	return string(b)
}
