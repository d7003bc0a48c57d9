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

package switches

import (
	"fmt"
)

// State is the lifecycle state of a switch.
type State string

const (
	StateUnknown      State = "unknown"
	StateRegistered   State = "registered"
	StateUnregistered State = "unregistered"
)

type event string

const (
	// eventUp is raised when a switch becomes operational
	eventUp event = "up"
	// eventDown is raised when a switch disconnects
	eventDown event = "down"
)

type transition struct {
	from  State
	event event
	to    State
}

// unregistered switches that come back start over as registered
var transitions = []transition{
	{from: StateUnknown, event: eventUp, to: StateRegistered},
	{from: StateUnregistered, event: eventUp, to: StateRegistered},
	{from: StateRegistered, event: eventDown, to: StateUnregistered},
}

func (r *Registry) transition(id uint64, e event) error {
	current := r.State(id)
	for _, t := range transitions {
		if t.from == current && t.event == e {
			r.states[id] = t.to
			return nil
		}
	}

	return fmt.Errorf("invalid event %q in state %q", e, current)
}
