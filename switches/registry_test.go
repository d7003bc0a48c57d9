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
	"reflect"
	"testing"

	"github.com/Kmotiko/gofc/ofprotocol/ofp13"
)

type fakeDatapath struct {
	id uint64
}

func (f *fakeDatapath) ID() uint64 {
	return f.id
}

func (f *fakeDatapath) Send(msg ofp13.OFMessage) error {
	return nil
}

func Test_RegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	first := &fakeDatapath{id: 1}

	if !r.Register(1, first) {
		t.Fatalf("expected first registration to add the switch")
	}
	if r.Register(1, &fakeDatapath{id: 1}) {
		t.Errorf("expected second registration to be a no-op")
	}

	dp, ok := r.Get(1)
	if !ok || dp != first {
		t.Errorf("expected the first handle to be kept")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 switch, got %d", r.Len())
	}
}

func Test_UnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	if r.Unregister(5) {
		t.Errorf("expected unregistering an unknown switch to be a no-op")
	}
	if r.State(5) != StateUnknown {
		t.Errorf("expected state %q, got %q", StateUnknown, r.State(5))
	}
}

func Test_Lifecycle(t *testing.T) {
	r := NewRegistry()
	dp := &fakeDatapath{id: 9}

	steps := []struct {
		name    string
		action  func() bool
		changed bool
		state   State
		length  int
	}{
		{name: "register", action: func() bool { return r.Register(9, dp) }, changed: true, state: StateRegistered, length: 1},
		{name: "register again", action: func() bool { return r.Register(9, dp) }, changed: false, state: StateRegistered, length: 1},
		{name: "unregister", action: func() bool { return r.Unregister(9) }, changed: true, state: StateUnregistered, length: 0},
		{name: "unregister again", action: func() bool { return r.Unregister(9) }, changed: false, state: StateUnregistered, length: 0},
		{name: "re-register", action: func() bool { return r.Register(9, dp) }, changed: true, state: StateRegistered, length: 1},
	}

	for _, step := range steps {
		if changed := step.action(); changed != step.changed {
			t.Errorf("%s: expected changed=%t, got %t", step.name, step.changed, changed)
		}
		if state := r.State(9); state != step.state {
			t.Errorf("%s: expected state %q, got %q", step.name, step.state, state)
		}
		if r.Len() != step.length {
			t.Errorf("%s: expected %d switches, got %d", step.name, step.length, r.Len())
		}
	}
}

func Test_Snapshot(t *testing.T) {
	r := NewRegistry()
	for _, id := range []uint64{3, 1, 2} {
		r.Register(id, &fakeDatapath{id: id})
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 handles, got %d", len(all))
	}

	// the snapshot does not follow later changes
	r.Unregister(1)
	if len(all) != 3 {
		t.Errorf("snapshot changed after unregister")
	}

	if ids := r.IDs(); !reflect.DeepEqual(ids, []uint64{2, 3}) {
		t.Errorf("unexpected IDs %v", ids)
	}
}

func Test_FormatDPID(t *testing.T) {
	tests := []struct {
		id   uint64
		dpid string
	}{
		{id: 0, dpid: "00:00:00:00:00:00:00:00"},
		{id: 1, dpid: "00:00:00:00:00:00:00:01"},
		{id: 0xaabbccddeeff, dpid: "00:00:aa:bb:cc:dd:ee:ff"},
	}

	for _, test := range tests {
		if actual := FormatDPID(test.id); actual != test.dpid {
			t.Errorf("expected %q, got %q", test.dpid, actual)
		}
	}
}
