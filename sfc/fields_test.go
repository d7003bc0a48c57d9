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

package sfc

import (
	"reflect"
	"testing"
)

func Test_Reverse(t *testing.T) {
	tests := []struct {
		name    string
		fields  Fields
		reverse Fields
	}{
		{
			name:    "empty",
			fields:  Fields{},
			reverse: Fields{},
		},
		{
			name:    "src and dst are swapped",
			fields:  Fields{"ipv4_src": "10.0.0.1", "ipv4_dst": "10.0.0.2"},
			reverse: Fields{"ipv4_dst": "10.0.0.1", "ipv4_src": "10.0.0.2"},
		},
		{
			name:    "other keys pass through",
			fields:  Fields{"eth_type": "0x0800", "ip_proto": "17", "udp_dst": "53"},
			reverse: Fields{"eth_type": "0x0800", "ip_proto": "17", "udp_src": "53"},
		},
		{
			name:    "src wins when both appear",
			fields:  Fields{"src_dst": "1"},
			reverse: Fields{"dst_dst": "1"},
		},
		{
			name:    "every occurrence is replaced",
			fields:  Fields{"src_src": "1"},
			reverse: Fields{"dst_dst": "1"},
		},
		{
			name:    "colliding keys keep the last sorted key",
			fields:  Fields{"src_dst": "a", "dst_src": "b"},
			reverse: Fields{"dst_dst": "a"},
		},
		{
			name:    "empty values are kept",
			fields:  Fields{"tcp_src": ""},
			reverse: Fields{"tcp_dst": ""},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual := test.fields.Reverse()
			if !reflect.DeepEqual(actual, test.reverse) {
				t.Logf("actual: %v", actual)
				t.Logf("expected: %v", test.reverse)
				t.Errorf("unexpected reverse fields")
			}
		})
	}
}

func Test_ReverseCollisionIsStable(t *testing.T) {
	fields := Fields{"src_dst": "a", "dst_src": "b"}
	for i := 0; i < 100; i++ {
		if actual := fields.Reverse()["dst_dst"]; actual != "a" {
			t.Fatalf("iteration %d: expected dst_dst=a, got %q", i, actual)
		}
	}
}

func Test_ReverseTwice(t *testing.T) {
	fields := Fields{
		"eth_src":  "aa:bb:cc:dd:ee:01",
		"eth_dst":  "aa:bb:cc:dd:ee:02",
		"ipv4_src": "10.0.0.1",
		"tcp_dst":  "80",
		"in_port":  "1",
	}

	if actual := fields.Reverse().Reverse(); !reflect.DeepEqual(actual, fields) {
		t.Logf("actual: %v", actual)
		t.Logf("expected: %v", fields)
		t.Errorf("reversing twice did not restore the fields")
	}
}

func Test_ReverseTwiceWithBothSubstrings(t *testing.T) {
	fields := Fields{"src_dst": "1"}

	if actual := fields.Reverse().Reverse(); reflect.DeepEqual(actual, fields) {
		t.Errorf("expected keys holding both src and dst not to round trip, got %v", actual)
	}
}
