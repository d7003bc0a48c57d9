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
	"reflect"
	"testing"
)

func Test_MatchFromFields(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		matchString string
		numFields   int
		expectErr   bool
	}{
		{
			name:        "no fields",
			fields:      map[string]string{},
			matchString: "",
			numFields:   0,
		},
		{
			name:        "empty values are skipped",
			fields:      map[string]string{"ipv4_src": "", "tcp_dst": " "},
			matchString: "",
			numFields:   0,
		},
		{
			name: "fields are ordered by prerequisite",
			fields: map[string]string{
				"tcp_src":  "1234",
				"ipv4_dst": "10.0.0.2",
				"ip_proto": "6",
				"eth_type": "2048",
			},
			matchString: "dl_type=2048 nw_proto=6 nw_dst=10.0.0.2 tcp_src=1234",
			numFields:   4,
		},
		{
			name:        "ipv4 network",
			fields:      map[string]string{"eth_type": "0x800", "ipv4_src": "10.1.2.3/16"},
			matchString: "dl_type=0x800 nw_src=10.1.2.3/16",
			numFields:   2,
		},
		{
			name:        "ethernet addresses",
			fields:      map[string]string{"eth_src": "00:00:00:00:00:01", "eth_dst": "00:00:00:00:00:02"},
			matchString: "dl_dst=00:00:00:00:00:02 dl_src=00:00:00:00:00:01",
			numFields:   2,
		},
		{
			name:      "unsupported field",
			fields:    map[string]string{"arp_op": "1"},
			expectErr: true,
		},
		{
			name:      "port out of range",
			fields:    map[string]string{"udp_dst": "70000"},
			expectErr: true,
		},
		{
			name:      "ipv6 address in ipv4 field",
			fields:    map[string]string{"ipv4_src": "fe80::1"},
			expectErr: true,
		},
		{
			name:      "malformed network",
			fields:    map[string]string{"ipv4_dst": "10.0.0.0/40"},
			expectErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			match, err := MatchFromFields(test.fields)
			if test.expectErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if match.String() != test.matchString {
				t.Logf("actual match: %q", match.String())
				t.Logf("expected match: %q", test.matchString)
				t.Errorf("unexpected match string")
			}

			if match.Len() != test.numFields {
				t.Errorf("expected %d fields, got %d", test.numFields, match.Len())
			}

			if n := len(match.OfpMatch().OxmFields); n != test.numFields {
				t.Errorf("expected %d oxm fields, got %d", test.numFields, n)
			}
		})
	}
}

func Test_WithFieldReplaces(t *testing.T) {
	match := NewMatch()
	if err := match.WithField("tcp_dst", "80"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := match.WithField("tcp_dst", "443"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]string{"tcp_dst": "443"}
	if !reflect.DeepEqual(match.Fields(), expected) {
		t.Logf("actual fields: %v", match.Fields())
		t.Logf("expected fields: %v", expected)
		t.Errorf("unexpected match fields")
	}
}

func Test_SupportedFields(t *testing.T) {
	fields := SupportedFields()
	if len(fields) != len(fieldSpecs) {
		t.Fatalf("expected %d fields, got %d", len(fieldSpecs), len(fields))
	}

	for _, name := range fields {
		if _, ok := fieldIndex[name]; !ok {
			t.Errorf("field %q missing from index", name)
		}
	}
}
