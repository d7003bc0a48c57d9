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
	"sort"
	"strings"
)

// Fields maps match field names (e.g. "ipv4_src") to their values. Empty values
// act as wildcards.
type Fields map[string]string

// Reverse returns the match fields of the opposite direction. Any key containing
// "src" has it replaced with "dst", otherwise any key containing "dst" has it
// replaced with "src"; other keys are copied unchanged.
//
// Keys containing both substrings are not restored by a second Reverse, e.g.
// "src_dst" becomes "dst_dst" and then "src_src". When two keys map to the same
// reverse key, the value of the key that sorts last is kept.
func (f Fields) Reverse() Fields {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	reverse := make(Fields, len(f))
	for _, key := range keys {
		reverse[reverseKey(key)] = f[key]
	}

	return reverse
}

// Copy returns a shallow copy of f, never nil.
func (f Fields) Copy() Fields {
	c := make(Fields, len(f))
	for key, value := range f {
		c[key] = value
	}

	return c
}

func reverseKey(key string) string {
	switch {
	case strings.Contains(key, "src"):
		return strings.Replace(key, "src", "dst", -1)
	case strings.Contains(key, "dst"):
		return strings.Replace(key, "dst", "src", -1)
	default:
		return key
	}
}
