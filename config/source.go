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

package config

import (
	"fmt"

	"github.com/k-vswitch/k-sfc/sfc"
)

// StaticSource serves flow definitions from the configuration file. Flows
// without an entry get the empty definition.
type StaticSource struct {
	definitions map[uint64]sfc.Definition
}

func NewStaticSource(defs map[string]sfc.Definition) (*StaticSource, error) {
	definitions := make(map[uint64]sfc.Definition, len(defs))
	for id, def := range defs {
		flowID, err := sfc.ParseFlowID(id)
		if err != nil {
			return nil, fmt.Errorf("invalid flow %q: %w", id, err)
		}
		definitions[flowID] = def
	}

	return &StaticSource{definitions: definitions}, nil
}

func (s *StaticSource) Definition(flowID uint64) (sfc.Definition, error) {
	def, ok := s.definitions[flowID]
	if !ok {
		return sfc.Definition{}, nil
	}

	hops := make([]sfc.HopDefinition, len(def.Hops))
	copy(hops, def.Hops)

	return sfc.Definition{
		Fields: def.Fields.Copy(),
		OneWay: def.OneWay,
		Hops:   hops,
	}, nil
}
