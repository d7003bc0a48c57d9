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

// HopDefinition describes a hop appended after the initial hop of a flow.
type HopDefinition struct {
	ID     string `json:"id" validate:"required"`
	OneWay bool   `json:"oneWay,omitempty"`
}

// Definition is everything a flow is built from besides its ID.
type Definition struct {
	// Fields are the forward direction match fields.
	Fields Fields `json:"fields,omitempty"`
	// OneWay makes the initial hop unidirectional.
	OneWay bool            `json:"oneWay,omitempty"`
	Hops   []HopDefinition `json:"hops,omitempty" validate:"dive"`
}

// MatchSource supplies the definition of a flow when it is added.
type MatchSource interface {
	Definition(flowID uint64) (Definition, error)
}

// EmptySource defines every flow with no match fields and a single bidirectional
// hop.
type EmptySource struct{}

func (EmptySource) Definition(flowID uint64) (Definition, error) {
	return Definition{}, nil
}
