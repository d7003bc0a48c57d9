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

// Package chain implements the ordered hop list a service chain is built from.
//
// A Chain grows forward only. Every hop links forward to the hop appended after
// it, but links backward to the most recent bidirectional hop that preceded it,
// so backward traversal only ever visits hops that permit reverse traffic.
package chain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackwardTraversal is returned when a chain has no bidirectional hop to
// anchor a backward traversal on.
var ErrBackwardTraversal = errors.New("unreachable backward traversal: chain has no bidirectional hop")

// Hop is a single stage of a chain. Hops are owned by their chain and are never
// modified once appended.
type Hop struct {
	ID            string
	Bidirectional bool

	previous *Hop
	next     *Hop
}

func (h *Hop) String() string {
	return h.ID
}

// Previous returns the hop reverse traffic moves to from h, or nil.
func (h *Hop) Previous() *Hop {
	return h.previous
}

// Next returns the hop appended after h, or nil.
func (h *Hop) Next() *Hop {
	return h.next
}

// Chain is an ordered sequence of hops. A chain always holds at least one hop.
type Chain struct {
	start *Hop
	last  *Hop
	// back is the most recent bidirectional hop, nil if there is none
	back *Hop
	// current is the traversal cursor used by Forward and Backward
	current *Hop

	length int
}

// New creates a chain holding a single hop.
func New(id string, bidirectional bool) *Chain {
	hop := &Hop{ID: id, Bidirectional: bidirectional}

	c := &Chain{
		start:  hop,
		last:   hop,
		length: 1,
	}
	if bidirectional {
		c.back = hop
	}

	return c
}

// Append adds a hop to the end of the chain and returns it. Hop IDs are not
// required to be unique.
func (c *Chain) Append(id string, bidirectional bool) *Hop {
	hop := &Hop{
		ID:            id,
		Bidirectional: bidirectional,
		previous:      c.back,
	}

	c.last.next = hop
	c.last = hop
	if bidirectional {
		c.back = hop
	}

	c.length++
	return hop
}

// Forward moves the cursor one hop forward and returns the hop it lands on.
// When the cursor is unset or already at the end it wraps to the first hop.
func (c *Chain) Forward() *Hop {
	if c.current == nil || c.current.next == nil {
		c.current = c.start
	} else {
		c.current = c.current.next
	}

	return c.current
}

// Backward moves the cursor one hop backward and returns the hop it lands on.
// When the cursor is unset or has nowhere to go it restarts at the most recent
// bidirectional hop.
func (c *Chain) Backward() (*Hop, error) {
	if c.current == nil || c.current.previous == nil {
		if c.back == nil {
			return nil, ErrBackwardTraversal
		}
		c.current = c.back
	} else {
		c.current = c.current.previous
	}

	return c.current, nil
}

// ForwardList returns every hop from the start of the chain to its end. It does
// not move the cursor.
func (c *Chain) ForwardList() []*Hop {
	hops := make([]*Hop, 0, c.length)
	for hop := c.start; hop != nil; hop = hop.next {
		hops = append(hops, hop)
	}

	return hops
}

// BackwardList returns the hops visited walking back from the most recent
// bidirectional hop. It is empty if the chain has no bidirectional hop.
func (c *Chain) BackwardList() []*Hop {
	hops := []*Hop{}
	for hop := c.back; hop != nil; hop = hop.previous {
		hops = append(hops, hop)
	}

	return hops
}

func (c *Chain) Start() *Hop {
	return c.start
}

func (c *Chain) Last() *Hop {
	return c.last
}

func (c *Chain) Back() *Hop {
	return c.back
}

// Bidirectional reports whether any hop of the chain permits reverse traffic.
func (c *Chain) Bidirectional() bool {
	return c.back != nil
}

func (c *Chain) Len() int {
	return c.length
}

// String renders the forward hop list, e.g. "[7 10 20]".
func (c *Chain) String() string {
	ids := []string{}
	for _, hop := range c.ForwardList() {
		ids = append(ids, hop.ID)
	}

	return fmt.Sprintf("[%s]", strings.Join(ids, " "))
}
