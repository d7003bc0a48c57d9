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

package openflow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/klog"

	"github.com/k-vswitch/k-sfc/sfc"
	"github.com/k-vswitch/k-sfc/switches"
)

var (
	ErrFlowNotFound   = errors.New("flow not found")
	ErrSwitchNotFound = errors.New("switch not found")
)

// SwitchStatus describes a registered switch.
type SwitchStatus struct {
	DatapathID string `json:"datapathId"`
	State      string `json:"state"`
	Rules      int    `json:"rules"`
}

// AddFlow builds the flow identified by id and installs its catching rules on
// every registered switch. Adding a flow that already exists replaces it.
//
// Failing to install on some switches does not fail AddFlow; those failures
// are logged and counted.
func (c *Controller) AddFlow(id string) error {
	flowID, err := sfc.ParseFlowID(id)
	if err != nil {
		return err
	}

	if reverseID := flowID + sfc.ReverseIDOffset; reverseID&c.metadataMask != reverseID {
		return fmt.Errorf("%w %q: reverse flow ID %d does not fit metadata mask %#x",
			sfc.ErrInvalidFlowID, id, reverseID, c.metadataMask)
	}

	def, err := c.source.Definition(flowID)
	if err != nil {
		return fmt.Errorf("error getting definition of flow %d: %w", flowID, err)
	}

	flow := sfc.NewBiFlow(flowID, def)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.flowTable[flowID]; exists {
		klog.Infof("replacing flow %d", flowID)
	}
	c.flowTable[flowID] = flow
	c.metrics.SetFlowsActive(len(c.flowTable))

	if err := c.addCatchingRule(flow); err != nil {
		klog.Warningf("flow %d was not installed on every switch: %v", flowID, err)
	}

	klog.Infof("added flow %d with chain %s", flowID, flow)
	return nil
}

// DeleteFlow forgets the flow identified by id. Rules already installed on the
// switches are left in place.
func (c *Controller) DeleteFlow(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	flowID, ok := c.lookupFlow(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrFlowNotFound, id)
	}

	delete(c.flowTable, flowID)
	c.metrics.SetFlowsActive(len(c.flowTable))

	klog.Infof("deleted flow %d", flowID)
	return nil
}

// ShowFlow renders the forward hop sequence of the flow identified by id.
func (c *Controller) ShowFlow(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	flowID, ok := c.lookupFlow(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrFlowNotFound, id)
	}

	return c.flowTable[flowID].String(), nil
}

// ShowAllFlows renders every flow keyed by its decimal ID.
func (c *Controller) ShowAllFlows() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := make(map[string]string, len(c.flowTable))
	for flowID, flow := range c.flowTable {
		all[strconv.FormatUint(flowID, 10)] = flow.String()
	}

	return all
}

// Switches lists the registered switches ordered by datapath ID.
func (c *Controller) Switches() []SwitchStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.registry.IDs()
	statuses := make([]SwitchStatus, 0, len(ids))
	for _, id := range ids {
		rules := 0
		if journal, ok := c.journals[id]; ok {
			rules = journal.Len()
		}

		statuses = append(statuses, SwitchStatus{
			DatapathID: switches.FormatDPID(id),
			State:      string(c.registry.State(id)),
			Rules:      rules,
		})
	}

	return statuses
}

// SwitchFlows renders the rules sent to a registered switch, one per line in
// ovs-ofctl syntax. dpid is either colon separated hex or a plain integer.
func (c *Controller) SwitchFlows(dpid string) (string, error) {
	id, err := parseDPID(dpid)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSwitchNotFound, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry.Get(id); !ok {
		return "", fmt.Errorf("%w: %s", ErrSwitchNotFound, switches.FormatDPID(id))
	}

	journal, ok := c.journals[id]
	if !ok {
		return "", nil
	}

	return journal.String(), nil
}

// lookupFlow resolves id to a known flow. c.mu must be held.
func (c *Controller) lookupFlow(id string) (uint64, bool) {
	flowID, err := sfc.ParseFlowID(id)
	if err != nil {
		return 0, false
	}

	_, ok := c.flowTable[flowID]
	return flowID, ok
}

func parseDPID(dpid string) (uint64, error) {
	if strings.Contains(dpid, ":") {
		return strconv.ParseUint(strings.Replace(dpid, ":", "", -1), 16, 64)
	}

	return strconv.ParseUint(dpid, 0, 64)
}
