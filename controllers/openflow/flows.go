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
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog"

	"github.com/k-vswitch/k-sfc/flows"
	"github.com/k-vswitch/k-sfc/metrics"
	"github.com/k-vswitch/k-sfc/sfc"
	"github.com/k-vswitch/k-sfc/switches"
)

const (
	// catching rules sit above the default-miss rules
	priorityCatching    = 1
	priorityDefaultMiss = 0
)

// InstallError is returned when a rule could not be sent to a switch.
type InstallError struct {
	DatapathID uint64
	Kind       string
	FlowID     uint64
	Table      uint8
	Err        error
}

func (e *InstallError) Error() string {
	if e.Kind == metrics.RuleKindDefaultMiss {
		return fmt.Sprintf("error installing default-miss rule in table %d on switch %s: %v",
			e.Table, switches.FormatDPID(e.DatapathID), e.Err)
	}

	return fmt.Sprintf("error installing %s rule for flow %d in table %d on switch %s: %v",
		e.Kind, e.FlowID, e.Table, switches.FormatDPID(e.DatapathID), e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// AddCatchingRule installs the catching rules of flow on every registered
// switch. Switches that fail do not stop the installation on the others;
// their errors are returned as an aggregate.
func (c *Controller) AddCatchingRule(flow *sfc.BiFlow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.addCatchingRule(flow)
}

// addCatchingRule tags the packets of each direction of flow with the flow ID
// and sends them on to the forwarding table. The reverse direction is only
// installed for bidirectional flows. c.mu must be held.
func (c *Controller) addCatchingRule(flow *sfc.BiFlow) error {
	var errs []error

	dps := c.registry.All()
	for _, flowID := range flow.IDs() {
		match, err := flows.MatchFromFields(flow.FieldsFor(flowID))
		if err != nil {
			c.metrics.RecordRuleInstallFailure("match")
			errs = append(errs, fmt.Errorf("error building match for flow %d: %w", flowID, err))
		} else {
			rule := flows.NewRule().WithTable(c.tables.Catching).
				WithPriority(priorityCatching).WithMatch(match).
				WithMetadata(flowID, c.metadataMask).
				WithGotoTable(c.tables.Forwarding)

			for _, dp := range dps {
				if err := c.installRule(dp, rule, metrics.RuleKindCatching, flowID); err != nil {
					errs = append(errs, err)
				}
			}
		}

		if !flow.Bidirectional() {
			break
		}
	}

	return utilerrors.NewAggregate(errs)
}

// installDefaultMiss sends packets missing the classification and forwarding
// tables to the controller. c.mu must be held.
func (c *Controller) installDefaultMiss(dp switches.Datapath) error {
	var errs []error
	for _, table := range []uint8{c.tables.Classification, c.tables.Forwarding} {
		rule := flows.NewRule().WithTable(table).
			WithPriority(priorityDefaultMiss).WithActionController()

		if err := c.installRule(dp, rule, metrics.RuleKindDefaultMiss, 0); err != nil {
			errs = append(errs, err)
		}
	}

	return utilerrors.NewAggregate(errs)
}

func (c *Controller) installRule(dp switches.Datapath, rule *flows.Rule, kind string, flowID uint64) error {
	installErr := func(err error) error {
		return &InstallError{
			DatapathID: dp.ID(),
			Kind:       kind,
			FlowID:     flowID,
			Table:      rule.Table(),
			Err:        err,
		}
	}

	flowMod, err := rule.FlowMod()
	if err != nil {
		c.metrics.RecordRuleInstallFailure("encode")
		return installErr(err)
	}

	if err := dp.Send(flowMod); err != nil {
		c.metrics.RecordRuleInstallFailure("send")
		return installErr(err)
	}

	if journal, ok := c.journals[dp.ID()]; ok {
		journal.AddFlow(rule)
	}
	c.metrics.RecordRuleInstalled(kind)

	klog.V(4).Infof("installed rule on switch %s: %s", switches.FormatDPID(dp.ID()), rule)
	return nil
}
