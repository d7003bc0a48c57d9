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

// Package config loads the controller configuration.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/go-playground/validator/v10"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/yaml"

	"github.com/k-vswitch/k-sfc/flows"
	"github.com/k-vswitch/k-sfc/sfc"
)

const (
	DefaultOpenFlowAddr = ":6633"
	DefaultAPIAddr      = ":8080"
	DefaultEchoInterval = 15 * time.Second

	DefaultCatchingTable       = 0
	DefaultClassificationTable = 1
	DefaultForwardingTable     = 2

	DefaultMetadataMask = 0xFFFFFFFF
)

var validate = validator.New()

// Tables are the flow tables the controller programs. Packets enter the
// catching table and jump forward to the forwarding table.
type Tables struct {
	Catching       uint8 `json:"catching"`
	Classification uint8 `json:"classification" validate:"gtfield=Catching"`
	Forwarding     uint8 `json:"forwarding" validate:"gtfield=Catching"`
}

type Config struct {
	OpenFlowAddr string          `json:"openflowAddr" validate:"required,hostname_port"`
	APIAddr      string          `json:"apiAddr" validate:"required,hostname_port"`
	EchoInterval metav1.Duration `json:"echoInterval"`
	Tables       Tables          `json:"tables"`
	MetadataMask uint64          `json:"metadataMask" validate:"required"`

	// Flows maps a flow ID to the definition used when that flow is added.
	Flows map[string]sfc.Definition `json:"flows,omitempty" validate:"dive"`
}

func Default() *Config {
	return &Config{
		OpenFlowAddr: DefaultOpenFlowAddr,
		APIAddr:      DefaultAPIAddr,
		EchoInterval: metav1.Duration{Duration: DefaultEchoInterval},
		Tables: Tables{
			Catching:       DefaultCatchingTable,
			Classification: DefaultClassificationTable,
			Forwarding:     DefaultForwardingTable,
		},
		MetadataMask: DefaultMetadataMask,
	}
}

// Load reads the YAML configuration at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %q: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration, reporting every problem found.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		for _, fieldErr := range validationErrs {
			errs = append(errs, fmt.Errorf("%s: failed on the %q rule", fieldErr.Namespace(), fieldErr.Tag()))
		}
	}

	if c.EchoInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("echoInterval must be positive, got %s", c.EchoInterval.Duration))
	}

	for id, def := range c.Flows {
		flowID, err := sfc.ParseFlowID(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("flows[%s]: %w", id, err))
			continue
		}

		if reverseID := flowID + sfc.ReverseIDOffset; reverseID&c.MetadataMask != reverseID {
			errs = append(errs, fmt.Errorf("flows[%s]: reverse flow ID %d does not fit metadata mask %#x", id, reverseID, c.MetadataMask))
		}

		if _, err := flows.MatchFromFields(def.Fields); err != nil {
			errs = append(errs, fmt.Errorf("flows[%s]: %v", id, err))
		}
	}

	return utilerrors.NewAggregate(errs)
}

// StaticSource returns a match source serving the flows section.
func (c *Config) StaticSource() (*StaticSource, error) {
	return NewStaticSource(c.Flows)
}
