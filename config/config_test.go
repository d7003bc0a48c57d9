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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-vswitch/k-sfc/sfc"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":6633", cfg.OpenFlowAddr)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, 15*time.Second, cfg.EchoInterval.Duration)
	assert.Equal(t, uint8(0), cfg.Tables.Catching)
	assert.Equal(t, uint8(1), cfg.Tables.Classification)
	assert.Equal(t, uint8(2), cfg.Tables.Forwarding)
	assert.Equal(t, uint64(0xFFFFFFFF), cfg.MetadataMask)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	data := []byte(`
openflowAddr: 127.0.0.1:6653
echoInterval: 30s
tables:
  forwarding: 3
flows:
  "7":
    fields:
      eth_type: "0x0800"
      ipv4_src: 10.0.0.1
      tcp_dst: "80"
    hops:
    - id: firewall
    - id: dpi
      oneWay: true
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6653", cfg.OpenFlowAddr)
	assert.Equal(t, DefaultAPIAddr, cfg.APIAddr, "unset values keep their default")
	assert.Equal(t, 30*time.Second, cfg.EchoInterval.Duration)
	assert.Equal(t, uint8(0), cfg.Tables.Catching)
	assert.Equal(t, uint8(1), cfg.Tables.Classification)
	assert.Equal(t, uint8(3), cfg.Tables.Forwarding)

	require.Contains(t, cfg.Flows, "7")
	def := cfg.Flows["7"]
	assert.Equal(t, "10.0.0.1", def.Fields["ipv4_src"])
	assert.Equal(t, []sfc.HopDefinition{{ID: "firewall"}, {ID: "dpi", OneWay: true}}, def.Hops)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "openflowAddr: ["},
		{name: "missing port", data: "openflowAddr: localhost"},
		{name: "empty api address", data: `apiAddr: ""`},
		{name: "forwarding before catching", data: "tables:\n  catching: 2\n  forwarding: 1\n  classification: 3"},
		{name: "zero metadata mask", data: "metadataMask: 0"},
		{name: "negative echo interval", data: "echoInterval: -1s"},
		{name: "non numeric flow id", data: "flows:\n  abc: {}"},
		{name: "flow id outside metadata mask", data: "metadataMask: 0xFF\nflows:\n  \"7\": {}"},
		{name: "unknown match field", data: "flows:\n  \"7\":\n    fields:\n      arp_op: \"1\""},
		{name: "hop without id", data: "flows:\n  \"7\":\n    hops:\n    - oneWay: true"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "k-sfc-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("apiAddr: :9090\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.APIAddr)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	source, err := NewStaticSource(map[string]sfc.Definition{
		"7": {
			Fields: sfc.Fields{"ipv4_src": "10.0.0.1"},
			Hops:   []sfc.HopDefinition{{ID: "firewall"}},
		},
	})
	require.NoError(t, err)

	def, err := source.Definition(7)
	require.NoError(t, err)
	assert.Equal(t, sfc.Fields{"ipv4_src": "10.0.0.1"}, def.Fields)
	assert.Len(t, def.Hops, 1)

	// returned definitions are copies
	def.Fields["ipv4_src"] = "10.0.0.2"
	def.Hops[0].ID = "nat"
	again, err := source.Definition(7)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", again.Fields["ipv4_src"])
	assert.Equal(t, "firewall", again.Hops[0].ID)

	missing, err := source.Definition(42)
	require.NoError(t, err)
	assert.Empty(t, missing.Fields)
	assert.Empty(t, missing.Hops)

	_, err = NewStaticSource(map[string]sfc.Definition{"x": {}})
	assert.Error(t, err)
}
