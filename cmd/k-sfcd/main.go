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

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog"

	"github.com/k-vswitch/k-sfc/config"
	"github.com/k-vswitch/k-sfc/connection"
	"github.com/k-vswitch/k-sfc/controllers/api"
	"github.com/k-vswitch/k-sfc/controllers/openflow"
	"github.com/k-vswitch/k-sfc/metrics"
)

func main() {
	klog.InitFlags(flag.CommandLine)

	configPath := flag.String("config", "", "path to the YAML configuration file")
	openflowAddr := flag.String("openflow-addr", "", "address to accept OpenFlow switch connections on, overrides the config file")
	apiAddr := flag.String("api-addr", "", "address to serve the REST API on, overrides the config file")
	flag.Parse()

	klog.Info("starting k-sfc")

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			klog.Errorf("error loading config: %v", err)
			os.Exit(1)
		}
	}

	if *openflowAddr != "" {
		cfg.OpenFlowAddr = *openflowAddr
	}
	if *apiAddr != "" {
		cfg.APIAddr = *apiAddr
	}

	if err := cfg.Validate(); err != nil {
		klog.Errorf("invalid config: %v", err)
		os.Exit(1)
	}

	source, err := cfg.StaticSource()
	if err != nil {
		klog.Errorf("error loading flow definitions: %v", err)
		os.Exit(1)
	}

	stopCh := make(chan struct{})

	term := make(chan os.Signal, 1)
	signal.Notify(term, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-term
		close(stopCh)
	}()

	m := metrics.NewRegistry()
	c := openflow.NewController(cfg, source, m)

	listener, err := connection.NewOFListener(cfg.OpenFlowAddr)
	if err != nil {
		klog.Errorf("error starting open flow listener: %v", err)
		os.Exit(1)
	}
	klog.Infof("accepting OpenFlow connections on %s", listener.Addr())

	go func() {
		if err := listener.Serve(); err != nil {
			klog.Errorf("open flow listener stopped: %v", err)
			os.Exit(1)
		}
	}()
	go c.Run(listener.Events(), stopCh)

	server := api.NewServer(c, m)
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := server.ListenAndServe(cfg.APIAddr, stopCh); err != nil {
			klog.Errorf("error serving REST API: %v", err)
			os.Exit(1)
		}
	}()

	<-stopCh
	klog.Info("shutting down k-sfc")

	if err := listener.Close(); err != nil {
		klog.Errorf("error closing open flow listener: %v", err)
	}

	<-serverDone
	klog.Flush()
}
