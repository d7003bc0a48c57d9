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

// Package metrics holds the Prometheus collectors of the controller.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rule kinds recorded by RecordRuleInstalled.
const (
	RuleKindCatching    = "catching"
	RuleKindDefaultMiss = "default_miss"
)

// Registry holds all metrics for the controller
type Registry struct {
	// Switch and flow metrics
	SwitchesConnected        prometheus.Gauge
	FlowsActive              prometheus.Gauge
	RulesInstalledTotal      *prometheus.CounterVec
	RuleInstallFailuresTotal *prometheus.CounterVec

	// Southbound metrics
	SouthboundMessagesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initControllerMetrics()
	r.initHTTPMetrics()

	return r
}

func (r *Registry) initControllerMetrics() {
	r.SwitchesConnected = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ksfc_switches_connected",
			Help: "Number of switches currently registered",
		},
	)

	r.FlowsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ksfc_flows_active",
			Help: "Number of flows in the flow table",
		},
	)

	r.RulesInstalledTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksfc_rules_installed_total",
			Help: "Total number of flow mods sent to switches",
		},
		[]string{"kind"},
	)

	r.RuleInstallFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksfc_rule_install_failures_total",
			Help: "Total number of rules that could not be installed",
		},
		[]string{"reason"},
	)

	r.SouthboundMessagesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksfc_southbound_messages_total",
			Help: "Total number of OpenFlow messages received from switches",
		},
		[]string{"type"},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksfc_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ksfc_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (r *Registry) RecordRuleInstalled(kind string) {
	r.RulesInstalledTotal.WithLabelValues(kind).Inc()
}

func (r *Registry) RecordRuleInstallFailure(reason string) {
	r.RuleInstallFailuresTotal.WithLabelValues(reason).Inc()
}

func (r *Registry) RecordSouthboundMessage(msgType string) {
	r.SouthboundMessagesTotal.WithLabelValues(msgType).Inc()
}

func (r *Registry) SetSwitchesConnected(n int) {
	r.SwitchesConnected.Set(float64(n))
}

func (r *Registry) SetFlowsActive(n int) {
	r.FlowsActive.Set(float64(n))
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
