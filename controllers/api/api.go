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

// Package api serves the northbound REST interface of the controller.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"k8s.io/klog"

	"github.com/k-vswitch/k-sfc/controllers/openflow"
	"github.com/k-vswitch/k-sfc/metrics"
	"github.com/k-vswitch/k-sfc/sfc"
)

const (
	ResultSuccess  = "Success!"
	ResultNotFound = "Not found"
	ResultError    = "Something went wrong!"

	shutdownTimeout = 5 * time.Second
)

// FlowController is the set of northbound operations exposed over HTTP.
type FlowController interface {
	AddFlow(id string) error
	DeleteFlow(id string) error
	ShowFlow(id string) (string, error)
	ShowAllFlows() map[string]string
	Switches() []openflow.SwitchStatus
	SwitchFlows(dpid string) (string, error)
}

// Result is the body of every response that carries no data.
type Result struct {
	Result string `json:"Result"`
}

// SwitchFlows is the body of the switch flows response.
type SwitchFlows struct {
	DatapathID string   `json:"datapathId"`
	Flows      []string `json:"flows"`
}

type httpAPIFunc func(r *http.Request, vars map[string]string) (interface{}, error)

type Server struct {
	controller FlowController
	metrics    *metrics.Registry
	router     *mux.Router
}

func NewServer(controller FlowController, m *metrics.Registry) *Server {
	s := &Server{
		controller: controller,
		metrics:    m,
	}
	s.router = s.createRouter()

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves the API on addr until stopCh is closed. It returns
// once in-flight requests have finished or the shutdown timeout expired.
func (s *Server) ListenAndServe(addr string, stopCh <-chan struct{}) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		<-stopCh
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			klog.Errorf("error shutting down HTTP server: %v", err)
		}
	}()

	klog.Infof("HTTP server listening on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-shutdownDone
	return nil
}

// Create a router and initialize the routes
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()

	// List of routes
	routeMap := map[string]map[string]httpAPIFunc{
		"GET": {
			"/add_flow/{flow_id}":    s.httpAddFlow,
			"/delete_flow/{flow_id}": s.httpDeleteFlow,
			"/show_flow/{flow_id}":   s.httpShowFlow,
			"/show_all_flows":        s.httpShowAllFlows,
			"/switches":              s.httpGetSwitches,
			"/switches/{dpid}/flows": s.httpGetSwitchFlows,
			"/healthz":               s.httpHealthz,
		},
	}

	// Register each method/path
	for method, routes := range routeMap {
		for route, funct := range routes {
			klog.V(4).Infof("Registering %s %s", method, route)
			router.Path(route).Methods(method).HandlerFunc(s.makeHTTPHandler(method, route, funct))
		}
	}

	router.Path("/metrics").Methods("GET").Handler(s.metrics.Handler())

	return router
}

// routeIsPeriodic reports routes polled by probes, which are not logged.
func routeIsPeriodic(method, route string) bool {
	return method == "GET" && route == "/healthz"
}

func (s *Server) makeHTTPHandler(method, route string, handlerFunc httpAPIFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if !routeIsPeriodic(method, route) {
			klog.V(2).Infof("%s %s", r.Method, r.RequestURI)
		}

		code := http.StatusOK
		resp, err := handlerFunc(r, mux.Vars(r))
		if err != nil {
			code = statusForError(err)
			if code == http.StatusNotFound {
				resp = Result{Result: ResultNotFound}
			} else {
				klog.Errorf("handler for %s %s returned error: %v", method, route, err)
				resp = Result{Result: ResultError}
			}
		}

		if err := writeJSON(w, code, resp); err != nil {
			klog.Errorf("error writing response for %s %s: %v", method, route, err)
		}

		s.metrics.RecordHTTPRequest(method, route, strconv.Itoa(code), time.Since(start))
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, sfc.ErrInvalidFlowID),
		errors.Is(err, openflow.ErrFlowNotFound),
		errors.Is(err, openflow.ErrSwitchNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes the value v to the http response stream as json with
// standard json encoding.
func writeJSON(w http.ResponseWriter, code int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	return json.NewEncoder(w).Encode(v)
}

func (s *Server) httpAddFlow(r *http.Request, vars map[string]string) (interface{}, error) {
	if err := s.controller.AddFlow(vars["flow_id"]); err != nil {
		return nil, err
	}

	return Result{Result: ResultSuccess}, nil
}

// httpDeleteFlow forgets a flow. Its rules stay installed on the switches.
func (s *Server) httpDeleteFlow(r *http.Request, vars map[string]string) (interface{}, error) {
	if err := s.controller.DeleteFlow(vars["flow_id"]); err != nil {
		return nil, err
	}

	return Result{Result: ResultSuccess}, nil
}

func (s *Server) httpShowFlow(r *http.Request, vars map[string]string) (interface{}, error) {
	flowID := vars["flow_id"]
	hops, err := s.controller.ShowFlow(flowID)
	if err != nil {
		return nil, err
	}

	return map[string]string{flowID: hops}, nil
}

func (s *Server) httpShowAllFlows(r *http.Request, vars map[string]string) (interface{}, error) {
	return s.controller.ShowAllFlows(), nil
}

func (s *Server) httpGetSwitches(r *http.Request, vars map[string]string) (interface{}, error) {
	return s.controller.Switches(), nil
}

func (s *Server) httpGetSwitchFlows(r *http.Request, vars map[string]string) (interface{}, error) {
	dpid := vars["dpid"]
	journal, err := s.controller.SwitchFlows(dpid)
	if err != nil {
		return nil, err
	}

	rules := []string{}
	for _, line := range strings.Split(journal, "\n") {
		if line != "" {
			rules = append(rules, line)
		}
	}

	return SwitchFlows{DatapathID: dpid, Flows: rules}, nil
}

func (s *Server) httpHealthz(r *http.Request, vars map[string]string) (interface{}, error) {
	return Result{Result: ResultSuccess}, nil
}
