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
	"fmt"
	"net/url"
	"os"
	"time"

	flag "github.com/spf13/pflag"
)

const usage = `usage: k-sfcctl [flags] <command> [argument]

commands:
  add <flow-id>          add a flow and install its rules
  delete <flow-id>       forget a flow, installed rules are left in place
  show <flow-id>         show the hops of a flow
  show-all               show the hops of every flow
  switches               list the registered switches
  switch-flows <dpid>    list the rules sent to a switch

flags:
`

func main() {
	server := flag.StringP("server", "s", "http://127.0.0.1:8080", "address of the k-sfc REST API")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	path, err := commandPath(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	client := newClient(*server, *timeout)
	if err := client.get(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// commandPath maps a command line to the API path serving it.
func commandPath(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("no command given")
	}

	command, rest := args[0], args[1:]

	withArg := map[string]string{
		"add":          "/add_flow/%s",
		"delete":       "/delete_flow/%s",
		"show":         "/show_flow/%s",
		"switch-flows": "/switches/%s/flows",
	}
	withoutArg := map[string]string{
		"show-all": "/show_all_flows",
		"switches": "/switches",
	}

	if format, ok := withArg[command]; ok {
		if len(rest) != 1 {
			return "", fmt.Errorf("command %q takes exactly one argument", command)
		}
		return fmt.Sprintf(format, url.PathEscape(rest[0])), nil
	}

	if path, ok := withoutArg[command]; ok {
		if len(rest) != 0 {
			return "", fmt.Errorf("command %q takes no arguments", command)
		}
		return path, nil
	}

	return "", fmt.Errorf("unknown command %q", command)
}
