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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

type client struct {
	server     string
	httpClient *http.Client
}

func newClient(server string, timeout time.Duration) *client {
	return &client{
		server:     strings.TrimSuffix(server, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// get requests path and writes the indented JSON response to out. Responses
// other than 200 are returned as errors carrying the API result.
func (c *client) get(path string, out io.Writer) error {
	resp, err := c.httpClient.Get(c.server + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var result struct {
			Result string `json:"Result"`
		}
		if err := json.Unmarshal(body, &result); err != nil || result.Result == "" {
			return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("%s: %s", resp.Status, result.Result)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, body, "", "  "); err != nil {
		return fmt.Errorf("error decoding response: %v", err)
	}

	_, err = indented.WriteTo(out)
	return err
}
