// Copyright 2023 The NATS Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"encoding/json"

	nats "github.com/nats-io/nats-core-engine"
)

// wireServerInfo mirrors the JSON shape of a server INFO frame, the
// same field set the teacher connection unmarshals in processInfo.
type wireServerInfo struct {
	ID          string   `json:"server_id"`
	Version     string   `json:"version"`
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	Headers     bool     `json:"headers"`
	MaxPayload  int64    `json:"max_payload"`
	ConnectURLs []string `json:"connect_urls"`
}

func decodeInfo(args string) (nats.ServerInfo, error) {
	if args == "" {
		return nats.ServerInfo{}, nil
	}
	var w wireServerInfo
	if err := json.Unmarshal([]byte(args), &w); err != nil {
		return nats.ServerInfo{}, err
	}
	return nats.ServerInfo{
		ID:          w.ID,
		Version:     w.Version,
		Host:        w.Host,
		Port:        w.Port,
		Headers:     w.Headers,
		MaxPayload:  w.MaxPayload,
		ConnectURLs: w.ConnectURLs,
	}, nil
}
