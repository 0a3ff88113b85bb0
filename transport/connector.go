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

// Package transport is a reference Connector/Stream implementation over
// plain TCP, grounded on the teacher connection's createConn/
// processExpectedInfo/sendConnect/doReconnect shape. URL parsing beyond
// host:port, TLS, and authentication are intentionally out of scope,
// same as the core engine's own scope boundary.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	nats "github.com/nats-io/nats-core-engine"
	"golang.org/x/time/rate"
)

// TCP is a reference Connector that dials plain TCP, performs the
// INFO/CONNECT handshake, and paces reconnect attempts with a token
// bucket keyed off Options.ReconnectWait.
type TCP struct {
	opts *nats.Options

	dialTimeout      time.Duration
	handshakeTimeout time.Duration

	mu      sync.Mutex
	urls    []string
	next    int
	limiter *rate.Limiter
}

// New returns a TCP connector that will dial urls in round-robin order.
func New(urls []string, opts ...nats.Option) *TCP {
	o := nats.NewOptions(opts...)
	return &TCP{
		opts:             o,
		dialTimeout:      2 * time.Second,
		handshakeTimeout: 2 * time.Second,
		urls:             append([]string(nil), urls...),
		limiter:          rate.NewLimiter(rate.Every(o.ReconnectWait), 1),
	}
}

// Options implements nats.Connector.
func (t *TCP) Options() *nats.Options { return t.opts }

// AddURL implements nats.Connector, registering a peer URL discovered
// from an INFO frame.
func (t *TCP) AddURL(url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range t.urls {
		if u == url {
			return nil
		}
	}
	t.urls = append(t.urls, url)
	return nil
}

func (t *TCP) pickURL() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.urls) == 0 {
		return "", fmt.Errorf("nats/transport: no server URLs configured")
	}
	u := t.urls[t.next%len(t.urls)]
	t.next++
	return u, nil
}

// Connect implements nats.Connector: it dials the next URL, applies
// backoff pacing when useBackoff is set, performs the INFO/CONNECT
// handshake, and returns a ready Stream.
func (t *TCP) Connect(ctx context.Context, useBackoff bool) (nats.ServerInfo, nats.Stream, error) {
	for {
		if useBackoff {
			if err := t.limiter.Wait(ctx); err != nil {
				return nats.ServerInfo{}, nil, err
			}
		}

		url, err := t.pickURL()
		if err != nil {
			if !useBackoff {
				return nats.ServerInfo{}, nil, err
			}
			continue
		}

		info, stream, err := t.dial(url)
		if err != nil {
			if !useBackoff {
				return nats.ServerInfo{}, nil, err
			}
			t.opts.Logger.WithError(err).WithField("url", url).Warn("nats: reconnect attempt failed")
			continue
		}
		return info, stream, nil
	}
}

func (t *TCP) dial(url string) (nats.ServerInfo, nats.Stream, error) {
	conn, err := net.DialTimeout("tcp", url, t.dialTimeout)
	if err != nil {
		return nats.ServerInfo{}, nil, err
	}

	br := bufio.NewReaderSize(conn, nats.BufCap)
	conn.SetReadDeadline(time.Now().Add(t.handshakeTimeout))
	info, err := readInfo(br)
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return nats.ServerInfo{}, nil, err
	}

	if err := sendConnect(conn); err != nil {
		conn.Close()
		return nats.ServerInfo{}, nil, err
	}

	return info, &stream{conn: conn, br: br}, nil
}

// readInfo reads the mandatory first INFO line, the same protocol
// exception the teacher connection enforces in processExpectedInfo.
func readInfo(br *bufio.Reader) (nats.ServerInfo, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return nats.ServerInfo{}, err
	}
	const prefix = "INFO "
	trimmed := trimCRLF(line)
	if len(trimmed) < len(prefix) || trimmed[:len(prefix)] != prefix {
		return nats.ServerInfo{}, fmt.Errorf("nats/transport: protocol exception, INFO not received")
	}

	var w wireServerInfo
	if err := json.Unmarshal([]byte(trimmed[len(prefix):]), &w); err != nil {
		return nats.ServerInfo{}, err
	}
	return w.toServerInfo(), nil
}

type connectInfo struct {
	Verbose  bool `json:"verbose"`
	Pedantic bool `json:"pedantic"`
	Headers  bool `json:"headers"`
}

func sendConnect(conn net.Conn) error {
	b, err := json.Marshal(connectInfo{Headers: true})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(conn, "CONNECT %s\r\n", b)
	return err
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

type wireServerInfo struct {
	ID          string   `json:"server_id"`
	Version     string   `json:"version"`
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	Headers     bool     `json:"headers"`
	MaxPayload  int64    `json:"max_payload"`
	ConnectURLs []string `json:"connect_urls"`
}

func (w wireServerInfo) toServerInfo() nats.ServerInfo {
	return nats.ServerInfo{
		ID:          w.ID,
		Version:     w.Version,
		Host:        w.Host,
		Port:        w.Port,
		Headers:     w.Headers,
		MaxPayload:  w.MaxPayload,
		ConnectURLs: w.ConnectURLs,
	}
}
