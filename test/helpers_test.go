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

// Package test exercises the engine against a real embedded
// nats-server, the way the teacher connection's own test package did
// against a RunDefaultServer/NewDefaultConnection pair.
package test

import (
	"net"
	"testing"
	"time"

	gnatsd "github.com/nats-io/nats-server/v2/server"

	nats "github.com/nats-io/nats-core-engine"
	"github.com/nats-io/nats-core-engine/codec"
	"github.com/nats-io/nats-core-engine/transport"
)

// runServer starts an embedded nats-server on an OS-assigned port and
// returns it along with its client URL. The caller must Shutdown it.
func runServer(t *testing.T) (*gnatsd.Server, string) {
	t.Helper()
	srv, addr, _ := runServerOnPort(t, -1)
	return srv, addr
}

// runServerOnPort starts an embedded nats-server bound to a specific
// port (or an OS-assigned one, for port == -1), used by the reconnect
// test to bring the same address back after a shutdown.
func runServerOnPort(t *testing.T, port int) (*gnatsd.Server, string, int) {
	t.Helper()
	opts := &gnatsd.Options{Host: "127.0.0.1", Port: port, NoLog: true, NoSigs: true}
	srv, err := gnatsd.NewServer(opts)
	if err != nil {
		t.Fatalf("nats-server: %v", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(2 * time.Second) {
		t.Fatal("nats-server did not become ready")
	}
	tcpAddr := srv.Addr().(*net.TCPAddr)
	return srv, tcpAddr.String(), tcpAddr.Port
}

// dial connects the engine's reference transport/codec pair to url.
func dial(t *testing.T, url string, opts ...nats.Option) *nats.Client {
	t.Helper()
	connector := transport.New([]string{url}, opts...)
	c, err := nats.Connect(connector, codec.New())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func waitFor(t *testing.T, totalWait, sleepDur time.Duration, f func() error) {
	t.Helper()
	deadline := time.Now().Add(totalWait)
	var err error
	for time.Now().Before(deadline) {
		if err = f(); err == nil {
			return
		}
		time.Sleep(sleepDur)
	}
	if err != nil {
		t.Fatal(err.Error())
	}
}
