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

package transport

import (
	"bufio"
	"net"
	"time"
)

// stream adapts a net.Conn (plus the bufio.Reader used to read the
// handshake INFO line, so no bytes pulled off the wire during the
// handshake are lost) into a nats.Stream.
type stream struct {
	conn net.Conn
	br   *bufio.Reader
}

func (s *stream) Read(p []byte) (int, error) { return s.br.Read(p) }

func (s *stream) Write(p []byte) (int, error) { return s.conn.Write(p) }

func (s *stream) Shutdown() error { return s.conn.Close() }

func (s *stream) SetWriteDeadline(t time.Time) error { return s.conn.SetWriteDeadline(t) }
