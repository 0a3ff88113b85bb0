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

package nats

import (
	"bufio"
	"context"
	"io"
	"net/textproto"
	"time"
)

// Header holds message headers, keyed the same way net/http keys a
// MIMEHeader: canonicalized names to one or more values.
type Header map[string][]string

// Get returns the first value associated with key, canonicalized the
// same way textproto.MIMEHeader does. It returns "" if there is none.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	v := h[textproto.CanonicalMIMEHeaderKey(key)]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Set replaces any existing values for key with value.
func (h Header) Set(key, value string) {
	h[textproto.CanonicalMIMEHeaderKey(key)] = []string{value}
}

// Add appends value to key's existing values, if any.
func (h Header) Add(key, value string) {
	k := textproto.CanonicalMIMEHeaderKey(key)
	h[k] = append(h[k], value)
}

// ServerInfo is a snapshot of the most recent INFO frame received from
// the server.
type ServerInfo struct {
	ID          string
	Version     string
	Host        string
	Port        int
	Headers     bool
	MaxPayload  int64
	ConnectURLs []string
}

// ClientOp is a frame the engine sends to the server.
type ClientOp interface{ clientOp() }

// Pub publishes a payload with no headers.
type Pub struct {
	Subject string
	ReplyTo string
	Payload []byte
}

// Hpub publishes a payload with headers.
type Hpub struct {
	Subject string
	ReplyTo string
	Headers Header
	Payload []byte
}

// Sub announces interest in a subject, optionally as part of a queue group.
type Sub struct {
	Subject string
	Queue   string
	SID     uint64
}

// Unsub withdraws interest, optionally after MaxMsgs further deliveries.
type Unsub struct {
	SID     uint64
	MaxMsgs int
	HasMax  bool
}

// Ping requests a PONG from the server.
type Ping struct{}

// Pong answers a server PING.
type Pong struct{}

func (Pub) clientOp()   {}
func (Hpub) clientOp()  {}
func (Sub) clientOp()   {}
func (Unsub) clientOp() {}
func (Ping) clientOp()  {}
func (Pong) clientOp()  {}

// ServerOp is a frame decoded from the server.
type ServerOp interface{ serverOp() }

// Info carries a freshly decoded server info block.
type Info struct{ ServerInfo ServerInfo }

// Msg is an inbound message with no headers.
type Msg struct {
	Subject string
	SID     uint64
	ReplyTo string
	Payload []byte
}

// Hmsg is an inbound message with headers.
type Hmsg struct {
	Subject string
	SID     uint64
	ReplyTo string
	Headers Header
	Payload []byte
}

// ServerPing is a PING sent by the server.
type ServerPing struct{}

// ServerPong answers a client PING.
type ServerPong struct{}

// ServerErr is an asynchronous -ERR frame.
type ServerErr struct{ Text string }

// Unknown is an unrecognized frame, kept verbatim for logging.
type Unknown struct{ Line string }

func (Info) serverOp()       {}
func (Msg) serverOp()        {}
func (Hmsg) serverOp()       {}
func (ServerPing) serverOp() {}
func (ServerPong) serverOp() {}
func (ServerErr) serverOp()  {}
func (Unknown) serverOp()    {}

// Codec encodes client frames and decodes server frames. Implementations
// are supplied by the user (or by the reference `codec` package); the
// engine treats wire format as an external concern.
type Codec interface {
	// Encode writes op to sink in wire format.
	Encode(sink io.Writer, op ClientOp) error

	// Decode reads the next frame from source. It returns (nil, nil) on
	// a clean end of stream.
	Decode(source *bufio.Reader) (ServerOp, error)
}

// Stream is a bidirectional byte stream to a connected server.
type Stream interface {
	io.Reader
	io.Writer

	// Shutdown causes any concurrent Read to fail, and closes the
	// underlying transport.
	Shutdown() error

	// SetWriteDeadline bounds the next Write call(s); a zero Time clears
	// any previously set deadline.
	SetWriteDeadline(t time.Time) error
}

// Connector supplies the engine with connected streams, applying the
// user's backoff and discovery policy. URL parsing, TLS setup, and
// authentication are assumed complete by the time Connect returns.
type Connector interface {
	// Connect blocks until a new stream is established, retrying
	// internally with backoff when useBackoff is true.
	Connect(ctx context.Context, useBackoff bool) (ServerInfo, Stream, error)

	// AddURL registers a peer URL discovered from an INFO frame.
	AddURL(url string) error

	// Options exposes the user-configured callbacks and tunables.
	Options() *Options
}
