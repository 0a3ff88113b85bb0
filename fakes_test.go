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
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// memStream is an in-memory Stream fake. Reads are never exercised by
// scriptedCodec (it ignores the *bufio.Reader it's handed), so Read just
// blocks until the stream is shut down.
type memStream struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	closed    bool
	closedCh  chan struct{}
	failWrite bool
}

func newMemStream() *memStream {
	return &memStream{closedCh: make(chan struct{})}
}

func (s *memStream) Read(p []byte) (int, error) {
	<-s.closedCh
	return 0, ErrConnectionReset
}

func (s *memStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return 0, ErrConnectionReset
	}
	return s.buf.Write(p)
}

func (s *memStream) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closedCh)
	}
	return nil
}

func (s *memStream) SetWriteDeadline(time.Time) error { return nil }

func (s *memStream) written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// scriptedCodec is a Codec fake: Encode records every outgoing ClientOp
// (and fails once failEncode is set), Decode replays a programmed sequence of ServerOps from a channel. A
// closed channel reproduces a clean end of stream (nil, nil), which the
// Dispatcher turns into ErrConnectionReset exactly like a real decode
// failure would.
type scriptedCodec struct {
	mu         sync.Mutex
	out        []ClientOp
	failEncode bool

	in chan ServerOp
}

func newScriptedCodec() *scriptedCodec {
	return &scriptedCodec{in: make(chan ServerOp, 64)}
}

func (c *scriptedCodec) Encode(sink io.Writer, op ClientOp) error {
	c.mu.Lock()
	c.out = append(c.out, op)
	fail := c.failEncode
	c.mu.Unlock()
	if fail {
		return ErrConnectionReset
	}
	_, err := io.WriteString(sink, encodeLine(op))
	return err
}

// encodeLine gives each ClientOp a deterministic, greppable textual form
// so tests can assert on exactly what landed in the Reconnect Buffer or
// on the wire, without needing a real wire protocol.
func encodeLine(op ClientOp) string {
	switch v := op.(type) {
	case Pub:
		return "PUB " + v.Subject + " " + v.ReplyTo + " " + string(v.Payload) + "\n"
	case Hpub:
		return "HPUB " + v.Subject + " " + v.ReplyTo + " " + string(v.Payload) + "\n"
	case Sub:
		return "SUB " + v.Subject + " " + v.Queue + "\n"
	case Unsub:
		return "UNSUB\n"
	case Ping:
		return "PING\n"
	case Pong:
		return "PONG\n"
	default:
		return "?\n"
	}
}

// resetMarker is a ServerOp sentinel used only by scriptedCodec: decoding
// it simulates a broken connection without actually closing the channel,
// so the same codec can keep scripting frames across a reconnect.
type resetMarker struct{}

func (resetMarker) serverOp() {}

func (c *scriptedCodec) Decode(*bufio.Reader) (ServerOp, error) {
	op, ok := <-c.in
	if !ok {
		return nil, nil
	}
	if _, broken := op.(resetMarker); broken {
		return nil, ErrConnectionReset
	}
	return op, nil
}

func (c *scriptedCodec) sent() []ClientOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ClientOp(nil), c.out...)
}

func (c *scriptedCodec) push(op ServerOp) { c.in <- op }

// fakeConnector hands out pre-built (ServerInfo, Stream) pairs from a
// queue, one per Connect call; it never needs real backoff since tests
// pace the queue themselves.
type fakeConnector struct {
	mu      sync.Mutex
	opts    *Options
	infos   []ServerInfo
	streams []*memStream
	idx     int
	urls    []string
	gates   map[int]chan struct{}
}

func newFakeConnector(opts *Options) *fakeConnector {
	return &fakeConnector{opts: opts}
}

func (f *fakeConnector) programConnect(info ServerInfo, stream *memStream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = append(f.infos, info)
	f.streams = append(f.streams, stream)
}

// holdBefore makes the i-th Connect call (0-indexed) block until the
// returned channel is closed, so a test can force a window during which
// the engine is observably disconnected.
func (f *fakeConnector) holdBefore(i int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[int]chan struct{})
	}
	ch := make(chan struct{})
	f.gates[i] = ch
	return ch
}

func (f *fakeConnector) Connect(ctx context.Context, useBackoff bool) (ServerInfo, Stream, error) {
	f.mu.Lock()
	idx := f.idx
	gate := f.gates[idx]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.infos) {
		return ServerInfo{}, nil, ErrConnectionReset
	}
	info, stream := f.infos[f.idx], f.streams[f.idx]
	f.idx++
	return info, stream, nil
}

func (f *fakeConnector) AddURL(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return nil
}

func (f *fakeConnector) Options() *Options { return f.opts }
