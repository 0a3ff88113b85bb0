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
	"sync"
	"sync/atomic"
	"time"
)

// Client is a cheaply-clonable handle onto a long-lived connection to a
// NATS-protocol server. Every clone shares the same underlying state;
// the state outlives any individual physical connection and survives
// across reconnects.
type Client struct {
	state     *state
	codec     Codec
	connector Connector
	opts      *Options

	serverInfo atomic.Value // ServerInfo

	done       chan struct{}
	closeOnce  sync.Once
	shutdownFl atomic.Bool
}

// Connect establishes a connection using connector for transport/backoff
// and codec for wire encoding, and starts the engine's background
// workers. It blocks until either the first connection is established
// and its writer installed (the first reconnect step resolves the
// pending-PONG entry Connect pre-seeds), or the Supervisor exits with
// an error. It does not wait for a PONG from the server.
func Connect(connector Connector, codec Codec) (*Client, error) {
	opts := connector.Options()
	if opts == nil {
		opts = defaultOptions()
	}
	if opts.Logger == nil {
		opts.Logger = defaultOptions().Logger
	}

	c := &Client{
		state:     newState(opts),
		codec:     codec,
		connector: connector,
		opts:      opts,
		done:      make(chan struct{}),
	}
	c.serverInfo.Store(ServerInfo{})

	initial := make(chan struct{}, 1)
	c.state.read.pongs = []chan struct{}{initial}

	runErr := make(chan error, 1)
	go func() {
		err := c.supervise()
		runErr <- err

		c.state.writeMu.Lock()
		if c.state.write.writer != nil {
			c.state.write.writer.bw.Flush()
		}
		c.state.writeMu.Unlock()

		c.opts.call(c.opts.CloseCB)
	}()

	go c.heartbeat()

	select {
	case err := <-runErr:
		if err != nil {
			return nil, err
		}
		return c, nil
	case <-initial:
		return c, nil
	}
}

// ServerInfo returns the most recently received server info snapshot.
func (c *Client) ServerInfo() ServerInfo {
	return c.serverInfo.Load().(ServerInfo)
}

func (c *Client) isShutdown() bool {
	return c.shutdownFl.Load()
}

// Publish sends payload to subject, optionally with a reply-to subject
// and headers. It fails with ErrInvalidInput if headers are supplied
// but the server doesn't support them, and ErrNotConnected once the
// client has been closed.
func (c *Client) Publish(subject, replyTo string, headers Header, payload []byte) error {
	if headers != nil && !c.ServerInfo().Headers {
		return ErrInvalidInput
	}
	if c.isShutdown() {
		return ErrNotConnected
	}

	op := buildPubOp(subject, replyTo, headers, payload)

	c.state.writeMu.Lock()
	defer c.state.writeMu.Unlock()
	return c.state.encodeLocked(c.codec, op)
}

// TryPublish behaves like Publish but never blocks: it returns false if
// the write lock is contended, or if the connected writer doesn't
// conservatively have room for this frame. ok reports whether the
// publish was attempted at all; err is only meaningful when ok is true.
func (c *Client) TryPublish(subject, replyTo string, headers Header, payload []byte) (ok bool, err error) {
	if headers != nil && !c.ServerInfo().Headers {
		return true, ErrInvalidInput
	}
	if c.isShutdown() {
		return true, ErrNotConnected
	}

	estimate := 1024 + len(subject) + len(replyTo) + len(payload)
	for k, vs := range headers {
		for _, v := range vs {
			estimate += len(k) + len(v) + 3
		}
	}

	op := buildPubOp(subject, replyTo, headers, payload)

	if !c.state.writeMu.TryLock() {
		return false, nil
	}
	defer c.state.writeMu.Unlock()

	if w := c.state.write.writer; w != nil {
		if BufCap-w.bw.Buffered() < estimate {
			return false, nil
		}
	}

	return true, c.state.encodeLocked(c.codec, op)
}

func buildPubOp(subject, replyTo string, headers Header, payload []byte) ClientOp {
	if headers != nil {
		return Hpub{Subject: subject, ReplyTo: replyTo, Headers: headers, Payload: payload}
	}
	return Pub{Subject: subject, ReplyTo: replyTo, Payload: payload}
}

// Subscribe registers interest in subject, optionally scoped to a queue
// group, and returns its SID and the receive end of its delivery
// handoff. It never fails except after Close.
func (c *Client) Subscribe(subject, queue string) (uint64, <-chan *Message, error) {
	if c.isShutdown() {
		return 0, nil, ErrNotConnected
	}

	c.state.writeMu.Lock()
	defer c.state.writeMu.Unlock()
	c.state.readMu.Lock()

	sid := c.state.write.nextSID
	c.state.write.nextSID++

	sub := &Subscription{
		SID:      sid,
		Subject:  subject,
		Queue:    queue,
		messages: make(chan *Message, DefaultSubPendingMsgs),
	}
	c.state.insertSubLocked(sub)
	c.state.readMu.Unlock()

	// Best-effort: the server will observe this SUB on the next
	// reconnect replay regardless (see Open Question decision).
	c.state.encodeLocked(c.codec, Sub{Subject: subject, Queue: queue, SID: sid})

	return sid, sub.messages, nil
}

// Unsubscribe withdraws interest previously registered by Subscribe. It
// is a no-op if sid is unknown.
func (c *Client) Unsubscribe(sid uint64) error {
	c.state.writeMu.Lock()
	defer c.state.writeMu.Unlock()
	c.state.readMu.Lock()

	sub := c.state.removeSubLocked(sid)
	if sub != nil {
		close(sub.messages)
	}
	c.state.readMu.Unlock()
	if sub == nil {
		return nil
	}

	// Best-effort per the Open Question decision in SPEC_FULL.md.
	c.state.encodeLocked(c.codec, Unsub{SID: sid})
	return nil
}

// Flush performs a round trip to the server and returns once it has
// been acknowledged, the connection is re-established (which resolves
// any in-flight flush), or timeout elapses.
func (c *Client) Flush(timeout time.Duration) error {
	c.state.writeMu.Lock()

	if c.isShutdown() {
		c.state.writeMu.Unlock()
		return ErrNotConnected
	}

	if w := c.state.write.writer; w != nil {
		w.stream.SetWriteDeadline(time.Now().Add(timeout))
		err := c.codec.Encode(w.bw, Ping{})
		if err == nil {
			err = w.bw.Flush()
		}
		w.stream.SetWriteDeadline(time.Time{})
		if err != nil {
			c.state.localDisconnect()
		}
	}

	waiter := make(chan struct{}, 1)
	c.state.readMu.Lock()
	c.state.enqueuePongLocked(waiter)
	c.state.readMu.Unlock()

	c.state.writeMu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case _, ok := <-waiter:
		if !ok {
			return ErrConnectionReset
		}
		return nil
	case <-t.C:
		return ErrConnectionReset
	}
}

// Close shuts the client down. It is idempotent: subsequent calls are
// no-ops. Close does not wait for background workers to exit; its
// final act is a best-effort flush and invocation of the close
// callback, performed by the background Supervisor.
func (c *Client) Close() {
	if !c.shutdownFl.CompareAndSwap(false, true) {
		return
	}

	c.state.writeMu.Lock()
	c.state.readMu.Lock()
	subs := c.state.takeAllSubsLocked()
	c.state.readMu.Unlock()

	for _, sub := range subs {
		close(sub.messages)
		c.state.encodeLocked(c.codec, Unsub{SID: sub.SID})
	}

	if w := c.state.write.writer; w != nil {
		w.bw.Flush()
	}

	c.state.readMu.Lock()
	c.state.clearPongsLocked()
	c.state.readMu.Unlock()

	c.state.writeMu.Unlock()

	c.closeOnce.Do(func() { close(c.done) })
}
