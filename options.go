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
	"time"

	"github.com/sirupsen/logrus"
)

// Constants fixed by the engine's design (spec.md §6).
const (
	// BufCap sizes the bufio reader/writer layered over a connected Stream.
	BufCap = 32 * 1024

	// PingInterval is how long the connection may sit idle before the
	// heartbeat worker sends a liveness PING.
	PingInterval = 120 * time.Second

	// MaxPingsOut is the number of unanswered PINGs tolerated before the
	// connection is considered dead.
	MaxPingsOut = 2

	// MinFlushBetween is the minimum spacing between two real flushes
	// triggered by publish activity, trading latency for syscall
	// coalescing under bursty load.
	MinFlushBetween = 5 * time.Millisecond

	// DefaultReconnectBufferSize is used when Options.ReconnectBufferSize
	// is left at zero.
	DefaultReconnectBufferSize = 8 * 1024 * 1024

	// DefaultSubPendingMsgs bounds the per-subscription delivery handoff.
	DefaultSubPendingMsgs = 8192

	// DefaultReconnectWait is the base delay between reconnect attempts
	// when a Connector's backoff policy doesn't override it.
	DefaultReconnectWait = 2 * time.Second
)

// ConnHandler is invoked for connection lifecycle events.
type ConnHandler func()

// ErrHandler processes asynchronous server-reported errors, along with
// the client that produced them (spec.md §6: error_callback(client, error)).
type ErrHandler func(c *Client, err error)

// Option configures a Client via functional options, the same shape
// used throughout the jetstream options layer this engine was grounded
// against (WithX(...) Option).
type Option func(*Options)

// Options holds the tunables and callbacks recognized by the core.
type Options struct {
	// ReconnectBufferSize is the capacity in bytes of the Reconnect
	// Buffer used while disconnected.
	ReconnectBufferSize int

	// ReconnectWait is the base delay a Connector should apply between
	// reconnect attempts when backoff is requested.
	ReconnectWait time.Duration

	CloseCB        ConnHandler
	ReconnectedCB  ConnHandler
	DisconnectedCB ConnHandler
	ErrorCB        ErrHandler

	// Logger receives internal diagnostics that have no user callback
	// (unknown frames, reconnect attempts). Defaults to
	// logrus.StandardLogger().
	Logger *logrus.Logger
}

// NewOptions builds an Options value from functional options, applying
// the same defaults Connect uses when a Connector doesn't override
// them. Reference Connector implementations (such as the transport
// package) use this to build the Options they expose via Options().
func NewOptions(opts ...Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func defaultOptions() *Options {
	return &Options{
		ReconnectBufferSize: DefaultReconnectBufferSize,
		ReconnectWait:       DefaultReconnectWait,
		Logger:              logrus.StandardLogger(),
	}
}

// WithReconnectBufferSize overrides the Reconnect Buffer capacity.
func WithReconnectBufferSize(n int) Option {
	return func(o *Options) { o.ReconnectBufferSize = n }
}

// WithReconnectWait overrides the base reconnect backoff delay.
func WithReconnectWait(d time.Duration) Option {
	return func(o *Options) { o.ReconnectWait = d }
}

// WithCloseCallback sets the callback invoked once the client has fully
// shut down.
func WithCloseCallback(cb ConnHandler) Option {
	return func(o *Options) { o.CloseCB = cb }
}

// WithReconnectedCallback sets the callback invoked after a successful
// reconnect (never on the first connect).
func WithReconnectedCallback(cb ConnHandler) Option {
	return func(o *Options) { o.ReconnectedCB = cb }
}

// WithDisconnectedCallback sets the callback invoked when the
// Dispatcher exits due to a broken connection.
func WithDisconnectedCallback(cb ConnHandler) Option {
	return func(o *Options) { o.DisconnectedCB = cb }
}

// WithErrorCallback sets the callback invoked for asynchronous -ERR
// frames from the server.
func WithErrorCallback(cb ErrHandler) Option {
	return func(o *Options) { o.ErrorCB = cb }
}

// WithLogger overrides the logger used for internal diagnostics.
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func (o *Options) call(cb ConnHandler) {
	if cb != nil {
		cb()
	}
}

func (o *Options) callErr(c *Client, err error) {
	if o.ErrorCB != nil {
		o.ErrorCB(c, err)
	}
}
