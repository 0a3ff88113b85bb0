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
	"sync"
	"time"
)

// activeWriter pairs a buffered writer with the Stream backing it, so
// the write path can shut the Stream down on a local disconnect without
// losing track of which socket the bufio.Writer was wrapping.
type activeWriter struct {
	stream Stream
	bw     *bufio.Writer
}

// writeState is everything the write path owns. writer == nil means the
// engine is disconnected (reconnecting) or closed.
type writeState struct {
	writer      *activeWriter
	buffer      *reconnectBuffer
	flushKicker chan struct{}
	nextSID     uint64
}

// readState is everything the read path owns.
type readState struct {
	subs       map[uint64]*Subscription
	pongs      []chan struct{}
	lastActive time.Time
	pingsOut   int
}

// state is the engine's shared, heap-allocated core. A Client is a
// cheaply-clonable handle onto one *state; every clone observes the
// same connection.
//
// Locking protocol: when both mutexes are needed, writeMu is acquired
// first and released last. Every multi-lock site in this package must
// follow that order — violating it deadlocks the engine against its
// own Dispatcher.
type state struct {
	writeMu sync.Mutex
	write   writeState

	readMu sync.Mutex
	read   readState
}

func newState(opts *Options) *state {
	bufSize := opts.ReconnectBufferSize
	if bufSize <= 0 {
		bufSize = DefaultReconnectBufferSize
	}
	return &state{
		write: writeState{
			buffer:      newReconnectBuffer(bufSize),
			flushKicker: make(chan struct{}, 1),
			nextSID:     1,
		},
		read: readState{
			subs:       make(map[uint64]*Subscription),
			lastActive: time.Now(),
		},
	}
}

// kickFlush signals the heartbeat/flusher that a flush is wanted. It is
// a boolean edge, not a queue: a pending signal absorbs further
// requests because any one flush commits all prior writes.
func (s *state) kickFlush() {
	select {
	case s.write.flushKicker <- struct{}{}:
	default:
	}
}
