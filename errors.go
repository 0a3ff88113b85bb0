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

import "errors"

// Error kinds surfaced to callers, per the engine's error handling design.
var (
	// ErrNotConnected is returned once the client has been closed.
	ErrNotConnected = errors.New("nats: not connected")

	// ErrInvalidInput covers headers sent to a server without header
	// support, and responding to a message with no reply subject.
	ErrInvalidInput = errors.New("nats: invalid input")

	// ErrBufferFull is returned when a publish issued while disconnected
	// cannot fit into the reconnect buffer.
	ErrBufferFull = errors.New("nats: reconnect buffer full")

	// ErrConnectionReset is returned when a flush could not complete
	// because the underlying connection was lost.
	ErrConnectionReset = errors.New("nats: connection reset")

	// ErrBadSubscription names an operation on a subscription that is
	// no longer registered. No operation in this package returns it:
	// Unsubscribe of an unknown SID is a no-op that returns nil.
	ErrBadSubscription = errors.New("nats: invalid subscription")
)
