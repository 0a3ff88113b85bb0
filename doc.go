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

// Package nats is the connection engine for a NATS-protocol client: a
// long-lived, self-healing connection that multiplexes publishes and
// subscriptions, survives transient failures by reconnecting and
// replaying subscription state, buffers writes during outages, and
// tracks liveness with a PING/PONG heartbeat.
//
// Wire encoding and transport are supplied by a Codec and a Connector;
// see the codec and transport packages for reference implementations.
package nats
