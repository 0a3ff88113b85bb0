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

import "testing"

func TestKickFlushIsEdgeTriggered(t *testing.T) {
	s := newState(defaultOptions())

	s.kickFlush()
	s.kickFlush()
	s.kickFlush()

	select {
	case <-s.write.flushKicker:
	default:
		t.Fatal("expected a pending flush signal")
	}

	select {
	case <-s.write.flushKicker:
		t.Fatal("redundant kicks should have been coalesced into one signal")
	default:
	}
}

func TestNewStateSIDsStartAtOne(t *testing.T) {
	s := newState(defaultOptions())
	if s.write.nextSID != 1 {
		t.Fatalf("nextSID = %d, want 1", s.write.nextSID)
	}
}

func TestNewStateDefaultsReconnectBufferSize(t *testing.T) {
	opts := defaultOptions()
	opts.ReconnectBufferSize = 0
	s := newState(opts)
	if len(s.write.buffer.bytes) != DefaultReconnectBufferSize {
		t.Fatalf("buffer size = %d, want default %d", len(s.write.buffer.bytes), DefaultReconnectBufferSize)
	}
}
