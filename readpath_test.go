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

func TestPongQueueIsFIFO(t *testing.T) {
	s := newState(defaultOptions())

	var chs []chan struct{}
	for i := 0; i < 3; i++ {
		ch := make(chan struct{}, 1)
		chs = append(chs, ch)
		s.enqueuePongLocked(ch)
	}

	for i, want := range chs {
		got := s.popPongLocked()
		if got != want {
			t.Fatalf("pop %d: got a different channel than expected (FIFO order violated)", i)
		}
	}
	if got := s.popPongLocked(); got != nil {
		t.Fatalf("pop on empty queue = %v, want nil", got)
	}
}

func TestClearPongsClosesEveryWaiter(t *testing.T) {
	s := newState(defaultOptions())

	var chs []chan struct{}
	for i := 0; i < 3; i++ {
		ch := make(chan struct{}, 1)
		chs = append(chs, ch)
		s.enqueuePongLocked(ch)
	}

	s.clearPongsLocked()

	for i, ch := range chs {
		select {
		case _, ok := <-ch:
			if ok {
				t.Fatalf("waiter %d: expected closed channel, got a value", i)
			}
		default:
			t.Fatalf("waiter %d: expected closed channel to be immediately readable", i)
		}
	}
	if len(s.read.pongs) != 0 {
		t.Fatalf("pong queue not drained: len=%d", len(s.read.pongs))
	}
}

func TestFirePongNeverBlocks(t *testing.T) {
	// No receiver at all: firePong must not block.
	ch := make(chan struct{}, 1)
	firePong(ch)
	firePong(ch) // second fire on an already-full buffer must also not block
	firePong(nil)
}

func TestSubscriptionLookupInsertRemove(t *testing.T) {
	s := newState(defaultOptions())
	sub := &Subscription{SID: 7, Subject: "foo", messages: make(chan *Message, 1)}

	s.insertSubLocked(sub)
	if got := s.lookupSubLocked(7); got != sub {
		t.Fatalf("lookupSubLocked returned %v, want %v", got, sub)
	}

	removed := s.removeSubLocked(7)
	if removed != sub {
		t.Fatalf("removeSubLocked returned %v, want %v", removed, sub)
	}
	if got := s.lookupSubLocked(7); got != nil {
		t.Fatalf("subscription still present after removal: %v", got)
	}
	if got := s.removeSubLocked(7); got != nil {
		t.Fatalf("removing an already-removed SID should be a no-op, got %v", got)
	}
}
