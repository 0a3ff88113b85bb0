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

import "time"

// All Read Path operations are short and lock-free of I/O; they only
// ever touch readState under readMu.

func (s *state) insertSubLocked(sub *Subscription) {
	s.read.subs[sub.SID] = sub
}

func (s *state) removeSubLocked(sid uint64) *Subscription {
	sub, ok := s.read.subs[sid]
	if !ok {
		return nil
	}
	delete(s.read.subs, sid)
	return sub
}

func (s *state) lookupSubLocked(sid uint64) *Subscription {
	return s.read.subs[sid]
}

// snapshotSubsLocked returns every live subscription, used when
// restoring state on reconnect.
func (s *state) snapshotSubsLocked() []*Subscription {
	subs := make([]*Subscription, 0, len(s.read.subs))
	for _, sub := range s.read.subs {
		subs = append(subs, sub)
	}
	return subs
}

// takeAllSubsLocked removes and returns every live subscription, used
// by Close to tear everything down.
func (s *state) takeAllSubsLocked() []*Subscription {
	subs := s.snapshotSubsLocked()
	s.read.subs = make(map[uint64]*Subscription)
	return subs
}

// enqueuePongLocked registers a one-shot waiter for the next PONG.
func (s *state) enqueuePongLocked(ch chan struct{}) {
	s.read.pongs = append(s.read.pongs, ch)
}

// popPongLocked removes and returns the head of the pending-PONG queue
// (FIFO: the k-th PONG from the server satisfies the k-th entry).
func (s *state) popPongLocked() chan struct{} {
	if len(s.read.pongs) == 0 {
		return nil
	}
	ch := s.read.pongs[0]
	s.read.pongs = s.read.pongs[1:]
	return ch
}

// firePong performs a non-blocking, fire-and-forget signal on a PONG
// waiter. It never blocks even if the receiver has already given up.
func firePong(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// takeAllPongsLocked removes and returns every pending PONG waiter,
// used by reconnect to resolve in-flight flushes once the link is known
// healthy again.
func (s *state) takeAllPongsLocked() []chan struct{} {
	pongs := s.read.pongs
	s.read.pongs = nil
	return pongs
}

// clearPongsLocked discards every pending PONG waiter by closing its
// channel, so that any blocked receiver observes a closed channel
// (ErrConnectionReset) rather than hanging forever. Those PONGs will
// never arrive once the writer backing them is gone. The flush-kicker,
// which the heartbeat enqueues as its PONG waiter, is removed from the
// queue but never closed.
func (s *state) clearPongsLocked() {
	for _, ch := range s.read.pongs {
		if ch != nil && ch != s.write.flushKicker {
			close(ch)
		}
	}
	s.read.pongs = nil
}

func (s *state) touchActivityLocked() {
	s.read.lastActive = time.Now()
}

func (s *state) resetPingsOutLocked() {
	s.read.pingsOut = 0
}
