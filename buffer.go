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

// reconnectBuffer is a fixed-capacity byte accumulator for PUB-family
// frames encoded while the engine has no active writer. Its bytes are
// partitioned as:
//
//	[0, flushed)    fully encoded frames ready to replay
//	[flushed, written)  a partial frame, only non-empty transiently
//	[written, cap)  free space
//
// Invariant: 0 <= flushed <= written <= cap(bytes) at all times.
type reconnectBuffer struct {
	bytes   []byte
	written int
	flushed int
}

func newReconnectBuffer(size int) *reconnectBuffer {
	return &reconnectBuffer{bytes: make([]byte, size)}
}

// Write appends buf if it fits, otherwise saturates the buffer
// (written := cap) so that later, smaller writes also fail loudly
// instead of leaving a torn frame in [0, flushed).
func (b *reconnectBuffer) Write(buf []byte) (int, error) {
	if len(b.bytes)-b.written < len(buf) {
		b.written = len(b.bytes)
		return 0, ErrBufferFull
	}
	n := copy(b.bytes[b.written:], buf)
	b.written += n
	return n, nil
}

// flush commits the bytes written since the last flush, making them
// part of the replayable prefix.
func (b *reconnectBuffer) flush() {
	b.flushed = b.written
}

// clear snapshots the committed prefix and resets both counters.
func (b *reconnectBuffer) clear() []byte {
	buffered := make([]byte, b.flushed)
	copy(buffered, b.bytes[:b.flushed])
	b.written = 0
	b.flushed = 0
	return buffered
}
