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

// encodeLocked is the Write Path's core routine. The caller must hold
// writeMu. If a writer is active, op is encoded into it and the
// flush-kicker is signalled; any I/O failure triggers the local-
// disconnect action. With no writer, PUB-family ops are buffered into
// the Reconnect Buffer and committed immediately; anything else is
// dropped.
func (s *state) encodeLocked(codec Codec, op ClientOp) error {
	if s.write.writer != nil {
		if err := codec.Encode(s.write.writer.bw, op); err != nil {
			s.localDisconnect()
			return err
		}
		s.kickFlush()
		return nil
	}

	switch op.(type) {
	case Pub, Hpub:
		if err := codec.Encode(s.write.buffer, op); err != nil {
			return err
		}
		s.write.buffer.flush()
		return nil
	default:
		return nil
	}
}

// takeWriterLocked removes and returns the active writer, if any. The
// caller must hold writeMu.
func (s *state) takeWriterLocked() *activeWriter {
	w := s.write.writer
	s.write.writer = nil
	return w
}

// installWriterLocked installs w as the active writer. The caller must
// hold writeMu.
func (s *state) installWriterLocked(w *activeWriter) {
	s.write.writer = w
}

// snapshotBufferedLocked returns and clears the committed prefix of the
// Reconnect Buffer. The caller must hold writeMu.
func (s *state) snapshotBufferedLocked() []byte {
	return s.write.buffer.clear()
}

// localDisconnect drops the active writer (shutting down its Stream)
// and clears all pending PONGs, leaving the Supervisor to reconnect.
// The caller must already hold writeMu; localDisconnect acquires
// readMu itself, preserving the write-then-read lock order.
func (s *state) localDisconnect() {
	if s.write.writer != nil {
		s.write.writer.stream.Shutdown()
		s.write.writer = nil
	}
	s.readMu.Lock()
	s.clearPongsLocked()
	s.readMu.Unlock()
}
