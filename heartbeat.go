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

// heartbeat is the single periodic worker that coalesces flushes and
// sends a liveness PING when the connection has been idle. It exits
// only when the client's done channel is closed.
func (c *Client) heartbeat() {
	last := time.Now().Add(-MinFlushBetween)

	for {
		timer := time.NewTimer(PingInterval)
		select {
		case <-c.done:
			timer.Stop()
			return

		case <-c.state.write.flushKicker:
			timer.Stop()
			if since := time.Since(last); since < MinFlushBetween {
				time.Sleep(MinFlushBetween - since)
			}

			c.state.writeMu.Lock()
			if c.state.write.writer != nil {
				err := c.state.write.writer.bw.Flush()
				last = time.Now()
				if err != nil {
					c.state.localDisconnect()
				}
			}
			c.state.writeMu.Unlock()

		case <-timer.C:
			c.state.writeMu.Lock()
			c.state.readMu.Lock()

			switch {
			case c.state.read.pingsOut >= MaxPingsOut:
				if old := c.state.write.writer; old != nil {
					old.stream.Shutdown()
				}
				c.state.write.writer = nil
				c.state.clearPongsLocked()

			case time.Since(c.state.read.lastActive) > PingInterval:
				c.state.read.pingsOut++
				c.state.enqueuePongLocked(c.state.write.flushKicker)
				if c.state.write.writer != nil {
					err := c.codec.Encode(c.state.write.writer.bw, Ping{})
					if err == nil {
						err = c.state.write.writer.bw.Flush()
					}
					if err != nil {
						c.state.write.writer.stream.Shutdown()
						c.state.write.writer = nil
						c.state.clearPongsLocked()
					}
				}
			}

			c.state.readMu.Unlock()
			c.state.writeMu.Unlock()
		}
	}
}
