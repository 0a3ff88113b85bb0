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
	"context"
)

// supervise runs the connect/dispatch/reconnect loop for the lifetime
// of the client, returning only on a terminal connect error or a
// graceful shutdown.
func (c *Client) supervise() error {
	first := true

	for {
		useBackoff := !first

		info, stream, err := c.connector.Connect(context.Background(), useBackoff)
		if err != nil {
			return err
		}

		reader := bufio.NewReaderSize(stream, BufCap)
		writer := &activeWriter{stream: stream, bw: bufio.NewWriterSize(stream, BufCap)}

		if c.reconnect(info, writer) == nil {
			if !first {
				c.opts.call(c.opts.ReconnectedCB)
			}
			if c.dispatch(reader) == nil {
				return nil
			}
			c.opts.call(c.opts.DisconnectedCB)
			c.state.writeMu.Lock()
			c.state.write.writer = nil
			c.state.writeMu.Unlock()
		}

		c.state.readMu.Lock()
		c.state.resetPingsOutLocked()
		c.state.readMu.Unlock()

		if c.isShutdown() {
			return nil
		}
		first = false
	}
}

// reconnect puts the client back into a connected state over w: it
// drops the current writer, re-announces every live subscription,
// replays buffered publishes, and resolves any PONGs that were waiting
// on the old (broken) connection.
func (c *Client) reconnect(info ServerInfo, w *activeWriter) error {
	if c.isShutdown() {
		return ErrNotConnected
	}

	c.state.writeMu.Lock()
	defer c.state.writeMu.Unlock()
	c.state.readMu.Lock()
	defer c.state.readMu.Unlock()

	c.state.write.writer = nil

	for _, sub := range c.state.snapshotSubsLocked() {
		op := Sub{Subject: sub.Subject, Queue: sub.Queue, SID: sub.SID}
		if err := c.codec.Encode(w.bw, op); err != nil {
			return err
		}
	}

	pongs := c.state.takeAllPongsLocked()
	buffered := c.state.snapshotBufferedLocked()

	if _, err := w.bw.Write(buffered); err != nil {
		return err
	}
	if err := w.bw.Flush(); err != nil {
		return err
	}

	c.serverInfo.Store(info)
	c.state.write.writer = w

	for _, p := range pongs {
		firePong(p)
	}
	return nil
}
