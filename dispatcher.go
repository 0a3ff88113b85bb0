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

import "bufio"

// dispatch consumes server frames from reader until the decoder signals
// end of stream or failure, at which point it returns ErrConnectionReset
// — the only non-graceful exit. A graceful exit (nil) happens only when
// shutdown has been requested, observed after a frame has been fully
// processed.
func (c *Client) dispatch(reader *bufio.Reader) error {
	for {
		op, err := c.codec.Decode(reader)
		if err != nil || op == nil {
			return ErrConnectionReset
		}

		c.state.readMu.Lock()
		c.state.touchActivityLocked()
		c.state.readMu.Unlock()

		switch v := op.(type) {
		case Info:
			c.serverInfo.Store(v.ServerInfo)
			for _, u := range v.ServerInfo.ConnectURLs {
				c.connector.AddURL(u)
			}

		case ServerPing:
			c.state.writeMu.Lock()
			c.state.encodeLocked(c.codec, Pong{})
			c.state.writeMu.Unlock()

		case ServerPong:
			c.state.readMu.Lock()
			c.state.resetPingsOutLocked()
			waiter := c.state.popPongLocked()
			c.state.readMu.Unlock()
			firePong(waiter)

		case Msg:
			c.deliver(v.SID, &Message{Subject: v.Subject, ReplyTo: v.ReplyTo, Data: v.Payload, client: c})

		case Hmsg:
			c.deliver(v.SID, &Message{Subject: v.Subject, ReplyTo: v.ReplyTo, Headers: v.Headers, Data: v.Payload, client: c})

		case ServerErr:
			c.opts.callErr(c, &protocolError{v.Text})

		case Unknown:
			c.opts.Logger.WithField("line", v.Line).Warn("nats: unknown server op")
		}

		if c.isShutdown() {
			return nil
		}
	}
}

// deliver offers a decoded message to its subscription's handoff,
// dropping it silently if the subscription is gone or its handoff is
// full.
func (c *Client) deliver(sid uint64, m *Message) {
	c.state.readMu.Lock()
	defer c.state.readMu.Unlock()

	sub := c.state.lookupSubLocked(sid)
	if sub == nil {
		return
	}
	// The lookup and the send happen under readMu, the same lock
	// Unsubscribe/Close hold while removing a subscription before they
	// close sub.messages, so a removed subscription can never be sent
	// on after it has been closed.
	select {
	case sub.messages <- m:
	default:
	}
}

// protocolError wraps a server-reported -ERR frame.
type protocolError struct{ text string }

func (e *protocolError) Error() string { return "nats: " + e.text }
