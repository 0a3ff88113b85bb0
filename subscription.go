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

// Subscription is a registered interest in a subject, optionally scoped
// to a queue group. The zero value is not usable; obtain one from
// Client.Subscribe.
type Subscription struct {
	SID     uint64
	Subject string
	Queue   string

	messages chan *Message
}

// Messages returns the receive end of this subscription's delivery
// handoff. It is closed when the subscription is removed.
func (s *Subscription) Messages() <-chan *Message {
	return s.messages
}

// Message is a single inbound delivery, optionally carrying headers and
// a reply subject.
type Message struct {
	Subject string
	ReplyTo string
	Headers Header
	Data    []byte

	client *Client
}

// Respond publishes payload on this message's reply subject. It fails
// with ErrInvalidInput if the message carries no reply subject.
func (m *Message) Respond(payload []byte) error {
	if m.ReplyTo == "" {
		return ErrInvalidInput
	}
	return m.client.Publish(m.ReplyTo, "", nil, payload)
}
