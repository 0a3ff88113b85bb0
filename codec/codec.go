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

// Package codec is a reference Codec implementing the NATS text
// protocol, grounded on the wire constants and line-parsing approach of
// the teacher connection (pubProto/subProto/unsubProto, parseControl,
// processMsg), generalized to also handle HMSG header blocks.
package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	nats "github.com/nats-io/nats-core-engine"
)

const (
	crlf = "\r\n"

	headerLine = "NATS/1.0" + crlf
)

// Text is the default Codec: the line-oriented NATS text protocol.
type Text struct{}

// New returns a ready-to-use Text codec.
func New() *Text { return &Text{} }

// Encode writes op to sink in wire format.
func (Text) Encode(sink io.Writer, op nats.ClientOp) error {
	switch v := op.(type) {
	case nats.Pub:
		_, err := fmt.Fprintf(sink, "PUB %s %s %d%s", v.Subject, v.ReplyTo, len(v.Payload), crlf)
		if err != nil {
			return err
		}
		if _, err := sink.Write(v.Payload); err != nil {
			return err
		}
		_, err = io.WriteString(sink, crlf)
		return err

	case nats.Hpub:
		hdr := encodeHeaders(v.Headers)
		total := len(hdr) + len(v.Payload)
		_, err := fmt.Fprintf(sink, "HPUB %s %s %d %d%s", v.Subject, v.ReplyTo, len(hdr), total, crlf)
		if err != nil {
			return err
		}
		if _, err := sink.Write(hdr); err != nil {
			return err
		}
		if _, err := sink.Write(v.Payload); err != nil {
			return err
		}
		_, err = io.WriteString(sink, crlf)
		return err

	case nats.Sub:
		_, err := fmt.Fprintf(sink, "SUB %s %s %d%s", v.Subject, v.Queue, v.SID, crlf)
		return err

	case nats.Unsub:
		if v.HasMax {
			_, err := fmt.Fprintf(sink, "UNSUB %d %d%s", v.SID, v.MaxMsgs, crlf)
			return err
		}
		_, err := fmt.Fprintf(sink, "UNSUB %d%s", v.SID, crlf)
		return err

	case nats.Ping:
		_, err := io.WriteString(sink, "PING"+crlf)
		return err

	case nats.Pong:
		_, err := io.WriteString(sink, "PONG"+crlf)
		return err

	default:
		return fmt.Errorf("nats/codec: unsupported client op %T", op)
	}
}

func encodeHeaders(h nats.Header) []byte {
	var buf bytes.Buffer
	buf.WriteString(headerLine)
	for k, vs := range h {
		for _, v := range vs {
			buf.WriteString(k)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteString(crlf)
		}
	}
	buf.WriteString(crlf)
	return buf.Bytes()
}

// Decode reads the next frame from source, skipping benign +OK acks
// internally. It returns (nil, nil) on a clean end of stream.
func (c Text) Decode(source *bufio.Reader) (nats.ServerOp, error) {
	for {
		line, err := readLine(source)
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		if line == "" {
			continue
		}

		op, args := splitOp(line)
		switch strings.ToUpper(op) {
		case "+OK":
			continue // matches the teacher's processOK no-op
		case "INFO":
			info, err := decodeInfo(args)
			if err != nil {
				return nil, err
			}
			return nats.Info{ServerInfo: info}, nil
		case "PING":
			return nats.ServerPing{}, nil
		case "PONG":
			return nats.ServerPong{}, nil
		case "-ERR":
			return nats.ServerErr{Text: strings.Trim(args, "'")}, nil
		case "MSG":
			return decodeMsg(source, args)
		case "HMSG":
			return decodeHmsg(source, args)
		default:
			return nats.Unknown{Line: line}, nil
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	b, err := r.ReadSlice('\n')
	if err != nil && len(b) == 0 {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func splitOp(line string) (op, args string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

func decodeMsg(r *bufio.Reader, args string) (nats.ServerOp, error) {
	toks := strings.Fields(args)
	var subject, replyTo string
	var sid uint64
	var size int
	var err error

	switch len(toks) {
	case 3:
		subject = toks[0]
		sid, err = parseUint(toks[1])
		if err == nil {
			size, err = strconv.Atoi(toks[2])
		}
	case 4:
		subject = toks[0]
		sid, err = parseUint(toks[1])
		replyTo = toks[2]
		if err == nil {
			size, err = strconv.Atoi(toks[3])
		}
	default:
		return nil, fmt.Errorf("nats/codec: malformed MSG: %q", args)
	}
	if err != nil {
		return nil, err
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if _, err := discardCRLF(r); err != nil {
		return nil, err
	}

	return nats.Msg{Subject: subject, SID: sid, ReplyTo: replyTo, Payload: payload}, nil
}

func decodeHmsg(r *bufio.Reader, args string) (nats.ServerOp, error) {
	toks := strings.Fields(args)
	var subject, replyTo string
	var sid uint64
	var hdrLen, total int
	var err error

	switch len(toks) {
	case 4:
		subject = toks[0]
		sid, err = parseUint(toks[1])
		if err == nil {
			hdrLen, err = strconv.Atoi(toks[2])
		}
		if err == nil {
			total, err = strconv.Atoi(toks[3])
		}
	case 5:
		subject = toks[0]
		sid, err = parseUint(toks[1])
		replyTo = toks[2]
		if err == nil {
			hdrLen, err = strconv.Atoi(toks[3])
		}
		if err == nil {
			total, err = strconv.Atoi(toks[4])
		}
	default:
		return nil, fmt.Errorf("nats/codec: malformed HMSG: %q", args)
	}
	if err != nil {
		return nil, err
	}
	if hdrLen < 0 || total < hdrLen {
		return nil, fmt.Errorf("nats/codec: malformed HMSG lengths: %q", args)
	}

	full := make([]byte, total)
	if _, err := io.ReadFull(r, full); err != nil {
		return nil, err
	}
	if _, err := discardCRLF(r); err != nil {
		return nil, err
	}

	headers, err := decodeHeaders(full[:hdrLen])
	if err != nil {
		return nil, err
	}

	return nats.Hmsg{
		Subject: subject,
		SID:     sid,
		ReplyTo: replyTo,
		Headers: headers,
		Payload: full[hdrLen:],
	}, nil
}

func decodeHeaders(block []byte) (nats.Header, error) {
	idx := bytes.Index(block, []byte(crlf))
	if idx < 0 {
		return nats.Header{}, nil
	}
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(block[idx+len(crlf):])))
	mh, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, err
	}
	return nats.Header(mh), nil
}

func discardCRLF(r *bufio.Reader) (int, error) {
	buf := make([]byte, 2)
	return io.ReadFull(r, buf)
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
