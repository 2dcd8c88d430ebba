package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/errors"
)

// Wire limits. A full Announce for maxParticipants stays well under a single
// Ethernet-MTU datagram.
const (
	maxStringLen    = 64
	maxParticipants = 128
)

// Encode serializes a message into a compact binary datagram:
// type(1) | sender len(1)+bytes | seq(8) | payload.
func Encode(m *Message) ([]byte, error) {
	if len(m.Sender) == 0 || len(m.Sender) > maxStringLen {
		return nil, fmt.Errorf("wire: bad sender id length %d", len(m.Sender))
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(m.Type))
	writeString(&buf, m.Sender)
	writeUint64(&buf, m.Seq)

	switch m.Type {
	case TypeDiscover, TypeLeave:
		// No payload.
	case TypeAnnounce:
		if m.Announce == nil {
			return nil, fmt.Errorf("wire: announce message without payload")
		}
		if len(m.Announce.Participants) > maxParticipants {
			return nil, fmt.Errorf("wire: too many participants: %d", len(m.Announce.Participants))
		}
		writeUint16(&buf, uint16(len(m.Announce.Participants)))
		for _, p := range m.Announce.Participants {
			if len(p.ID) == 0 || len(p.ID) > maxStringLen || len(p.Addr) > maxStringLen {
				return nil, fmt.Errorf("wire: bad participant field length")
			}
			writeString(&buf, p.ID)
			writeString(&buf, p.Addr)
			buf.WriteByte(byte(p.Role))
		}
	case TypeHeartbeat:
		if m.Heartbeat == nil {
			return nil, fmt.Errorf("wire: heartbeat message without payload")
		}
		hb := m.Heartbeat
		buf.WriteByte(byte(hb.State))
		writeUint64(&buf, uint64(hb.Position/time.Millisecond))
		writeUint64(&buf, uint64(hb.SetAt.UnixMilli()))
		writeUint32(&buf, hb.Track)
		writeUint64(&buf, hb.RosterVersion)
	case TypeCommand:
		if m.Command == nil {
			return nil, fmt.Errorf("wire: command message without payload")
		}
		c := m.Command
		buf.WriteByte(byte(c.Kind))
		writeUint32(&buf, c.Track)
		writeUint64(&buf, uint64(c.IssuedAt.UnixMilli()))
	default:
		return nil, fmt.Errorf("wire: unknown message type %d", m.Type)
	}

	return buf.Bytes(), nil
}

// Decode parses a datagram back into a message. Truncated payloads, bad
// lengths and unrecognized type tags yield an error wrapping
// errors.ErrMalformedMessage; the receive loop discards and continues.
func Decode(data []byte) (*Message, error) {
	r := &reader{data: data}

	t := Type(r.byte())
	sender := r.string()
	seq := r.uint64()
	if r.err != nil {
		return nil, malformed("envelope: %v", r.err)
	}
	if len(sender) == 0 {
		return nil, malformed("empty sender id")
	}

	m := &Message{Type: t, Sender: sender, Seq: seq}

	switch t {
	case TypeDiscover, TypeLeave:
		// No payload.
	case TypeAnnounce:
		n := int(r.uint16())
		if r.err != nil {
			return nil, malformed("announce count: %v", r.err)
		}
		if n > maxParticipants {
			return nil, malformed("announce count %d exceeds limit", n)
		}
		ann := &Announce{Participants: make([]ParticipantInfo, 0, n)}
		for i := 0; i < n; i++ {
			id := r.string()
			addr := r.string()
			role := core.Role(r.byte())
			if r.err != nil {
				return nil, malformed("announce participant %d: %v", i, r.err)
			}
			if role != core.RoleLeader && role != core.RoleMember {
				return nil, malformed("announce participant %d: bad role %d", i, role)
			}
			ann.Participants = append(ann.Participants, ParticipantInfo{ID: id, Addr: addr, Role: role})
		}
		m.Announce = ann
	case TypeHeartbeat:
		hb := &Heartbeat{}
		state := core.PlayState(r.byte())
		posMS := r.uint64()
		setAtMS := r.uint64()
		hb.Track = r.uint32()
		hb.RosterVersion = r.uint64()
		if r.err != nil {
			return nil, malformed("heartbeat: %v", r.err)
		}
		if state != core.StatePlaying && state != core.StatePaused && state != core.StateStopped {
			return nil, malformed("heartbeat: bad state %d", state)
		}
		hb.State = state
		hb.Position = time.Duration(posMS) * time.Millisecond
		hb.SetAt = time.UnixMilli(int64(setAtMS))
		m.Heartbeat = hb
	case TypeCommand:
		c := &Command{}
		kind := core.CommandKind(r.byte())
		c.Track = r.uint32()
		issuedMS := r.uint64()
		if r.err != nil {
			return nil, malformed("command: %v", r.err)
		}
		if kind > core.CommandSkip {
			return nil, malformed("command: bad kind %d", kind)
		}
		c.Kind = kind
		c.IssuedAt = time.UnixMilli(int64(issuedMS))
		m.Command = c
	default:
		return nil, malformed("unknown type tag %d", t)
	}

	if r.remaining() != 0 {
		return nil, malformed("%d trailing bytes", r.remaining())
	}
	return m, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errors.ErrMalformedMessage, fmt.Sprintf(format, args...))
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// reader is a cursor over a datagram that records the first error instead of
// returning one per read.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("truncated %s at offset %d", what, r.pos)
	}
}

func (r *reader) byte() byte {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 1 {
		r.fail("byte")
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *reader) uint16() uint16 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 2 {
		r.fail("uint16")
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 4 {
		r.fail("uint32")
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 8 {
		r.fail("uint64")
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	n := int(r.byte())
	if r.err != nil {
		return ""
	}
	if n > maxStringLen {
		if r.err == nil {
			r.err = fmt.Errorf("string length %d exceeds limit at offset %d", n, r.pos)
		}
		return ""
	}
	if r.remaining() < n {
		r.fail("string")
		return ""
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	return s
}
