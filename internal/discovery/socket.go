package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/tessro/syncstream/internal/wire"
)

const (
	// DefaultPort is the well-known UDP broadcast port for a session.
	DefaultPort = 41205

	// DefaultBroadcastAddr is the limited-broadcast destination; most home
	// LANs want this, directed broadcast can be configured instead.
	DefaultBroadcastAddr = "255.255.255.255"

	readTimeout = 500 * time.Millisecond
	queueSize   = 128
)

// Packet is one decoded inbound datagram.
type Packet struct {
	From *net.UDPAddr
	Msg  *wire.Message
}

// Socket owns the session's UDP endpoint: one broadcast-enabled connection
// bound to the well-known port, a receive loop that decodes datagrams into
// Packets, and send helpers. Malformed datagrams are counted and dropped;
// they never terminate the receive loop.
type Socket struct {
	conn   *net.UDPConn
	bcast  *net.UDPAddr
	selfID string
	logger *log.Logger

	packets   chan Packet
	malformed atomic.Uint64
	dropped   atomic.Uint64
}

// Listen binds the session socket. port 0 selects an ephemeral port (used by
// tests); broadcastAddr "" selects DefaultBroadcastAddr.
func Listen(port int, broadcastAddr, selfID string, logger *log.Logger) (*Socket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}

	if broadcastAddr == "" {
		broadcastAddr = DefaultBroadcastAddr
	}
	bcastPort := port
	if bcastPort == 0 {
		bcastPort = conn.LocalAddr().(*net.UDPAddr).Port
	}
	bcast, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", broadcastAddr, bcastPort))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolve broadcast addr: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}
	return &Socket{
		conn:    conn,
		bcast:   bcast,
		selfID:  selfID,
		logger:  logger,
		packets: make(chan Packet, queueSize),
	}, nil
}

// Run reads datagrams until ctx is canceled, decoding each into a Packet.
// The node's own broadcasts loop back on the shared port and are filtered by
// sender id. A full packet queue drops the datagram rather than blocking
// reception; heartbeat reconciliation absorbs the loss.
func (s *Socket) Run(ctx context.Context) {
	defer close(s.packets)

	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.logger.Printf("discovery: read error: %v", err)
			continue
		}

		msg, err := wire.Decode(buf[:n])
		if err != nil {
			s.malformed.Add(1)
			s.logger.Printf("discovery: dropping datagram from %s: %v", from, err)
			continue
		}
		if msg.Sender == s.selfID {
			continue
		}

		select {
		case s.packets <- Packet{From: from, Msg: msg}:
		default:
			s.dropped.Add(1)
		}
	}
}

// Packets returns the inbound packet queue. Closed when Run returns.
func (s *Socket) Packets() <-chan Packet {
	return s.packets
}

// Broadcast encodes and sends m to the broadcast address. Send failures are
// returned for the caller to retry on its next periodic cycle.
func (s *Socket) Broadcast(m *wire.Message) error {
	data, err := wire.Encode(m)
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteToUDP(data, s.bcast); err != nil {
		return fmt.Errorf("broadcast %s: %w", m.Type, err)
	}
	return nil
}

// Send encodes and unicasts m to a specific participant.
func (s *Socket) Send(m *wire.Message, to *net.UDPAddr) error {
	data, err := wire.Encode(m)
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteToUDP(data, to); err != nil {
		return fmt.Errorf("send %s to %s: %w", m.Type, to, err)
	}
	return nil
}

// LocalAddr returns the bound address as advertised in Announce entries.
func (s *Socket) LocalAddr() string {
	return s.conn.LocalAddr().String()
}

// Malformed returns the count of discarded undecodable datagrams.
func (s *Socket) Malformed() uint64 {
	return s.malformed.Load()
}

// Close releases the underlying connection.
func (s *Socket) Close() error {
	return s.conn.Close()
}
