// Package udp owns the two sockets of the broadcast chat: a wildcard-bound
// receive socket with deadline-bounded reads and a broadcast-enabled send
// socket bound to the chosen interface address.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
)

// DefaultReceiveTimeout bounds a single Receive call unless the caller asks
// for something else. It is also the worst-case reaction time of the receive
// loop to a stop request.
const DefaultReceiveTimeout = time.Second

// DefaultBroadcastIP is the IPv4 limited-broadcast address.
const DefaultBroadcastIP = "255.255.255.255"

const recvBufferSize = 2048

var (
	// ErrTimeout reports that no datagram arrived within the deadline. It is
	// an expected outcome, not a failure.
	ErrTimeout = errors.New("receive timed out")
	// ErrBindConflict reports that the chat port is already taken.
	ErrBindConflict = errors.New("port already in use")
	// ErrAddrUnavailable reports that the requested interface address cannot
	// be bound on this host.
	ErrAddrUnavailable = errors.New("bind address unavailable")
)

type options struct {
	reuseAddr   bool
	broadcastIP string
}

// Option tunes platform-specific socket behavior at Open time.
type Option func(*options)

// WithReuseAddr toggles SO_REUSEADDR on the receive socket. On by default so
// several chat instances on one host can share the port.
func WithReuseAddr(enabled bool) Option {
	return func(o *options) { o.reuseAddr = enabled }
}

// WithBroadcastIP overrides the send target address. Tests use the loopback
// address here to exercise the full send/receive path without a LAN.
func WithBroadcastIP(ip string) Option {
	return func(o *options) { o.broadcastIP = ip }
}

// Transport holds the socket pair for the lifetime of the process. Reads
// happen only on the receiver side, writes only on the UI send path, so no
// locking is needed beyond the open/close state.
type Transport struct {
	mu     sync.Mutex
	recv   *net.UDPConn
	send   *net.UDPConn
	target *net.UDPAddr
	closed bool
}

// Status is a point-in-time snapshot of the transport for diagnostics.
type Status struct {
	Open          bool
	ListenAddr    string
	SendAddr      string
	BroadcastAddr string
}

// Open binds the receive socket to the wildcard address on port and the send
// socket to bindIP with an ephemeral port, both broadcast-enabled. Passing
// port 0 picks a free port; the broadcast target follows the bound port.
func Open(bindIP string, port int, opts ...Option) (*Transport, error) {
	o := options{reuseAddr: true, broadcastIP: DefaultBroadcastIP}
	for _, opt := range opts {
		opt(&o)
	}
	targetIP := net.ParseIP(o.broadcastIP)
	if targetIP == nil {
		return nil, fmt.Errorf("invalid broadcast address %q", o.broadcastIP)
	}

	recvLC := net.ListenConfig{Control: sockopts(o.reuseAddr)}
	recvPC, err := recvLC.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, classifyBindError(err)
	}
	recvConn := recvPC.(*net.UDPConn)
	boundPort := recvConn.LocalAddr().(*net.UDPAddr).Port

	sendLC := net.ListenConfig{Control: sockopts(false)}
	sendPC, err := sendLC.ListenPacket(context.Background(), "udp4", net.JoinHostPort(bindIP, "0"))
	if err != nil {
		_ = recvConn.Close()
		return nil, classifyBindError(err)
	}

	return &Transport{
		recv:   recvConn,
		send:   sendPC.(*net.UDPConn),
		target: &net.UDPAddr{IP: targetIP, Port: boundPort},
	}, nil
}

// Receive blocks for at most timeout waiting for one datagram. ErrTimeout is
// the quiet-network outcome; net.ErrClosed passes through unchanged so the
// caller can tell an intentional shutdown from a real failure.
func (t *Transport) Receive(timeout time.Duration) ([]byte, *net.UDPAddr, error) {
	t.mu.Lock()
	conn := t.recv
	closed := t.closed
	t.mu.Unlock()
	if closed || conn == nil {
		return nil, nil, net.ErrClosed
	}
	if timeout <= 0 {
		timeout = DefaultReceiveTimeout
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, fmt.Errorf("set read deadline: %w", err)
	}
	buf := make([]byte, recvBufferSize)
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, nil, ErrTimeout
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, nil, net.ErrClosed
		}
		return nil, nil, fmt.Errorf("receive: %w", err)
	}
	return buf[:n], addr, nil
}

// BroadcastSend transmits one datagram to the broadcast target. UDP sends are
// atomic on success, so a short write is an error rather than a retry.
func (t *Transport) BroadcastSend(data []byte) error {
	t.mu.Lock()
	conn := t.send
	target := t.target
	closed := t.closed
	t.mu.Unlock()
	if closed || conn == nil {
		return net.ErrClosed
	}
	n, err := conn.WriteToUDP(data, target)
	if err != nil {
		return fmt.Errorf("broadcast send: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("broadcast send: short write %d/%d bytes", n, len(data))
	}
	return nil
}

// Close releases both sockets. It is idempotent and safe to call from a task
// other than the one blocked in Receive; the in-flight read fails with
// net.ErrClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	var err error
	if t.recv != nil {
		err = multierr.Append(err, t.recv.Close())
	}
	if t.send != nil {
		err = multierr.Append(err, t.send.Close())
	}
	return err
}

// Port returns the port the receive socket is bound to.
func (t *Transport) Port() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recv == nil {
		return 0
	}
	return t.recv.LocalAddr().(*net.UDPAddr).Port
}

// GetStatus reports the current socket state for the diagnostics surface.
func (t *Transport) GetStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := Status{Open: !t.closed && t.recv != nil}
	if t.recv != nil {
		st.ListenAddr = t.recv.LocalAddr().String()
	}
	if t.send != nil {
		st.SendAddr = t.send.LocalAddr().String()
	}
	if t.target != nil {
		st.BroadcastAddr = t.target.String()
	}
	return st
}

func classifyBindError(err error) error {
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		return fmt.Errorf("%w: %v", ErrBindConflict, err)
	case errors.Is(err, syscall.EADDRNOTAVAIL):
		return fmt.Errorf("%w: %v", ErrAddrUnavailable, err)
	default:
		return fmt.Errorf("open transport: %w", err)
	}
}
