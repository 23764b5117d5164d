// Package dispatch runs the two long-lived tasks of the chat: the network
// receiver and the terminal front end. It owns their lifecycle and the
// bounded queue between them.
package dispatch

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"lanchat/codec"
	"lanchat/network/udp"
)

const (
	queueCap        = 512
	stopJoinTimeout = 2 * time.Second
)

// Envelope is one decoded inbound message with its network origin.
type Envelope struct {
	Msg      codec.Message
	From     *net.UDPAddr
	Received time.Time
}

// FrontEnd is the user-facing side of the chat. Run blocks until the user
// quits or stop closes; Nickname and SetStatus may be called from other
// tasks.
type FrontEnd interface {
	Run(stop <-chan struct{}) error
	Nickname() string
	SetStatus(status string)
}

// Status is a point-in-time snapshot of the dispatcher for diagnostics.
type Status struct {
	Running       bool
	ReceiverAlive bool
	FrontEndAlive bool
	QueueDepth    int
}

// Dispatcher wires the transport to the front end. One lifecycle per value:
// Start once, Stop once, then discard.
type Dispatcher struct {
	log     *zap.Logger
	tr      *udp.Transport
	fe      FrontEnd
	inbound chan Envelope

	mu       sync.Mutex
	running  bool
	stopped  bool
	stopCh   chan struct{}
	recvDone chan struct{}
	feDone   chan struct{}
}

// New builds a dispatcher over an open transport and a front end.
func New(tr *udp.Transport, fe FrontEnd, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		log:     logger,
		tr:      tr,
		fe:      fe,
		inbound: make(chan Envelope, queueCap),
	}
}

// Inbound is the queue of decoded messages in receipt order. The front end
// drains it; the receiver never blocks on it.
func (d *Dispatcher) Inbound() <-chan Envelope {
	return d.inbound
}

// Start launches the receiver and front-end tasks. Calling it again while
// running is a no-op; starting a stopped dispatcher or one whose transport is
// closed is an error.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	if d.stopped {
		return errors.New("dispatcher already stopped")
	}
	if !d.tr.GetStatus().Open {
		return errors.New("transport is closed")
	}

	d.running = true
	d.stopCh = make(chan struct{})
	d.recvDone = make(chan struct{})
	d.feDone = make(chan struct{})

	go d.receiveLoop(d.stopCh, d.recvDone)
	go d.runFrontEnd(d.stopCh, d.feDone)
	d.log.Info("dispatcher started")
	return nil
}

// Stop asks both tasks to finish and waits a bounded time for each. A task
// that overruns the bound is logged and abandoned, never killed.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.stopped = true
	stop := d.stopCh
	recvDone, feDone := d.recvDone, d.feDone
	d.mu.Unlock()

	close(stop)
	d.join("receiver", recvDone)
	d.join("frontend", feDone)
	d.log.Info("dispatcher stopped")
}

// Done closes when the front end returns, which is how a user quit surfaces
// to the caller.
func (d *Dispatcher) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feDone
}

// SendMessage encodes and broadcasts one chat line under the front end's
// current nickname. It reports failure instead of returning an error; the
// caller surfaces it as status text.
func (d *Dispatcher) SendMessage(text string) bool {
	data, err := codec.Encode(d.fe.Nickname(), text)
	if err != nil {
		d.log.Debug("encode rejected", zap.Error(err))
		return false
	}
	if err := d.tr.BroadcastSend(data); err != nil {
		d.log.Warn("broadcast failed", zap.Error(err))
		return false
	}
	return true
}

// GetStatus reports task liveness and queue depth for diagnostics.
func (d *Dispatcher) GetStatus() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Running:       d.running,
		ReceiverAlive: taskAlive(d.recvDone),
		FrontEndAlive: taskAlive(d.feDone),
		QueueDepth:    len(d.inbound),
	}
}

func (d *Dispatcher) receiveLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		data, from, err := d.tr.Receive(udp.DefaultReceiveTimeout)
		switch {
		case errors.Is(err, udp.ErrTimeout):
			continue
		case errors.Is(err, net.ErrClosed):
			return
		case err != nil:
			d.log.Warn("receive failed", zap.Error(err))
			continue
		}
		msg, err := codec.Decode(data)
		if err != nil {
			d.log.Debug("dropped malformed datagram",
				zap.Int("bytes", len(data)), zap.Stringer("from", from), zap.Error(err))
			continue
		}
		d.enqueue(Envelope{Msg: msg, From: from, Received: time.Now()})
	}
}

func (d *Dispatcher) runFrontEnd(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if err := d.fe.Run(stop); err != nil {
		d.log.Error("frontend failed", zap.Error(err))
	}
}

// enqueue adds an envelope, evicting the oldest entry when the queue is full
// so the receiver keeps making progress regardless of the UI.
func (d *Dispatcher) enqueue(env Envelope) {
	for {
		select {
		case d.inbound <- env:
			return
		default:
		}
		select {
		case dropped := <-d.inbound:
			d.log.Debug("inbound queue full, dropped oldest",
				zap.String("nickname", dropped.Msg.Nickname))
		default:
		}
	}
}

func (d *Dispatcher) join(name string, done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
		d.log.Warn(fmt.Sprintf("%s task did not stop within %v", name, stopJoinTimeout))
	}
}

func taskAlive(done <-chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
