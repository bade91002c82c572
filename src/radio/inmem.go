package radio

import (
	"errors"
	"sync"
)

// ErrNoPacket is returned by ReadPacket when no frame is pending.
var ErrNoPacket = errors.New("no packet received")

// ErrClosed is returned when a transceiver is used after Close.
var ErrClosed = errors.New("transceiver is closed")

// InmemChannel is a shared in-memory air. Every frame sent by a member is
// heard by every other member, like a broadcast radio channel. It is used by
// tests and by the in-process demo mode, where the gateway and the simulated
// nodes share one channel.
type InmemChannel struct {
	sync.Mutex
	members []*InmemTransceiver
}

// NewInmemChannel creates an empty channel.
func NewInmemChannel() *InmemChannel {
	return &InmemChannel{}
}

// Join creates a new transceiver attached to the channel.
func (c *InmemChannel) Join() *InmemTransceiver {
	c.Lock()
	defer c.Unlock()

	t := &InmemTransceiver{channel: c}
	c.members = append(c.members, t)

	return t
}

// broadcast queues the frame at every member except the sender.
func (c *InmemChannel) broadcast(from *InmemTransceiver, p []byte) {
	c.Lock()
	defer c.Unlock()

	for _, member := range c.members {
		if member == from {
			continue
		}
		member.enqueue(p)
	}
}

func (c *InmemChannel) leave(t *InmemTransceiver) {
	c.Lock()
	defer c.Unlock()

	for i, member := range c.members {
		if member == t {
			c.members = append(c.members[:i], c.members[i+1:]...)
			return
		}
	}
}

// InmemTransceiver implements the Transceiver interface on an InmemChannel.
type InmemTransceiver struct {
	sync.Mutex
	channel *InmemChannel
	queue   [][]byte
	closed  bool
}

// Configure implements the Transceiver interface. The in-memory air has no
// physical layer, so this is a no-op.
func (t *InmemTransceiver) Configure(p Params) error {
	return nil
}

// Send implements the Transceiver interface.
func (t *InmemTransceiver) Send(p []byte) error {
	t.Lock()
	closed := t.closed
	t.Unlock()

	if closed {
		return ErrClosed
	}

	t.channel.broadcast(t, p)

	return nil
}

// Received implements the Transceiver interface.
func (t *InmemTransceiver) Received() bool {
	t.Lock()
	defer t.Unlock()

	return len(t.queue) > 0
}

// ReadPacket implements the Transceiver interface.
func (t *InmemTransceiver) ReadPacket(buf []byte) (int, error) {
	t.Lock()
	defer t.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	if len(t.queue) == 0 {
		return 0, ErrNoPacket
	}

	frame := t.queue[0]
	t.queue = t.queue[1:]

	return copy(buf, frame), nil
}

// Close implements the Transceiver interface.
func (t *InmemTransceiver) Close() error {
	t.Lock()
	t.closed = true
	t.queue = nil
	t.Unlock()

	t.channel.leave(t)

	return nil
}

func (t *InmemTransceiver) enqueue(p []byte) {
	t.Lock()
	defer t.Unlock()

	if t.closed {
		return
	}

	frame := make([]byte, len(p))
	copy(frame, p)
	t.queue = append(t.queue, frame)
}
