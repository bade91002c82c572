package gateway

import (
	"errors"
	"sync/atomic"

	"github.com/fieldmesh/muster/src/clock"
	"github.com/fieldmesh/muster/src/radio"
	"github.com/fieldmesh/muster/src/wire"
	"github.com/sirupsen/logrus"
)

// ErrNoAck is returned by SendWithAck when the retry budget is exhausted
// without a matching reply. It is never fatal: callers abandon the operation
// for this node or round and move on.
var ErrNoAck = errors.New("no matching reply within the retry budget")

// Messenger is the reliable-delivery wrapper over the raw transceiver. It
// belongs to the session goroutine; its calls block that goroutine for up to
// (retries+1) x window.
type Messenger struct {
	trans  radio.Transceiver
	clk    clock.Clock
	quant  clock.Ticks
	logger *logrus.Entry

	buf []byte

	// read by Stats from the HTTP service goroutine; access is atomic
	framesSent     int32
	framesReceived int32
	parseErrors    int32
}

// NewMessenger creates a Messenger. quantum is the cooperative yield between
// receive polls.
func NewMessenger(trans radio.Transceiver, clk clock.Clock, quantum clock.Ticks, logger *logrus.Entry) *Messenger {
	if quantum == 0 {
		quantum = 1
	}
	return &Messenger{
		trans:  trans,
		clk:    clk,
		quant:  quantum,
		logger: logger,
		buf:    make([]byte, radio.MaxPacketSize),
	}
}

// Send transmits one frame without waiting for a reply.
func (m *Messenger) Send(msg wire.Message) error {
	frame, err := msg.Marshal()
	if err != nil {
		return err
	}

	if err := m.trans.Send(frame); err != nil {
		return err
	}
	atomic.AddInt32(&m.framesSent, 1)

	return nil
}

// SendWithAck transmits msg, then polls the transceiver for up to window
// ticks for a decodable reply accepted by match. On a match it returns
// immediately. When the window elapses, the frame is retransmitted, up to
// retries additional times. After exhausting the budget it returns ErrNoAck.
func (m *Messenger) SendWithAck(msg wire.Message, match func(wire.Message) bool, window clock.Ticks, retries int) error {
	frame, err := msg.Marshal()
	if err != nil {
		return err
	}

	for attempt := 0; attempt <= retries; attempt++ {
		if err := m.trans.Send(frame); err != nil {
			return err
		}
		atomic.AddInt32(&m.framesSent, 1)

		start := m.clk.Now()
		for clock.Since(m.clk.Now(), start) < window {
			reply, ok := m.poll()
			if ok && match(reply) {
				return nil
			}
			m.clk.Sleep(m.quant)
		}

		m.logger.WithFields(logrus.Fields{
			"kind":    msg.Kind().String(),
			"attempt": attempt,
		}).Debug("No matching reply, retrying")
	}

	return ErrNoAck
}

// Listen polls the transceiver for up to window ticks for a raw frame
// accepted by accept, which returns true to stop the window early. It reports
// whether accept stopped the window.
func (m *Messenger) Listen(window clock.Ticks, accept func(frame []byte) bool) bool {
	start := m.clk.Now()
	for clock.Since(m.clk.Now(), start) < window {
		if m.trans.Received() {
			n, err := m.trans.ReadPacket(m.buf)
			if err == nil && n > 0 {
				atomic.AddInt32(&m.framesReceived, 1)
				if accept(m.buf[:n]) {
					return true
				}
			}
		}
		m.clk.Sleep(m.quant)
	}

	return false
}

// poll drains and decodes one pending frame, if any. Undecodable frames are
// counted, logged and dropped.
func (m *Messenger) poll() (wire.Message, bool) {
	if !m.trans.Received() {
		return nil, false
	}

	n, err := m.trans.ReadPacket(m.buf)
	if err != nil || n == 0 {
		return nil, false
	}
	atomic.AddInt32(&m.framesReceived, 1)

	msg, err := wire.Decode(m.buf[:n])
	if err != nil {
		atomic.AddInt32(&m.parseErrors, 1)
		m.logger.WithError(err).Debug("Discarding frame")
		return nil, false
	}

	return msg, true
}
