package radio

import (
	"bytes"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

// Envelope types exchanged with the radio front-end.
const (
	envelopeFrame     = "frame"
	envelopeConfigure = "configure"
)

// incomingQueueSize bounds the number of frames buffered between the reader
// goroutine and the session's receive polls.
const incomingQueueSize = 64

// envelope wraps a frame or a control message for the UDP link to the radio
// front-end.
type envelope struct {
	Type    string  `json:"type"`
	Payload []byte  `json:"payload,omitempty"`
	Params  *Params `json:"params,omitempty"`
}

func (e *envelope) marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(e); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func (e *envelope) unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(e)
}

// UDPTransceiver implements the Transceiver interface against a remote radio
// front-end. Frames and configuration travel as small envelopes over UDP; a
// reader goroutine feeds received frames into a bounded queue which the
// session drains through Received and ReadPacket.
type UDPTransceiver struct {
	conn     *net.UDPConn
	remote   *net.UDPAddr
	incoming chan []byte
	logger   *logrus.Entry

	shutdownCh chan struct{}
}

// NewUDPTransceiver binds bindAddr and points the transceiver at the radio
// front-end listening on forwarderAddr.
func NewUDPTransceiver(bindAddr, forwarderAddr string, logger *logrus.Entry) (*UDPTransceiver, error) {
	laddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}

	raddr, err := net.ResolveUDPAddr("udp", forwarderAddr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}

	t := &UDPTransceiver{
		conn:       conn,
		remote:     raddr,
		incoming:   make(chan []byte, incomingQueueSize),
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}

	go t.listen()

	return t, nil
}

func (t *UDPTransceiver) listen() {
	buf := make([]byte, 2*MaxPacketSize)

	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.shutdownCh:
				return
			default:
			}
			// a transient read error must not kill the receive path
			t.logger.WithError(err).Error("Reading from UDP")
			continue
		}

		env := new(envelope)
		if err := env.unmarshal(buf[:n]); err != nil {
			t.logger.WithError(err).Debug("Discarding bad envelope")
			continue
		}

		if env.Type != envelopeFrame {
			t.logger.WithField("type", env.Type).Debug("Discarding unexpected envelope")
			continue
		}

		select {
		case t.incoming <- env.Payload:
		default:
			t.logger.Warn("Incoming queue full, dropping frame")
		}
	}
}

// Configure implements the Transceiver interface by forwarding the
// physical-layer parameters to the radio front-end.
func (t *UDPTransceiver) Configure(p Params) error {
	env := &envelope{Type: envelopeConfigure, Params: &p}
	return t.write(env)
}

// Send implements the Transceiver interface.
func (t *UDPTransceiver) Send(p []byte) error {
	if len(p) > MaxPacketSize {
		return fmt.Errorf("frame is %d bytes, exceeds %d", len(p), MaxPacketSize)
	}

	env := &envelope{Type: envelopeFrame, Payload: p}
	return t.write(env)
}

// Received implements the Transceiver interface.
func (t *UDPTransceiver) Received() bool {
	return len(t.incoming) > 0
}

// ReadPacket implements the Transceiver interface.
func (t *UDPTransceiver) ReadPacket(buf []byte) (int, error) {
	select {
	case frame := <-t.incoming:
		return copy(buf, frame), nil
	default:
		return 0, ErrNoPacket
	}
}

// Close implements the Transceiver interface.
func (t *UDPTransceiver) Close() error {
	close(t.shutdownCh)
	return t.conn.Close()
}

func (t *UDPTransceiver) write(env *envelope) error {
	data, err := env.marshal()
	if err != nil {
		return err
	}

	_, err = t.conn.WriteToUDP(data, t.remote)

	return err
}
