// Package simnode implements a simulated sensor node. It speaks the node
// side of the session protocol: it answers join invitations, acknowledges
// settings and commits, and replies to polls with its configured telemetry.
// It is used by tests, by the in-process demo mode, and by the simnode
// command over the UDP bridge.
package simnode

import (
	"github.com/fieldmesh/muster/src/clock"
	"github.com/fieldmesh/muster/src/radio"
	"github.com/fieldmesh/muster/src/wire"
	"github.com/sirupsen/logrus"
)

// Config holds the identity and the telemetry a SimNode reports.
type Config struct {
	ID          uint8   `mapstructure:"id"`
	Latitude    float64 `mapstructure:"lat"`
	Longitude   float64 `mapstructure:"lon"`
	Temperature float64 `mapstructure:"temp"`
	Humidity    float64 `mapstructure:"humid"`
}

// SimNode is a simulated sensor node on a transceiver.
type SimNode struct {
	conf   Config
	trans  radio.Transceiver
	clk    clock.Clock
	quant  clock.Ticks
	logger *logrus.Entry

	buf []byte

	shutdownCh chan struct{}
}

// NewSimNode creates a SimNode. It does not start listening until Run.
func NewSimNode(conf Config, trans radio.Transceiver, clk clock.Clock, logger *logrus.Logger) *SimNode {
	return &SimNode{
		conf:       conf,
		trans:      trans,
		clk:        clk,
		quant:      1,
		logger:     logger.WithField("node", conf.ID),
		buf:        make([]byte, radio.MaxPacketSize),
		shutdownCh: make(chan struct{}),
	}
}

// RunAsync calls Run in a new goroutine.
func (n *SimNode) RunAsync() {
	go n.Run()
}

// Run listens for gateway frames until Shutdown.
func (n *SimNode) Run() {
	for {
		select {
		case <-n.shutdownCh:
			return
		default:
		}

		if n.trans.Received() {
			size, err := n.trans.ReadPacket(n.buf)
			if err == nil && size > 0 {
				n.handle(n.buf[:size])
			}
		}

		n.clk.Sleep(n.quant)
	}
}

// Shutdown stops the run loop and closes the transceiver.
func (n *SimNode) Shutdown() {
	close(n.shutdownCh)
	n.trans.Close()
}

// handle reacts to one frame. The roster is rebuilt every cycle, so the node
// answers every join invitation, not just the first one. Frames addressed to
// other nodes are ignored.
func (n *SimNode) handle(frame []byte) {
	msg, err := wire.Decode(frame)
	if err != nil {
		n.logger.WithError(err).Debug("Discarding frame")
		return
	}

	switch m := msg.(type) {
	case *wire.Invite:
		n.logger.Debug("Invited, requesting to join")
		n.send(&wire.JoinRequest{
			ID:        n.conf.ID,
			Latitude:  n.conf.Latitude,
			Longitude: n.conf.Longitude,
		})

	case *wire.Settings:
		if m.ID != n.conf.ID {
			return
		}
		n.logger.WithField("node_count", m.NodeCount).Debug("Settings received")
		n.send(&wire.Ack{ID: n.conf.ID})

	case *wire.PollRequest:
		if m.ID != n.conf.ID {
			return
		}
		n.logger.Debug("Polled, reporting telemetry")
		n.send(&wire.Ack{ID: n.conf.ID})
		n.send(&wire.DataReply{
			ID:          n.conf.ID,
			Temperature: n.conf.Temperature,
			Humidity:    n.conf.Humidity,
		})

	case *wire.Commit:
		if m.ID != n.conf.ID {
			return
		}
		n.logger.Debug("Reading committed")
		n.send(&wire.Ack{ID: n.conf.ID})
	}
}

func (n *SimNode) send(msg wire.Message) {
	frame, err := msg.Marshal()
	if err != nil {
		n.logger.WithError(err).Error("Marshalling frame")
		return
	}
	if err := n.trans.Send(frame); err != nil {
		n.logger.WithError(err).Error("Sending frame")
	}
}
