// Package wire implements the ASCII frame grammar spoken between the gateway
// and its sensor nodes. Frames are space-delimited token strings of at most
// MaxFrameSize bytes; numeric fields are fixed-point decimals with one
// fractional digit, and node ids are 8-bit unsigned integers.
package wire

import (
	"fmt"
	"strconv"
)

// MaxFrameSize is the size of the radio transmission buffer. Marshal never
// produces a frame larger than this.
const MaxFrameSize = 256

// Keyword tokens of the grammar.
const (
	inviteToken = "Open"
	pollToken   = "R"
	commitToken = "Ok"
	ackToken    = "ACK"
)

// Kind identifies a message grammar.
type Kind int

const (
	// KindInvite is the broadcast frame inviting nodes to join.
	KindInvite Kind = iota
	// KindJoinRequest is a node's request to join, with its coordinates and
	// optionally a first telemetry sample.
	KindJoinRequest
	// KindSettings is the gateway's accept frame carrying the roster count
	// and the environmental bounds the node should alert on.
	KindSettings
	// KindPollRequest asks a node to report telemetry.
	KindPollRequest
	// KindDataReply is a node's telemetry report.
	KindDataReply
	// KindCommit confirms that a telemetry report was recorded.
	KindCommit
	// KindAck is a bare acknowledgment, sent by either side.
	KindAck
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindInvite:
		return "Invite"
	case KindJoinRequest:
		return "JoinRequest"
	case KindSettings:
		return "Settings"
	case KindPollRequest:
		return "PollRequest"
	case KindDataReply:
		return "DataReply"
	case KindCommit:
		return "Commit"
	case KindAck:
		return "Ack"
	default:
		return "Unknown"
	}
}

// Message is the tagged union of all frame grammars.
type Message interface {
	Kind() Kind
	Marshal() ([]byte, error)
}

// Invite is the join invitation broadcast by the gateway.
type Invite struct{}

// Kind implements the Message interface.
func (m *Invite) Kind() Kind { return KindInvite }

// Marshal implements the Message interface.
func (m *Invite) Marshal() ([]byte, error) {
	return frame(inviteToken)
}

// JoinRequest is a node's request to be admitted, carrying its position and
// optionally a first telemetry sample.
type JoinRequest struct {
	ID           uint8
	Latitude     float64
	Longitude    float64
	Temperature  float64
	Humidity     float64
	HasTelemetry bool
}

// Kind implements the Message interface.
func (m *JoinRequest) Kind() Kind { return KindJoinRequest }

// Marshal implements the Message interface.
func (m *JoinRequest) Marshal() ([]byte, error) {
	s := fmt.Sprintf("%d %s %s", m.ID, fixed(m.Latitude), fixed(m.Longitude))
	if m.HasTelemetry {
		s = fmt.Sprintf("%s %s %s", s, fixed(m.Temperature), fixed(m.Humidity))
	}
	return frame(s)
}

// Settings is the gateway's accept frame. NodeCount is the number of nodes
// currently enrolled; the remaining fields are the environmental bounds the
// node should apply.
type Settings struct {
	ID        uint8
	NodeCount int
	TempMin   float64
	TempMax   float64
	HumidMin  float64
	HumidMax  float64
}

// Kind implements the Message interface.
func (m *Settings) Kind() Kind { return KindSettings }

// Marshal implements the Message interface.
func (m *Settings) Marshal() ([]byte, error) {
	s := fmt.Sprintf("%d %d %s %s %s %s",
		m.ID,
		m.NodeCount,
		fixed(m.TempMin),
		fixed(m.TempMax),
		fixed(m.HumidMin),
		fixed(m.HumidMax))
	return frame(s)
}

// PollRequest asks the identified node to report telemetry.
type PollRequest struct {
	ID uint8
}

// Kind implements the Message interface.
func (m *PollRequest) Kind() Kind { return KindPollRequest }

// Marshal implements the Message interface.
func (m *PollRequest) Marshal() ([]byte, error) {
	return frame(fmt.Sprintf("%d %s", m.ID, pollToken))
}

// DataReply is a node's telemetry report.
type DataReply struct {
	ID          uint8
	Temperature float64
	Humidity    float64
}

// Kind implements the Message interface.
func (m *DataReply) Kind() Kind { return KindDataReply }

// Marshal implements the Message interface.
func (m *DataReply) Marshal() ([]byte, error) {
	s := fmt.Sprintf("%d %s %s", m.ID, fixed(m.Temperature), fixed(m.Humidity))
	return frame(s)
}

// Commit confirms to a node that its telemetry report was recorded.
type Commit struct {
	ID uint8
}

// Kind implements the Message interface.
func (m *Commit) Kind() Kind { return KindCommit }

// Marshal implements the Message interface.
func (m *Commit) Marshal() ([]byte, error) {
	return frame(fmt.Sprintf("%d %s", m.ID, commitToken))
}

// Ack is a bare acknowledgment.
type Ack struct {
	ID uint8
}

// Kind implements the Message interface.
func (m *Ack) Kind() Kind { return KindAck }

// Marshal implements the Message interface.
func (m *Ack) Marshal() ([]byte, error) {
	return frame(fmt.Sprintf("%d %s", m.ID, ackToken))
}

// fixed renders a float in the grammar's fixed-point format, one fractional
// digit.
func fixed(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func frame(s string) ([]byte, error) {
	if len(s) > MaxFrameSize {
		return nil, fmt.Errorf("frame is %d bytes, exceeds %d", len(s), MaxFrameSize)
	}
	return []byte(s), nil
}
