// Package radio provides the Transceiver interface used by the gateway to
// send and receive raw frames, and implementations of it to allow the gateway
// to run in-memory or against a remote radio front-end over UDP.
//
// The transceiver models a half-duplex radio: the owning goroutine never
// sends and receives at the same time, and received frames are drained one at
// a time through a non-blocking poll.
package radio

// MaxPacketSize is the size of the radio transmission and reception buffers.
const MaxPacketSize = 256

// Params holds the physical-layer configuration of the radio.
type Params struct {
	Frequency       int64 `mapstructure:"frequency" json:"frequency"`
	Bandwidth       int   `mapstructure:"bandwidth" json:"bandwidth"`
	SpreadingFactor int   `mapstructure:"spreading-factor" json:"spreading_factor"`
	CodingRate      int   `mapstructure:"coding-rate" json:"coding_rate"`
	CRC             bool  `mapstructure:"crc" json:"crc"`
}

// DefaultParams returns the physical-layer defaults: 433MHz, bandwidth
// setting 7, spreading factor 7, coding rate 1, CRC enabled.
func DefaultParams() Params {
	return Params{
		Frequency:       433000000,
		Bandwidth:       7,
		SpreadingFactor: 7,
		CodingRate:      1,
		CRC:             true,
	}
}

// Transceiver is the narrow interface between the session protocol and the
// radio. Send and the receive methods are never called concurrently.
type Transceiver interface {
	// Configure applies the physical-layer parameters. A configuration
	// failure at startup is fatal to the process.
	Configure(p Params) error

	// Send transmits one frame.
	Send(p []byte) error

	// Received reports, without blocking, whether a frame has arrived.
	Received() bool

	// ReadPacket drains one received frame into buf and returns its length.
	// Frames longer than buf are truncated.
	ReadPacket(buf []byte) (int, error)

	// Close releases the transceiver.
	Close() error
}
