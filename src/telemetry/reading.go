// Package telemetry archives the readings collected from sensor nodes during
// the poll phase. The roster only keeps the latest telemetry of each node;
// the telemetry store keeps the history, either in a bounded in-memory window
// per node or persistently in a Badger database.
package telemetry

import (
	"bytes"

	"github.com/fieldmesh/muster/src/clock"
	"github.com/ugorji/go/codec"
)

// Reading is one successful poll exchange with a node.
type Reading struct {
	NodeID      uint8       `json:"node_id"`
	Cycle       int         `json:"cycle"`
	Temperature float64     `json:"temperature"`
	Humidity    float64     `json:"humidity"`
	At          clock.Ticks `json:"at"`
}

// Marshal serializes the Reading.
func (r *Reading) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(r); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal deserializes a Reading.
func (r *Reading) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(r)
}
