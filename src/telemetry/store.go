package telemetry

// Store is the interface of a telemetry archive.
type Store interface {
	// Append records one reading.
	Append(r *Reading) error

	// Readings returns the retained readings of a node, oldest first.
	Readings(nodeID uint8) ([]*Reading, error)

	// Last returns the most recent reading of a node.
	Last(nodeID uint8) (*Reading, error)

	// Close releases the store.
	Close() error
}
