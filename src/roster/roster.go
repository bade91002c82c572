package roster

import (
	"errors"
	"sync"

	"github.com/fieldmesh/muster/src/clock"
)

// DefaultCapacity is the default maximum number of nodes in the current
// generation.
const DefaultCapacity = 20

// NoReading is the sentinel telemetry value of a node that has not been
// polled successfully yet.
const NoReading = -1.0

var (
	// ErrFull is returned when an admission is attempted at full capacity.
	ErrFull = errors.New("roster is full")

	// ErrNotFound is returned when an update targets an id that is not in the
	// current generation.
	ErrNotFound = errors.New("node not found")
)

// Node is the record of an enrolled sensor node.
type Node struct {
	ID          uint8       `json:"id"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Temperature float64     `json:"temperature"`
	Humidity    float64     `json:"humidity"`
	LastSeen    clock.Ticks `json:"last_seen"`
}

// UpsertResult says what an Upsert call did.
type UpsertResult int

const (
	// Updated means the id was already enrolled and its record was
	// overwritten.
	Updated UpsertResult = iota
	// Admitted means a new record was appended to the current generation.
	Admitted
)

// String returns the string representation of an UpsertResult.
func (r UpsertResult) String() string {
	switch r {
	case Updated:
		return "Updated"
	case Admitted:
		return "Admitted"
	default:
		return "Unknown"
	}
}

// Roster holds the three generations of node records.
type Roster struct {
	sync.RWMutex

	capacity int

	current []*Node
	byID    map[uint8]*Node

	previous []*Node
	prevByID map[uint8]*Node

	added   []*Node
	addedID map[uint8]*Node
}

// NewRoster creates an empty Roster. A capacity of zero or less falls back to
// DefaultCapacity.
func NewRoster(capacity int) *Roster {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Roster{
		capacity: capacity,
		byID:     make(map[uint8]*Node),
		prevByID: make(map[uint8]*Node),
		addedID:  make(map[uint8]*Node),
	}
}

// Reset snapshots the current generation into the previous generation and
// clears the current and new generations. It has no failure mode.
func (r *Roster) Reset() {
	r.Lock()
	defer r.Unlock()

	r.previous = r.current
	r.prevByID = r.byID

	r.current = nil
	r.byID = make(map[uint8]*Node)
	r.added = nil
	r.addedID = make(map[uint8]*Node)
}

// Upsert enrolls or refreshes a node. An id already in the current generation
// has its record overwritten and returns Updated. A new id is appended to the
// current generation and returns Admitted, unless the generation is full, in
// which case nothing is mutated and ErrFull is returned. A node admitted this
// cycle is classified as new only if its id was absent from the previous
// generation.
func (r *Roster) Upsert(id uint8, lat, lon, temp, humid float64, seen clock.Ticks) (UpsertResult, error) {
	r.Lock()
	defer r.Unlock()

	if node, ok := r.byID[id]; ok {
		node.Latitude = lat
		node.Longitude = lon
		node.Temperature = temp
		node.Humidity = humid
		node.LastSeen = seen
		return Updated, nil
	}

	if len(r.current) >= r.capacity {
		return 0, ErrFull
	}

	node := &Node{
		ID:          id,
		Latitude:    lat,
		Longitude:   lon,
		Temperature: temp,
		Humidity:    humid,
		LastSeen:    seen,
	}

	r.current = append(r.current, node)
	r.byID[id] = node

	if _, returning := r.prevByID[id]; !returning {
		r.added = append(r.added, node)
		r.addedID[id] = node
	}

	return Admitted, nil
}

// UpdateTelemetry overwrites the telemetry of an existing node in the current
// generation. It returns ErrNotFound for unknown ids and never admits.
func (r *Roster) UpdateTelemetry(id uint8, temp, humid float64, seen clock.Ticks) error {
	r.Lock()
	defer r.Unlock()

	node, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}

	node.Temperature = temp
	node.Humidity = humid
	node.LastSeen = seen

	return nil
}

// Get returns a copy of the node with the given id from the current
// generation.
func (r *Roster) Get(id uint8) (Node, bool) {
	r.RLock()
	defer r.RUnlock()

	node, ok := r.byID[id]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// Entries returns the current generation in admission order. The records are
// copies, safe to hold across a roster mutation.
func (r *Roster) Entries() []Node {
	r.RLock()
	defer r.RUnlock()
	return copyNodes(r.current)
}

// NewEntries returns the nodes admitted this cycle that were absent from the
// previous generation, in admission order.
func (r *Roster) NewEntries() []Node {
	r.RLock()
	defer r.RUnlock()
	return copyNodes(r.added)
}

// PreviousEntries returns the snapshot taken at the last reset, in the
// admission order of that cycle.
func (r *Roster) PreviousEntries() []Node {
	r.RLock()
	defer r.RUnlock()
	return copyNodes(r.previous)
}

// InPrevious reports whether the id was enrolled when the last reset ran.
func (r *Roster) InPrevious(id uint8) bool {
	r.RLock()
	defer r.RUnlock()

	_, ok := r.prevByID[id]
	return ok
}

// InNew reports whether the id was admitted this cycle without being in the
// previous generation.
func (r *Roster) InNew(id uint8) bool {
	r.RLock()
	defer r.RUnlock()

	_, ok := r.addedID[id]
	return ok
}

// Len returns the size of the current generation.
func (r *Roster) Len() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.current)
}

// Capacity returns the maximum size of the current generation.
func (r *Roster) Capacity() int {
	return r.capacity
}

func copyNodes(nodes []*Node) []Node {
	res := make([]Node, len(nodes))
	for i, n := range nodes {
		res[i] = *n
	}
	return res
}
