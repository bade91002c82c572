package telemetry

import (
	"strconv"
	"sync"

	cm "github.com/fieldmesh/muster/src/common"
)

// InmemStore keeps a bounded rolling window of readings per node. It is the
// default store; history that rolls out of the window is lost.
type InmemStore struct {
	sync.Mutex
	windowSize int
	byNode     map[uint8]*cm.RollingWindow
}

// NewInmemStore creates an InmemStore retaining at least windowSize readings
// per node.
func NewInmemStore(windowSize int) *InmemStore {
	return &InmemStore{
		windowSize: windowSize,
		byNode:     make(map[uint8]*cm.RollingWindow),
	}
}

// Append implements the Store interface.
func (s *InmemStore) Append(r *Reading) error {
	s.Lock()
	defer s.Unlock()

	window, ok := s.byNode[r.NodeID]
	if !ok {
		window = cm.NewRollingWindow(nodeKey(r.NodeID), s.windowSize)
		s.byNode[r.NodeID] = window
	}

	window.Add(r)

	return nil
}

// Readings implements the Store interface.
func (s *InmemStore) Readings(nodeID uint8) ([]*Reading, error) {
	s.Lock()
	defer s.Unlock()

	window, ok := s.byNode[nodeID]
	if !ok {
		return nil, cm.NewStoreErr("reading", cm.KeyNotFound, nodeKey(nodeID))
	}

	items := window.All()
	res := make([]*Reading, len(items))
	for i, item := range items {
		res[i] = item.(*Reading)
	}

	return res, nil
}

// Last implements the Store interface.
func (s *InmemStore) Last(nodeID uint8) (*Reading, error) {
	s.Lock()
	defer s.Unlock()

	window, ok := s.byNode[nodeID]
	if !ok {
		return nil, cm.NewStoreErr("reading", cm.KeyNotFound, nodeKey(nodeID))
	}

	item, err := window.Last()
	if err != nil {
		return nil, err
	}

	return item.(*Reading), nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

func nodeKey(nodeID uint8) string {
	return strconv.Itoa(int(nodeID))
}
