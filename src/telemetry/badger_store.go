package telemetry

import (
	"fmt"

	"github.com/dgraph-io/badger"
)

const readingPrefix = "reading"

// BadgerStore persists readings in a Badger database, with an InmemStore in
// front of it serving the recent window. Reopening a store on an existing
// database replays the persisted readings into the window, so the archive
// survives gateway restarts.
type BadgerStore struct {
	inmemStore *InmemStore
	db         *badger.DB
	path       string
	seq        map[uint8]int
}

// LoadOrCreateBadgerStore opens the database at path, creating it if needed,
// and warms the in-memory window from the persisted readings.
func LoadOrCreateBadgerStore(windowSize int, path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(windowSize),
		db:         handle,
		path:       path,
		seq:        make(map[uint8]int),
	}

	if err := store.replay(); err != nil {
		handle.Close()
		return nil, err
	}

	return store, nil
}

// replay walks the persisted readings in key order, which is per-node append
// order, rebuilding the sequence counters and the in-memory windows.
func (s *BadgerStore) replay() error {
	prefix := []byte(readingPrefix + "_")

	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			reading := new(Reading)
			if err := reading.Unmarshal(data); err != nil {
				return err
			}

			s.seq[reading.NodeID]++
			s.inmemStore.Append(reading)
		}

		return nil
	})
}

// Append implements the Store interface.
func (s *BadgerStore) Append(r *Reading) error {
	if err := s.inmemStore.Append(r); err != nil {
		return err
	}

	data, err := r.Marshal()
	if err != nil {
		return err
	}

	key := readingKey(r.NodeID, s.seq[r.NodeID])

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.seq[r.NodeID]++

	return nil
}

// Readings implements the Store interface. Unlike the in-memory window, it
// returns the full persisted history of the node.
func (s *BadgerStore) Readings(nodeID uint8) ([]*Reading, error) {
	prefix := nodePrefix(nodeID)
	res := []*Reading{}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			reading := new(Reading)
			if err := reading.Unmarshal(data); err != nil {
				return err
			}

			res = append(res, reading)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Last implements the Store interface.
func (s *BadgerStore) Last(nodeID uint8) (*Reading, error) {
	return s.inmemStore.Last(nodeID)
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	if err := s.inmemStore.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// StorePath returns the database directory.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func readingKey(nodeID uint8, index int) []byte {
	return []byte(fmt.Sprintf("%s_%03d_%09d", readingPrefix, nodeID, index))
}

func nodePrefix(nodeID uint8) []byte {
	return []byte(fmt.Sprintf("%s_%03d_", readingPrefix, nodeID))
}
