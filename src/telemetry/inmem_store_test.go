package telemetry

import (
	"testing"

	cm "github.com/fieldmesh/muster/src/common"
)

func TestInmemStoreAppendAndReadings(t *testing.T) {
	store := NewInmemStore(10)

	for i := 0; i < 3; i++ {
		r := &Reading{NodeID: 5, Cycle: i, Temperature: 20.0 + float64(i), Humidity: 50.0}
		if err := store.Append(r); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	readings, err := store.Readings(5)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("should hold 3 readings, not %d", len(readings))
	}
	for i, r := range readings {
		if r.Cycle != i {
			t.Fatalf("readings should be oldest first: %+v", readings)
		}
	}

	last, err := store.Last(5)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if last.Cycle != 2 || last.Temperature != 22.0 {
		t.Fatalf("bad last reading: %+v", last)
	}
}

func TestInmemStoreUnknownNode(t *testing.T) {
	store := NewInmemStore(10)

	if _, err := store.Readings(9); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("unknown node should return KeyNotFound, not %v", err)
	}
	if _, err := store.Last(9); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("unknown node should return KeyNotFound, not %v", err)
	}
}

func TestInmemStoreRolls(t *testing.T) {
	store := NewInmemStore(2)

	// the window holds between size and 2*size items
	for i := 0; i < 5; i++ {
		store.Append(&Reading{NodeID: 5, Cycle: i})
	}

	readings, err := store.Readings(5)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("window should have rolled to 3 readings, not %d", len(readings))
	}
	if readings[0].Cycle != 2 {
		t.Fatalf("the oldest retained reading should be cycle 2, not %d", readings[0].Cycle)
	}
}

func TestReadingRoundTrip(t *testing.T) {
	r := &Reading{NodeID: 5, Cycle: 3, Temperature: 21.5, Humidity: 48.0, At: 12345}

	data, err := r.Marshal()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	decoded := new(Reading)
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("err: %v", err)
	}

	if *decoded != *r {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, r)
	}
}
