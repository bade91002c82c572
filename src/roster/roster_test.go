package roster

import (
	"testing"
)

func TestUpsertAdmits(t *testing.T) {
	r := NewRoster(DefaultCapacity)

	res, err := r.Upsert(5, 10.0, 20.0, NoReading, NoReading, 100)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res != Admitted {
		t.Fatalf("result should be Admitted, not %s", res)
	}

	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("current should hold 1 entry, not %d", len(entries))
	}

	node := entries[0]
	if node.ID != 5 || node.Latitude != 10.0 || node.Longitude != 20.0 {
		t.Fatalf("bad record: %+v", node)
	}
	if node.Temperature != NoReading || node.Humidity != NoReading {
		t.Fatalf("telemetry should be the sentinel: %+v", node)
	}

	if !r.InNew(5) {
		t.Fatal("a first-time node should be classified as new")
	}
}

func TestUpsertIsIdempotentPerID(t *testing.T) {
	r := NewRoster(DefaultCapacity)

	for i := 0; i < 5; i++ {
		lat := float64(i)
		res, err := r.Upsert(7, lat, lat, NoReading, NoReading, 0)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if i == 0 && res != Admitted {
			t.Fatalf("first upsert should be Admitted, not %s", res)
		}
		if i > 0 && res != Updated {
			t.Fatalf("repeat upsert should be Updated, not %s", res)
		}
	}

	if r.Len() != 1 {
		t.Fatalf("current should hold exactly 1 entry, not %d", r.Len())
	}

	node, _ := r.Get(7)
	if node.Latitude != 4.0 {
		t.Fatalf("fields should reflect the last upsert: %+v", node)
	}
}

func TestUpsertEnforcesCapacity(t *testing.T) {
	r := NewRoster(DefaultCapacity)

	for id := 1; id <= DefaultCapacity; id++ {
		if _, err := r.Upsert(uint8(id), 0, 0, NoReading, NoReading, 0); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	if _, err := r.Upsert(21, 0, 0, NoReading, NoReading, 0); err != ErrFull {
		t.Fatalf("admission at capacity should return ErrFull, not %v", err)
	}
	if r.Len() != DefaultCapacity {
		t.Fatalf("current should still hold %d entries, not %d", DefaultCapacity, r.Len())
	}
	if r.InNew(21) {
		t.Fatal("a rejected node should not be classified as new")
	}

	// updating an enrolled node still works at capacity
	if res, err := r.Upsert(1, 1.0, 1.0, NoReading, NoReading, 0); err != nil || res != Updated {
		t.Fatalf("res: %s, err: %v", res, err)
	}
}

func TestResetSnapshotsCurrent(t *testing.T) {
	r := NewRoster(DefaultCapacity)

	for id := 1; id <= 3; id++ {
		r.Upsert(uint8(id), 0, 0, NoReading, NoReading, 0)
	}

	r.Reset()

	if r.Len() != 0 {
		t.Fatalf("current should be empty after reset, not %d", r.Len())
	}
	if len(r.NewEntries()) != 0 {
		t.Fatal("new should be empty after reset")
	}

	previous := r.PreviousEntries()
	if len(previous) != 3 {
		t.Fatalf("previous should hold the pre-reset current, not %d entries", len(previous))
	}
	for i, node := range previous {
		if node.ID != uint8(i+1) {
			t.Fatalf("previous should keep admission order: %+v", previous)
		}
	}
}

func TestReturningNodeIsNotNew(t *testing.T) {
	r := NewRoster(DefaultCapacity)

	for id := 1; id <= 3; id++ {
		r.Upsert(uint8(id), 0, 0, NoReading, NoReading, 0)
	}

	r.Reset()

	// node 2 re-joins in the new cycle
	res, err := r.Upsert(2, 0, 0, NoReading, NoReading, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res != Admitted {
		t.Fatalf("result should be Admitted, not %s", res)
	}

	if r.InNew(2) {
		t.Fatal("a node from the previous generation should not be classified as new")
	}
	if !r.InPrevious(2) {
		t.Fatal("node 2 should be in the previous generation")
	}

	// node 9 was never seen before
	r.Upsert(9, 0, 0, NoReading, NoReading, 0)
	if !r.InNew(9) {
		t.Fatal("a first-time node should be classified as new")
	}
}

func TestUpdateTelemetry(t *testing.T) {
	r := NewRoster(DefaultCapacity)

	r.Upsert(5, 10.0, 20.0, NoReading, NoReading, 100)

	if err := r.UpdateTelemetry(5, 21.5, 48.0, 200); err != nil {
		t.Fatalf("err: %v", err)
	}

	node, _ := r.Get(5)
	if node.Temperature != 21.5 || node.Humidity != 48.0 {
		t.Fatalf("telemetry should be overwritten: %+v", node)
	}
	if node.LastSeen != 200 {
		t.Fatalf("LastSeen should be 200, not %d", node.LastSeen)
	}
	if node.Latitude != 10.0 || node.Longitude != 20.0 {
		t.Fatalf("coordinates should be untouched: %+v", node)
	}

	if err := r.UpdateTelemetry(6, 21.5, 48.0, 200); err != ErrNotFound {
		t.Fatalf("unknown id should return ErrNotFound, not %v", err)
	}
	if r.Len() != 1 {
		t.Fatal("UpdateTelemetry should never admit")
	}
}

func TestEntriesAreStableCopies(t *testing.T) {
	r := NewRoster(DefaultCapacity)

	r.Upsert(5, 10.0, 20.0, NoReading, NoReading, 0)

	entries := r.Entries()

	r.UpdateTelemetry(5, 21.5, 48.0, 100)

	if entries[0].Temperature != NoReading {
		t.Fatal("a returned entry should not change under later mutations")
	}
}
