package muster

import (
	"os"
	"testing"

	"github.com/fieldmesh/muster/src/config"
	"github.com/fieldmesh/muster/src/telemetry"
)

func TestInitInmem(t *testing.T) {
	conf := config.NewTestConfig(t)
	conf.Inmem = true
	conf.NoService = true

	engine := NewMuster(conf)

	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}

	if engine.Transceiver == nil || engine.Roster == nil || engine.Store == nil || engine.Session == nil {
		t.Fatal("engine components should be initialised")
	}

	if _, ok := engine.Store.(*telemetry.InmemStore); !ok {
		t.Fatalf("expected an in-mem store, got %T", engine.Store)
	}

	if len(engine.SimNodes) != conf.InmemNodes {
		t.Fatalf("expected %d simulated nodes, got %d", conf.InmemNodes, len(engine.SimNodes))
	}

	if engine.Roster.Capacity() != conf.Capacity {
		t.Fatalf("roster capacity should be %d, not %d", conf.Capacity, engine.Roster.Capacity())
	}

	if engine.Service != nil {
		t.Fatal("no-service should disable the HTTP API")
	}
}

func TestInitStore(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	conf := config.NewTestConfig(t)
	conf.Inmem = true
	conf.NoService = true
	conf.Store = true
	conf.DatabaseDir = "test_data/badger_db"

	engine := NewMuster(conf)

	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}
	defer engine.Store.Close()

	if _, ok := engine.Store.(*telemetry.BadgerStore); !ok {
		t.Fatalf("expected a badger store, got %T", engine.Store)
	}
}
