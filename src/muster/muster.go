// Package muster wires the gateway components into a runnable engine:
// transceiver, roster, telemetry store, session and HTTP service.
package muster

import (
	"fmt"

	"github.com/fieldmesh/muster/src/clock"
	"github.com/fieldmesh/muster/src/config"
	"github.com/fieldmesh/muster/src/gateway"
	"github.com/fieldmesh/muster/src/radio"
	"github.com/fieldmesh/muster/src/roster"
	"github.com/fieldmesh/muster/src/service"
	"github.com/fieldmesh/muster/src/simnode"
	"github.com/fieldmesh/muster/src/telemetry"
)

// Muster is the top-level engine.
type Muster struct {
	Config      *config.Config
	Channel     *radio.InmemChannel
	Transceiver radio.Transceiver
	Roster      *roster.Roster
	Store       telemetry.Store
	Session     *gateway.Session
	Service     *service.Service
	SimNodes    []*simnode.SimNode
}

// NewMuster creates an engine from a config. Call Init before Run.
func NewMuster(conf *config.Config) *Muster {
	return &Muster{
		Config: conf,
	}
}

// initTransceiver opens the radio: an in-memory channel shared with simulated
// nodes in Inmem mode, or the UDP link to the radio front-end. A failure here
// is fatal; the session never starts.
func (m *Muster) initTransceiver() error {
	logger := m.Config.Logger()

	if m.Config.Inmem {
		m.Channel = radio.NewInmemChannel()
		m.Transceiver = m.Channel.Join()

		for i := 0; i < m.Config.InmemNodes; i++ {
			nodeConf := simnode.Config{
				ID:          uint8(i + 1),
				Latitude:    10.0 + float64(i),
				Longitude:   20.0 + float64(i),
				Temperature: 18.0 + float64(i),
				Humidity:    45.0 + float64(i),
			}
			node := simnode.NewSimNode(nodeConf, m.Channel.Join(), clock.NewSystemClock(), logger.Logger)
			m.SimNodes = append(m.SimNodes, node)
		}

		logger.WithField("nodes", m.Config.InmemNodes).Debug("created in-memory radio channel")
	} else {
		trans, err := radio.NewUDPTransceiver(m.Config.BindAddr, m.Config.ForwarderAddr, logger)
		if err != nil {
			return fmt.Errorf("opening radio link: %s", err)
		}
		m.Transceiver = trans

		logger.WithField("forwarder", m.Config.ForwarderAddr).Debug("created UDP radio link")
	}

	if err := m.Transceiver.Configure(m.Config.Radio); err != nil {
		return fmt.Errorf("configuring radio: %s", err)
	}

	return nil
}

func (m *Muster) initStore() error {
	if !m.Config.Store {
		m.Store = telemetry.NewInmemStore(m.Config.WindowSize)

		m.Config.Logger().Debug("created new in-mem store")
	} else {
		var err error

		m.Config.Logger().WithField("path", m.Config.DatabaseDir).Debug("Attempting to load or create database")

		m.Store, err = telemetry.LoadOrCreateBadgerStore(m.Config.WindowSize, m.Config.DatabaseDir)

		if err != nil {
			return err
		}
	}

	return nil
}

func (m *Muster) initRoster() error {
	m.Roster = roster.NewRoster(m.Config.Capacity)
	return nil
}

func (m *Muster) initSession() error {
	m.Session = gateway.NewSession(
		m.Config.GatewayConfig(),
		m.Roster,
		m.Transceiver,
		m.Store,
		clock.NewSystemClock(),
	)
	return nil
}

func (m *Muster) initService() error {
	if !m.Config.NoService {
		m.Service = service.NewService(
			m.Config.ServiceAddr,
			m.Session,
			m.Roster,
			m.Store,
			m.Config.Logger(),
		)
	}
	return nil
}

// Init initialises the engine components. An error from here is fatal.
func (m *Muster) Init() error {
	if err := m.initTransceiver(); err != nil {
		return err
	}

	if err := m.initStore(); err != nil {
		return err
	}

	if err := m.initRoster(); err != nil {
		return err
	}

	if err := m.initSession(); err != nil {
		return err
	}

	if err := m.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the service and the simulated nodes, then runs the session in
// the calling goroutine. It never returns.
func (m *Muster) Run() {
	if m.Service != nil {
		go m.Service.Serve()
	}

	for _, node := range m.SimNodes {
		node.RunAsync()
	}

	m.Session.Run()
}
