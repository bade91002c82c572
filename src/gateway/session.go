package gateway

import (
	"strconv"
	"sync/atomic"

	"github.com/fieldmesh/muster/src/clock"
	"github.com/fieldmesh/muster/src/gateway/state"
	"github.com/fieldmesh/muster/src/radio"
	"github.com/fieldmesh/muster/src/roster"
	"github.com/fieldmesh/muster/src/telemetry"
	"github.com/fieldmesh/muster/src/wire"
	"github.com/sirupsen/logrus"
)

// Session drives the repeating Reset -> Assign -> Poll -> CycleWait cycle. It
// owns the transceiver exclusively and is the only writer of the roster. Once
// started it runs forever; every non-fatal error is local to one node or
// round, and the next reset clears accumulated partial state.
type Session struct {
	state.Manager

	conf      *Config
	logger    *logrus.Entry
	clk       clock.Clock
	rost      *roster.Roster
	messenger *Messenger
	store     telemetry.Store

	assignTicks    clock.Ticks
	pollTicks      clock.Ticks
	cycleTicks     clock.Ticks
	broadcastTicks clock.Ticks
	replyTicks     clock.Ticks
	ackTicks       clock.Ticks

	cycle      int32
	cycleStart clock.Ticks
	lastCycle  clock.Ticks

	// counters are read by the HTTP service goroutine through Stats while the
	// session goroutine increments them, so access goes through sync/atomic
	polled       int32
	pollTimeouts int32
	ackFailures  int32
	parseErrors  int32
}

// NewSession creates a Session. The store may be nil, in which case readings
// are only reflected in the roster.
func NewSession(conf *Config, rost *roster.Roster, trans radio.Transceiver, store telemetry.Store, clk clock.Clock) *Session {
	logger := conf.Logger.WithField("component", "session")

	return &Session{
		conf:           conf,
		logger:         logger,
		clk:            clk,
		rost:           rost,
		messenger:      NewMessenger(trans, clk, clock.FromDuration(conf.PollQuantum), logger),
		store:          store,
		assignTicks:    clock.FromDuration(conf.AssignDuration),
		pollTicks:      clock.FromDuration(conf.PollDuration),
		cycleTicks:     clock.FromDuration(conf.CyclePeriod),
		broadcastTicks: clock.FromDuration(conf.BroadcastInterval),
		replyTicks:     clock.FromDuration(conf.DataReplyTimeout),
		ackTicks:       clock.FromDuration(conf.AckWindow),
	}
}

// RunAsync calls Run in a new goroutine.
func (s *Session) RunAsync() {
	go s.Run()
}

// Run invokes the session state machine. It never returns.
func (s *Session) Run() {
	s.cycleStart = s.clk.Now()

	for {
		st := s.GetState()

		s.logger.WithField("state", st.String()).Debug("Run loop")

		switch st {
		case state.Reset:
			s.reset()
		case state.Assign:
			s.assign()
		case state.Poll:
			s.poll()
		case state.CycleWait:
			s.cycleWait()
		}
	}
}

// reset rotates the roster generations and starts a new cycle.
func (s *Session) reset() {
	s.rost.Reset()
	cycle := atomic.AddInt32(&s.cycle, 1)

	s.logger.WithField("cycle", cycle).Debug("RESET")

	s.SetState(state.Assign)
}

// assign runs the admission phase: broadcast a join invitation, listen for
// one round, serve at most the first decodable join request, repeat until the
// phase duration elapses.
func (s *Session) assign() {
	s.logger.Debug("ASSIGN")

	start := s.clk.Now()
	for clock.Since(s.clk.Now(), start) < s.assignTicks {
		if err := s.messenger.Send(&wire.Invite{}); err != nil {
			s.logger.WithError(err).Error("Broadcasting invitation")
		}

		s.messenger.Listen(s.broadcastTicks, func(frame []byte) bool {
			msg, err := wire.Decode(frame)
			if err != nil {
				atomic.AddInt32(&s.parseErrors, 1)
				s.logger.WithError(err).Debug("Discarding frame")
				return false
			}

			request, ok := msg.(*wire.JoinRequest)
			if !ok {
				s.logger.WithField("kind", msg.Kind().String()).Debug("Ignoring out-of-phase frame")
				return false
			}

			s.serveJoinRequest(request)

			// break the listen window and re-broadcast
			return true
		})
	}

	s.SetState(state.Poll)
}

// serveJoinRequest acks a join request, upserts the claiming node, and sends
// it the settings frame. The settings reply goes out even when admission was
// rejected for capacity; nodes are not told apart by the reply.
func (s *Session) serveJoinRequest(request *wire.JoinRequest) {
	logger := s.logger.WithField("node", request.ID)
	now := s.clk.Now()

	if err := s.messenger.Send(&wire.Ack{ID: request.ID}); err != nil {
		logger.WithError(err).Error("Acking join request")
	}

	temp, humid := roster.NoReading, roster.NoReading
	if request.HasTelemetry {
		temp, humid = request.Temperature, request.Humidity
	}

	res, err := s.rost.Upsert(request.ID, request.Latitude, request.Longitude, temp, humid, now)
	if err != nil {
		logger.Warn("Roster full, rejecting join request")
	} else {
		logger.WithField("result", res.String()).Debug("Join request served")
	}

	settings := &wire.Settings{
		ID:        request.ID,
		NodeCount: s.rost.Len(),
		TempMin:   s.conf.TempMin,
		TempMax:   s.conf.TempMax,
		HumidMin:  s.conf.HumidMin,
		HumidMax:  s.conf.HumidMax,
	}

	if err := s.messenger.SendWithAck(settings, ackFrom(request.ID), s.ackTicks, s.conf.MaxRetries); err != nil {
		atomic.AddInt32(&s.ackFailures, 1)
		logger.Warn("Settings exchange failed")
	}
}

// poll runs the data-collection phase over the current generation in
// admission order. The iteration is bounded by the phase duration; nodes not
// reached this cycle are simply not polled.
func (s *Session) poll() {
	s.logger.Debug("POLL")

	start := s.clk.Now()
	for _, node := range s.rost.Entries() {
		if clock.Since(s.clk.Now(), start) >= s.pollTicks {
			s.logger.Warn("Poll phase elapsed, skipping remaining nodes")
			break
		}
		s.pollNode(node.ID)
	}

	s.SetState(state.CycleWait)
}

// pollNode runs one poll exchange: poll request, telemetry reply, commit.
// Every failure skips the node until the next cycle.
func (s *Session) pollNode(id uint8) {
	logger := s.logger.WithField("node", id)

	if err := s.messenger.SendWithAck(&wire.PollRequest{ID: id}, ackFrom(id), s.ackTicks, s.conf.MaxRetries); err != nil {
		atomic.AddInt32(&s.ackFailures, 1)
		logger.Warn("Poll request was not acknowledged")
		return
	}

	var reply *wire.DataReply
	got := s.messenger.Listen(s.replyTicks, func(frame []byte) bool {
		dr, err := wire.DecodeDataReply(frame)
		if err != nil {
			atomic.AddInt32(&s.parseErrors, 1)
			logger.WithError(err).Debug("Discarding frame")
			return false
		}
		if dr.ID != id {
			logger.WithField("from", dr.ID).Debug("Ignoring reply from another node")
			return false
		}
		reply = dr
		return true
	})

	if !got {
		atomic.AddInt32(&s.pollTimeouts, 1)
		logger.Warn("No telemetry reply")
		return
	}

	now := s.clk.Now()

	if err := s.rost.UpdateTelemetry(id, reply.Temperature, reply.Humidity, now); err != nil {
		logger.WithError(err).Warn("Recording telemetry")
		return
	}

	if s.store != nil {
		reading := &telemetry.Reading{
			NodeID:      id,
			Cycle:       int(atomic.LoadInt32(&s.cycle)),
			Temperature: reply.Temperature,
			Humidity:    reply.Humidity,
			At:          now,
		}
		if err := s.store.Append(reading); err != nil {
			logger.WithError(err).Error("Archiving reading")
		}
	}

	atomic.AddInt32(&s.polled, 1)

	if err := s.messenger.SendWithAck(&wire.Commit{ID: id}, ackFrom(id), s.ackTicks, s.conf.MaxRetries); err != nil {
		atomic.AddInt32(&s.ackFailures, 1)
		logger.Warn("Commit was not acknowledged")
	}
}

// cycleWait sleeps to the next cycle boundary. The boundary accumulates from
// a fixed reference rather than from "now + delay", so phase drift does not
// build up across cycles. Boundaries overrun by slow phases are skipped.
func (s *Session) cycleWait() {
	s.logger.Debug("CYCLE-WAIT")

	now := s.clk.Now()
	atomic.StoreUint32((*uint32)(&s.lastCycle), uint32(clock.Since(now, s.cycleStart)))

	s.logStats()

	for clock.Since(now, s.cycleStart) >= s.cycleTicks {
		s.cycleStart += s.cycleTicks
	}

	wake := s.cycleStart + s.cycleTicks
	s.clk.Sleep(clock.Since(wake, now))
	s.cycleStart = wake

	s.SetState(state.Reset)
}

// Stats returns the session counters. It is safe to call from other
// goroutines while the session runs.
func (s *Session) Stats() map[string]string {
	parseErrors := atomic.LoadInt32(&s.messenger.parseErrors) +
		atomic.LoadInt32(&s.parseErrors)

	return map[string]string{
		"state":            s.GetState().String(),
		"cycle":            strconv.Itoa(int(atomic.LoadInt32(&s.cycle))),
		"nodes":            strconv.Itoa(s.rost.Len()),
		"new_nodes":        strconv.Itoa(len(s.rost.NewEntries())),
		"previous_nodes":   strconv.Itoa(len(s.rost.PreviousEntries())),
		"polled":           strconv.Itoa(int(atomic.LoadInt32(&s.polled))),
		"poll_timeouts":    strconv.Itoa(int(atomic.LoadInt32(&s.pollTimeouts))),
		"ack_failures":     strconv.Itoa(int(atomic.LoadInt32(&s.ackFailures))),
		"frames_sent":      strconv.Itoa(int(atomic.LoadInt32(&s.messenger.framesSent))),
		"frames_received":  strconv.Itoa(int(atomic.LoadInt32(&s.messenger.framesReceived))),
		"parse_errors":     strconv.Itoa(int(parseErrors)),
		"last_cycle_ticks": strconv.FormatUint(uint64(atomic.LoadUint32((*uint32)(&s.lastCycle))), 10),
	}
}

func (s *Session) logStats() {
	stats := s.Stats()

	s.logger.WithFields(logrus.Fields{
		"cycle":            stats["cycle"],
		"nodes":            stats["nodes"],
		"new_nodes":        stats["new_nodes"],
		"polled":           stats["polled"],
		"poll_timeouts":    stats["poll_timeouts"],
		"ack_failures":     stats["ack_failures"],
		"frames_sent":      stats["frames_sent"],
		"frames_received":  stats["frames_received"],
		"parse_errors":     stats["parse_errors"],
		"last_cycle_ticks": stats["last_cycle_ticks"],
	}).Debug("Stats")
}

// ackFrom matches a bare acknowledgment from the given node.
func ackFrom(id uint8) func(wire.Message) bool {
	return func(msg wire.Message) bool {
		ack, ok := msg.(*wire.Ack)
		return ok && ack.ID == id
	}
}
