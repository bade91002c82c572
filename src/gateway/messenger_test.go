package gateway

import (
	"testing"

	"github.com/fieldmesh/muster/src/clock"
	"github.com/fieldmesh/muster/src/common"
	"github.com/fieldmesh/muster/src/radio"
	"github.com/fieldmesh/muster/src/wire"
)

// scriptedTransceiver records sent frames and enqueues the replies produced
// by the react hook, so exchanges play out deterministically under a fake
// clock.
type scriptedTransceiver struct {
	sent  [][]byte
	queue [][]byte
	react func(sent []byte) [][]byte
}

func (t *scriptedTransceiver) Configure(p radio.Params) error { return nil }

func (t *scriptedTransceiver) Send(p []byte) error {
	frame := make([]byte, len(p))
	copy(frame, p)
	t.sent = append(t.sent, frame)

	if t.react != nil {
		t.queue = append(t.queue, t.react(frame)...)
	}
	return nil
}

func (t *scriptedTransceiver) Received() bool {
	return len(t.queue) > 0
}

func (t *scriptedTransceiver) ReadPacket(buf []byte) (int, error) {
	if len(t.queue) == 0 {
		return 0, radio.ErrNoPacket
	}
	frame := t.queue[0]
	t.queue = t.queue[1:]
	return copy(buf, frame), nil
}

func (t *scriptedTransceiver) Close() error { return nil }

// sentFrames returns the recorded frames as strings.
func (t *scriptedTransceiver) sentFrames() []string {
	res := []string{}
	for _, f := range t.sent {
		res = append(res, string(f))
	}
	return res
}

func newTestMessenger(t *testing.T, trans radio.Transceiver, clk clock.Clock) *Messenger {
	logger := common.NewTestLogger(t).WithField("component", "messenger")
	return NewMessenger(trans, clk, 1, logger)
}

func TestSendWithAckSuccess(t *testing.T) {
	trans := &scriptedTransceiver{
		react: func(sent []byte) [][]byte {
			return [][]byte{[]byte("5 ACK")}
		},
	}
	clk := clock.NewFakeClock()
	m := newTestMessenger(t, trans, clk)

	err := m.SendWithAck(&wire.PollRequest{ID: 5}, ackFrom(5), 100, 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if len(trans.sent) != 1 {
		t.Fatalf("a matched send should not retransmit: %v", trans.sentFrames())
	}
	if clk.Now() >= 100 {
		t.Fatalf("a match should return before the window elapses, now=%d", clk.Now())
	}
}

func TestSendWithAckExhaustsRetryBudget(t *testing.T) {
	trans := &scriptedTransceiver{}
	clk := clock.NewFakeClock()
	m := newTestMessenger(t, trans, clk)

	err := m.SendWithAck(&wire.PollRequest{ID: 5}, ackFrom(5), 100, 3)
	if err != ErrNoAck {
		t.Fatalf("err should be ErrNoAck, not %v", err)
	}

	if len(trans.sent) != 4 {
		t.Fatalf("should transmit 1+3 times, not %d", len(trans.sent))
	}
	if elapsed := clk.Now(); elapsed < 400 {
		t.Fatalf("should block for the full (retries+1) x window budget, elapsed=%d", elapsed)
	}
}

func TestSendWithAckIgnoresNonMatchingReplies(t *testing.T) {
	trans := &scriptedTransceiver{
		react: func(sent []byte) [][]byte {
			// a reply from the wrong node and an undecodable frame
			return [][]byte{[]byte("9 ACK"), []byte("%%%% not a frame %%%%")}
		},
	}
	clk := clock.NewFakeClock()
	m := newTestMessenger(t, trans, clk)

	err := m.SendWithAck(&wire.PollRequest{ID: 5}, ackFrom(5), 100, 1)
	if err != ErrNoAck {
		t.Fatalf("err should be ErrNoAck, not %v", err)
	}

	if m.parseErrors != 2 {
		t.Fatalf("undecodable frames should be counted, got %d", m.parseErrors)
	}
}

func TestSendWithAckMatchesMidWindow(t *testing.T) {
	trans := &scriptedTransceiver{}
	clk := clock.NewFakeClock()
	m := newTestMessenger(t, trans, clk)

	// the ack arrives 30 ticks into the listening window
	clk.Schedule(30, func() {
		trans.queue = append(trans.queue, []byte("5 ACK"))
	})

	err := m.SendWithAck(&wire.Settings{ID: 5, NodeCount: 1}, ackFrom(5), 100, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if now := clk.Now(); now < 30 || now >= 100 {
		t.Fatalf("match should land shortly after tick 30, now=%d", now)
	}
}

func TestListenStopsOnAccept(t *testing.T) {
	trans := &scriptedTransceiver{
		queue: [][]byte{[]byte("ignored"), []byte("wanted")},
	}
	clk := clock.NewFakeClock()
	m := newTestMessenger(t, trans, clk)

	var got string
	ok := m.Listen(100, func(frame []byte) bool {
		got = string(frame)
		return got == "wanted"
	})

	if !ok {
		t.Fatal("Listen should report the accepted frame")
	}
	if got != "wanted" {
		t.Fatalf("bad frame: %q", got)
	}
	if clk.Now() >= 100 {
		t.Fatal("Listen should stop before the window elapses")
	}
}

func TestListenTimesOut(t *testing.T) {
	trans := &scriptedTransceiver{}
	clk := clock.NewFakeClock()
	m := newTestMessenger(t, trans, clk)

	if ok := m.Listen(100, func(frame []byte) bool { return true }); ok {
		t.Fatal("Listen should time out on a silent channel")
	}
	if clk.Now() < 100 {
		t.Fatalf("Listen should run through the full window, now=%d", clk.Now())
	}
}
