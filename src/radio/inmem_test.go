package radio

import (
	"testing"
)

func TestInmemChannelBroadcasts(t *testing.T) {
	channel := NewInmemChannel()

	gateway := channel.Join()
	node1 := channel.Join()
	node2 := channel.Join()

	if err := gateway.Send([]byte("Open")); err != nil {
		t.Fatalf("err: %v", err)
	}

	if gateway.Received() {
		t.Fatal("a sender should not hear its own frame")
	}

	for i, node := range []*InmemTransceiver{node1, node2} {
		if !node.Received() {
			t.Fatalf("member %d should have received the frame", i)
		}

		buf := make([]byte, MaxPacketSize)
		n, err := node.ReadPacket(buf)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if string(buf[:n]) != "Open" {
			t.Fatalf("bad frame: %q", buf[:n])
		}

		if node.Received() {
			t.Fatalf("member %d queue should be drained", i)
		}
	}
}

func TestInmemReadPacketOrderAndBounds(t *testing.T) {
	channel := NewInmemChannel()

	sender := channel.Join()
	receiver := channel.Join()

	sender.Send([]byte("first"))
	sender.Send([]byte("second frame"))

	buf := make([]byte, 5)

	n, err := receiver.ReadPacket(buf)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(buf[:n]) != "first" {
		t.Fatalf("frames should drain in order: %q", buf[:n])
	}

	// the second frame is longer than the buffer and gets truncated
	n, err = receiver.ReadPacket(buf)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if n != 5 || string(buf[:n]) != "secon" {
		t.Fatalf("frame should be bounded by the buffer: %q", buf[:n])
	}

	if _, err := receiver.ReadPacket(buf); err != ErrNoPacket {
		t.Fatalf("an empty queue should return ErrNoPacket, not %v", err)
	}
}

func TestInmemClose(t *testing.T) {
	channel := NewInmemChannel()

	gateway := channel.Join()
	node := channel.Join()

	if err := node.Close(); err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := gateway.Send([]byte("Open")); err != nil {
		t.Fatalf("err: %v", err)
	}
	if node.Received() {
		t.Fatal("a closed transceiver should not receive")
	}

	if err := node.Send([]byte("5 ACK")); err != ErrClosed {
		t.Fatalf("sending on a closed transceiver should return ErrClosed, not %v", err)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	params := DefaultParams()

	env := &envelope{Type: envelopeConfigure, Params: &params}

	data, err := env.marshal()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	decoded := new(envelope)
	if err := decoded.unmarshal(data); err != nil {
		t.Fatalf("err: %v", err)
	}

	if decoded.Type != envelopeConfigure {
		t.Fatalf("bad type: %s", decoded.Type)
	}
	if decoded.Params == nil || decoded.Params.Frequency != params.Frequency {
		t.Fatalf("bad params: %+v", decoded.Params)
	}
}
