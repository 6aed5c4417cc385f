package wshub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRegisterAndBroadcast(t *testing.T) {
	h := NewHub(zerolog.Nop())

	c1 := &Client{ParticipantID: "p1", RoomID: "ex1", Send: make(chan []byte, 16)}
	c2 := &Client{ParticipantID: "p2", RoomID: "ex1", Send: make(chan []byte, 16)}
	c3 := &Client{ParticipantID: "p3", RoomID: "ex1", Send: make(chan []byte, 16)}

	h.Register(c1)
	h.Register(c2)
	h.Register(c3)

	msg := ServerMessage{Type: "text", Room: "ex1", Text: "abc"}
	h.BroadcastExcept("ex1", "p1", msg)

	// c2 and c3 should receive the message, c1 should not
	select {
	case data := <-c2.Send:
		var got ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "text" || got.Text != "abc" {
			t.Fatalf("unexpected message: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive message")
	}

	select {
	case <-c3.Send:
		// expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c3 did not receive message")
	}

	select {
	case <-c1.Send:
		t.Fatal("c1 should not receive its own message")
	default:
		// expected
	}
}

func TestBroadcastScopedToRoom(t *testing.T) {
	h := NewHub(zerolog.Nop())

	c1 := &Client{ParticipantID: "p1", RoomID: "ex1", Send: make(chan []byte, 16)}
	c2 := &Client{ParticipantID: "p2", RoomID: "ex2", Send: make(chan []byte, 16)}

	h.Register(c1)
	h.Register(c2)

	h.BroadcastExcept("ex1", "other", ServerMessage{Type: "text", Text: "only ex1"})

	select {
	case <-c1.Send:
		// expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}

	select {
	case <-c2.Send:
		t.Fatal("c2 is in another room and should not receive the message")
	default:
		// expected
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub(zerolog.Nop())

	c1 := &Client{ParticipantID: "p1", RoomID: "ex1", Send: make(chan []byte, 16)}
	h.Register(c1)

	h.Unregister("ex1", "p1")

	_, ok := <-c1.Send
	if ok {
		t.Fatal("c1.Send should be closed")
	}
	if h.RoomClients("ex1") != 0 {
		t.Fatal("room should have no clients")
	}
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub(zerolog.Nop())
	// Should not panic
	h.Unregister("nope", "nobody")
}

func TestSendTo(t *testing.T) {
	h := NewHub(zerolog.Nop())

	c1 := &Client{ParticipantID: "p1", RoomID: "ex1", Send: make(chan []byte, 16)}
	h.Register(c1)

	if !h.SendTo("ex1", "p1", ServerMessage{Type: "verdict"}) {
		t.Fatal("SendTo to registered client should succeed")
	}
	select {
	case data := <-c1.Send:
		var got ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "verdict" {
			t.Fatalf("unexpected message: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}

	if h.SendTo("ex1", "gone", ServerMessage{Type: "verdict"}) {
		t.Fatal("SendTo to unknown client should report false")
	}

	h.Unregister("ex1", "p1")
	if h.SendTo("ex1", "p1", ServerMessage{Type: "verdict"}) {
		t.Fatal("SendTo after unregister should report false")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub(zerolog.Nop())

	// Channel with capacity 1
	c := &Client{ParticipantID: "p1", RoomID: "ex1", Send: make(chan []byte, 1)}
	h.Register(c)

	// Fill the channel
	c.Send <- []byte("filler")

	// This should not block — message dropped
	h.BroadcastExcept("ex1", "other", ServerMessage{Type: "text", Text: "dropped"})

	// Only the filler should be in the channel
	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}

	select {
	case <-c.Send:
		t.Fatal("should be empty after draining filler")
	default:
		// expected
	}
}
