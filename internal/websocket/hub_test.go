package websocket

import (
	"context"
	"testing"
	"time"
)

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &Client{
		ID:   "c1",
		Room: LiveFeed,
		Send: make(chan *Message, 4),
		Hub:  hub,
	}

	hub.Register <- client

	deadline := time.After(time.Second)
	for hub.GetRoomSize(LiveFeed) != 1 {
		select {
		case <-deadline:
			t.Fatal("client was not registered in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.BroadcastToRoom(LiveFeed, &Message{Type: "spin_recorded", Payload: map[string]interface{}{"session_id": "s1"}})

	select {
	case msg := <-client.Send:
		if msg.Type != "spin_recorded" {
			t.Errorf("message type = %q, want spin_recorded", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast message not delivered")
	}
}

func TestHubRoomIsolation(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	live := &Client{ID: "live", Room: LiveFeed, Send: make(chan *Message, 4), Hub: hub}
	other := &Client{ID: "other", Room: "session-a", Send: make(chan *Message, 4), Hub: hub}

	hub.Register <- live
	hub.Register <- other

	deadline := time.After(time.Second)
	for hub.GetRoomSize(LiveFeed) != 1 || hub.GetRoomSize("session-a") != 1 {
		select {
		case <-deadline:
			t.Fatal("clients were not registered in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.BroadcastToRoom("session-a", &Message{Type: "spin_recorded"})

	select {
	case <-other.Send:
	case <-time.After(time.Second):
		t.Fatal("room broadcast not delivered")
	}

	select {
	case msg := <-live.Send:
		t.Errorf("live feed received a session-scoped message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
