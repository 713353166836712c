package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mathdrill/internal/logger"
	"mathdrill/internal/service"
)

func TestEventsStream(t *testing.T) {
	hub := service.NewHub(logger.Nop())
	h := NewEventsHandler(hub, logger.Nop())
	server := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(service.Event{Type: service.EventAttemptRecorded, SessionID: "s1", Correct: true})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if lines[0] != "event: message" {
		t.Errorf("first line = %q", lines[0])
	}
	var e service.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &e); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if e.Type != service.EventAttemptRecorded || e.SessionID != "s1" || !e.Correct {
		t.Errorf("event = %+v", e)
	}
}

func TestEventsStreamUnsubscribesOnDisconnect(t *testing.T) {
	hub := service.NewHub(logger.Nop())
	h := NewEventsHandler(hub, logger.Nop())
	server := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for hub.Subscribers() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription leaked after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
