package realtime

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradeyard/tradeyard/pkg/event"
)

func newStartedFeed(t *testing.T) *Feed {
	t.Helper()
	event.Flush()
	t.Cleanup(event.Flush)
	f := NewFeed()
	f.Start()
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFeedForwardsMatchingEvents(t *testing.T) {
	f := newStartedFeed(t)
	ch := f.Subscribe()
	defer f.Unsubscribe(ch)

	event.Fire("catalog.product.created", map[string]string{"storeId": "s1", "productId": "p1"})

	select {
	case msg := <-ch:
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Event != "catalog.product.created" {
			t.Errorf("event = %q", env.Event)
		}
		payload, ok := env.Payload.(map[string]interface{})
		if !ok || payload["productId"] != "p1" {
			t.Errorf("payload = %#v", env.Payload)
		}
	default:
		t.Fatal("no message forwarded")
	}
}

func TestFeedIgnoresUnrelatedEvents(t *testing.T) {
	f := newStartedFeed(t)
	ch := f.Subscribe()
	defer f.Unsubscribe(ch)

	event.Fire("staff.role.assigned", map[string]string{"storeId": "s1"})

	if len(ch) != 0 {
		t.Fatalf("staff event leaked into the public feed")
	}
}

func TestServeSSEDeliversAndCleansUp(t *testing.T) {
	f := newStartedFeed(t)
	srv := httptest.NewServer(http.HandlerFunc(f.ServeSSE))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	waitFor(t, "subscription", func() bool { return f.Subscribers() == 1 })
	event.Fire("store.updated", "store-1")

	var data string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if data == "" {
		t.Fatal("no data line received")
	}

	var env Envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Event != "store.updated" || env.Payload != "store-1" {
		t.Errorf("envelope = %+v", env)
	}

	resp.Body.Close()
	waitFor(t, "unsubscribe", func() bool { return f.Subscribers() == 0 })
}

func TestServeWSBroadcasts(t *testing.T) {
	f := newStartedFeed(t)
	srv := httptest.NewServer(http.HandlerFunc(f.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration runs through the hub loop, so fire until one broadcast
	// lands on the registered client.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				event.Fire("catalog.category.deleted", map[string]string{"categoryId": "c1"})
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Event != "catalog.category.deleted" {
		t.Errorf("event = %q", env.Event)
	}
}
