// Package realtime fans store and catalog events out to connected clients.
//
// One Feed bridges the in-process event bus to two transports: a WebSocket
// hub for socket clients and per-connection channels for SSE clients. Every
// store.* and catalog.* event is serialized once and delivered to everyone
// listening. Slow consumers drop messages rather than stall the bus; the
// event name travels inside the payload, not as an SSE event type.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/tradeyard/tradeyard/pkg/event"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/metrics"
	"github.com/tradeyard/tradeyard/pkg/sse"
	"github.com/tradeyard/tradeyard/pkg/ws"
)

// heartbeatPeriod keeps idle SSE connections alive through proxies that cut
// silent streams, so it stays below the common 30s idle timeout.
const heartbeatPeriod = 25 * time.Second

var feedClients = metrics.NewGauge("tradeyard", "realtime_clients",
	"Connected realtime clients by transport.", []string{"transport"})

// Envelope is the wire shape of one feed message.
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Feed owns the WebSocket hub and the SSE subscriber registry.
type Feed struct {
	hub *ws.Hub

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewFeed returns an unstarted Feed.
func NewFeed() *Feed {
	return &Feed{hub: ws.NewHub(), subs: make(map[chan []byte]struct{})}
}

// Start runs the hub loop and hooks the feed into the event bus.
// Call once at boot.
func (f *Feed) Start() {
	go f.hub.Run()
	event.Listen("store.*", f.forward)
	event.Listen("catalog.*", f.forward)
}

// forward serializes one bus event and hands it to both transports.
func (f *Feed) forward(name string, payload interface{}) {
	msg, err := json.Marshal(Envelope{Event: name, Payload: payload})
	if err != nil {
		logger.Error("realtime: marshal event", "event", name, "error", err)
		return
	}

	select {
	case f.hub.Broadcast <- msg:
	default:
		logger.Warn("realtime: hub backlog full, dropping", "event", name)
	}

	f.mu.Lock()
	for ch := range f.subs {
		select {
		case ch <- msg:
		default:
			// Subscriber is not keeping up; it misses this message.
		}
	}
	f.mu.Unlock()
}

// Subscribe registers a new SSE subscriber channel.
func (f *Feed) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	feedClients.WithLabelValues("sse").Inc()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (f *Feed) Unsubscribe(ch chan []byte) {
	f.mu.Lock()
	_, ok := f.subs[ch]
	if ok {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()
	if ok {
		feedClients.WithLabelValues("sse").Dec()
	}
}

// Subscribers reports how many SSE clients are attached.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// ServeWS upgrades the request and attaches the client to the hub.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws.Upgrade(w, r, f.hub)
}

// ServeSSE streams feed messages to the client until it disconnects.
func (f *Feed) ServeSSE(w http.ResponseWriter, r *http.Request) {
	stream := sse.New(w, r)
	if stream == nil {
		return
	}

	ch := f.Subscribe()
	defer f.Unsubscribe(ch)

	stream.Comment("connected")
	heartbeat := time.NewTicker(heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			stream.Comment("keep-alive")
			if stream.IsClosed() {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			stream.SendRaw(string(msg))
			if stream.IsClosed() {
				return
			}
		}
	}
}
