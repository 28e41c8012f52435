// Package event provides a simple synchronous/async event dispatcher.
//
// Catalog mutations fire events like "catalog.product.created"; feeds and
// jobs subscribe to exact names or to a prefix wildcard:
//
//	event.Listen("catalog.*", func(name string, payload interface{}) { ... })
//	event.Fire("catalog.product.created", product)
package event

import (
	"strings"
	"sync"
)

// Handler is a function that receives the fired event's name and payload.
type Handler func(event string, payload interface{})

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
)

// Listen registers a handler for the given event name. A name ending in
// ".*" subscribes to every event sharing the prefix.
func Listen(event string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[event] = append(handlers[event], handler)
}

func matching(event string) []Handler {
	mu.RLock()
	defer mu.RUnlock()

	var hs []Handler
	hs = append(hs, handlers[event]...)
	for pattern, ph := range handlers {
		if strings.HasSuffix(pattern, ".*") && strings.HasPrefix(event, pattern[:len(pattern)-1]) {
			hs = append(hs, ph...)
		}
	}
	return hs
}

// Fire dispatches an event synchronously to all matching listeners.
func Fire(event string, payload interface{}) {
	for _, h := range matching(event) {
		h(event, payload)
	}
}

// FireAsync dispatches the event to all matching listeners concurrently.
// It returns immediately without waiting for handlers to complete.
func FireAsync(event string, payload interface{}) {
	for _, h := range matching(event) {
		go h(event, payload)
	}
}

// Flush removes all listeners (useful in tests).
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
