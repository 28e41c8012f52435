// Package kernel assembles the HTTP handler for the Tradeyard API.
//
// It owns the global middleware stack and delegates route registration to
// app/routes. Everything request-scoped (auth, store context, role gates)
// is attached per route group, not here.
package kernel

import (
	"net/http"
	"time"

	"github.com/tradeyard/tradeyard/app/routes"
	"github.com/tradeyard/tradeyard/pkg/middleware"
	"github.com/tradeyard/tradeyard/pkg/reqid"
	"github.com/tradeyard/tradeyard/pkg/router"
)

// Handler builds the full API handler.
//
// Global middleware stack (outermost → innermost):
//  1. Recovery     — catches panics before they kill the goroutine
//  2. Request ID   — inject unique ID before anything logs
//  3. Logger       — logs method, path, status and request_id
//  4. CORS         — set CORS headers, answer preflights
//  5. Rate limiter — reject abusers early
//
// Request metrics are registered inside routes.RegisterAPI together with the
// /metrics endpoint, so a bare router wired straight to RegisterAPI (as the
// route tests do) still counts requests.
//
// The error is RegisterAPI's: building the GraphQL schema can fail.
func Handler() (http.Handler, error) {
	r := router.New()

	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(300, time.Minute))

	if err := routes.RegisterAPI(r); err != nil {
		return nil, err
	}
	return r.Handler(), nil
}
