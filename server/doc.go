// Package server runs the Gin HTTP server behind an h2c handler and a
// net/http middleware chain, as a lifecycle component.
//
// Middleware (server/middleware): RequestID, Recovery, CORS, BodySizeLimit
// and RequestLogger run around every route; RateLimit is a Gin handler for
// the routes that need it.
//
// Endpoints (server/endpoint): /health, /ready, /alive and /version.
package server
