// Package notify fans job updates out to listeners: NATS subscribers on
// transcriber.jobs.<status> and SSE clients watching a single job.
// Both are job.Observer implementations.
package notify
