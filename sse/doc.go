// Package sse streams Server-Sent Events to HTTP clients.
//
// A Hub routes events to clients by glob pattern over client ids. Job
// streams register clients as "job:<jobID>:<connID>" so a broadcast to
// "job:<jobID>:*" reaches every watcher of that job:
//
//	hub := sse.NewHub(log)
//	go hub.Run()
//	hub.Broadcast(sse.JobPattern(id), sse.Event{Type: "job", Data: payload})
//
// An Event marked Final ends the stream after it is written.
package sse
