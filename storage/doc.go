// Package storage defines the object store that upload intake writes to and
// a component that owns the configured backend.
//
// Backends register themselves by provider name; import the backend package
// for its side effect:
//
//	import _ "github.com/kbukum/transcriber/storage/local"
//
//	storage:
//	  provider: "local"
//	  base_path: "/var/lib/transcriber/uploads"
package storage
