// Command transcriber runs the audio transcription service.
package main

import (
	"context"
	"os"

	_ "github.com/kbukum/transcriber/storage/local"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
