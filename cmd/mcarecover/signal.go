package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a channel closed on SIGINT or SIGTERM.
// The region file being processed is finished before the batch stops.
func setupSignalHandler() <-chan struct{} {
	shutdown := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived signal: %v\n", sig)
		fmt.Fprintf(os.Stderr, "Finishing current region file before stopping...\n")
		close(shutdown)

		// A second signal falls back to the default handler and kills the process
		signal.Stop(sigChan)
	}()

	return shutdown
}
