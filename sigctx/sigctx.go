// Package sigctx provides a context that is cancelled on the first SIGINT or
// SIGTERM. A second signal kills the process the usual way.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context cancelled by SIGINT or SIGTERM.
func New() context.Context {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx
}
