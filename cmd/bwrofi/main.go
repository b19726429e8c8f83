// Command bwrofi picks Bitwarden items through rofi and copies or types
// their credentials.
//
// Usage:
//
//	bwrofi [flags] [-- rofi args...]
//	bwrofi lock
//	bwrofi unlock
//	bwrofi version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "bwrofi:", err)
		}
		os.Exit(1)
	}
}
