// Package main provides the stockroom CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr))
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "stockroom:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps storage failures to exitSysError and everything else to
// exitUserError.
func exitCode(err error) int {
	if errors.Is(err, types.ErrStorage) {
		return exitSysError
	}
	return exitUserError
}
