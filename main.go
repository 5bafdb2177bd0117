package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alexaandru/go3deploy/internal/config"
	"github.com/alexaandru/go3deploy/internal/deploy"
)

// Exit codes
const (
	Success = iota
	SetupFailed
	BucketMissing
	CmdLineOptionError
	SyncFailed
)

// setupError marks failures to get going at all (credentials, session).
type setupError struct {
	err error
}

func (e setupError) Error() string {
	return e.err.Error()
}

func (e setupError) Unwrap() error {
	return e.err
}

// flagError marks command line parsing failures.
type flagError struct {
	err error
}

func (e flagError) Error() string {
	return e.err.Error()
}

type friendly interface {
	FriendlyMessage() string
}

// exitCode maps the error returned by a command to the process exit code.
func exitCode(err error) int {
	var (
		fatal    *deploy.FatalError
		syncErr  *deploy.SyncError
		cfgErr   config.FriendlyError
		setupErr setupError
		flagErr  flagError
	)

	switch {
	case err == nil:
		return Success
	case errors.As(err, &fatal):
		return BucketMissing
	case errors.As(err, &cfgErr), errors.As(err, &flagErr):
		return CmdLineOptionError
	case errors.As(err, &setupErr):
		return SetupFailed
	case errors.As(err, &syncErr):
		return SyncFailed
	default:
		return SyncFailed
	}
}

// report prints err the way the user should see it.
func report(w io.Writer, err error) {
	var f friendly
	if errors.As(err, &f) {
		fmt.Fprintln(w, f.FriendlyMessage())
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		report(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
