package deploy

import (
	"fmt"
	"strings"
)

// FatalError is a condition the user has to fix (usually in the
// configuration) before running again. Nothing is retried.
type FatalError struct {
	Msg    string
	Remedy string
}

func (err *FatalError) Error() string {
	return err.FriendlyMessage()
}

// FriendlyMessage returns the message together with the remedy.
func (err *FatalError) FriendlyMessage() string {
	if err.Remedy == "" {
		return err.Msg
	}
	return err.Msg + "\n" + err.Remedy
}

func missingBucket(bucket string) *FatalError {
	return &FatalError{
		Msg:    fmt.Sprintf("Bucket %q does not exist.", bucket),
		Remedy: "Create it with `go3deploy add_bucket` and try again.",
	}
}

// SyncError reports the individual transfers that failed during a run that
// otherwise went through.
type SyncError struct {
	Failed []string
	Err    error
}

func (err *SyncError) Error() string {
	return fmt.Sprintf("%d operation(s) failed (%s): %v", len(err.Failed), strings.Join(err.Failed, ", "), err.Err)
}

func (err *SyncError) Unwrap() error {
	return err.Err
}
