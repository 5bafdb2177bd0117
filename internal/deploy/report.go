package deploy

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// reporter prints per-file progress: a log line per file when verbose,
// a single mark per file otherwise.
type reporter struct {
	out     io.Writer
	verbose bool
	marks   int
}

func (rp *reporter) say(msg, mark string) {
	if rp.verbose {
		log.Info(msg)
		return
	}

	fmt.Fprint(rp.out, mark)
	if f, ok := rp.out.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	rp.marks++
}

func (rp *reporter) fail(msg string, err error) {
	if !rp.verbose {
		rp.say("", "F")
	}
	log.WithError(err).Warn(msg)
}

// done terminates the line of marks, if any was printed.
func (rp *reporter) done() {
	if rp.marks > 0 {
		fmt.Fprintln(rp.out)
		rp.marks = 0
	}
}
