package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger: timestamps as "15:04:05.00", messages
// below level dropped.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the wall time of one CLI operation. Not safe for
// concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time, e.g.
//
//	14:32:01.45 INFO Clustered entities=1200 elapsed=1.234s
func (p *progress) done(msg string, keyvals ...any) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}
