package importer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type level int

const (
	levelSuccess level = iota
	levelNotice
	levelWarning
	levelError
	levelHeading
)

// Reporter writes operator status lines in the style of a management command and
// mirrors them to the structured log.
type Reporter struct {
	out    io.Writer
	logger *logrus.Logger
	styles map[level]*color.Color
}

// NewReporter builds a reporter writing to out (stdout when nil).
func NewReporter(out io.Writer, logger *logrus.Logger, noColor bool) *Reporter {
	if out == nil {
		out = os.Stdout
	}

	styles := map[level]*color.Color{
		levelSuccess: color.New(color.FgGreen),
		levelNotice:  color.New(color.FgCyan),
		levelWarning: color.New(color.FgYellow),
		levelError:   color.New(color.FgRed, color.Bold),
		levelHeading: color.New(color.FgCyan, color.Bold),
	}
	if noColor {
		for _, style := range styles {
			style.DisableColor()
		}
	}

	return &Reporter{out: out, logger: logger, styles: styles}
}

// Success reports a completed step.
func (r *Reporter) Success(format string, args ...any) {
	r.write(levelSuccess, format, args...)
}

// Notice reports something unusual but expected.
func (r *Reporter) Notice(format string, args ...any) {
	r.write(levelNotice, format, args...)
}

// Warning reports a skipped row or ignored value.
func (r *Reporter) Warning(format string, args ...any) {
	r.write(levelWarning, format, args...)
}

// Error reports a row that failed.
func (r *Reporter) Error(format string, args ...any) {
	r.write(levelError, format, args...)
}

// Heading introduces a processing phase.
func (r *Reporter) Heading(format string, args ...any) {
	r.write(levelHeading, format, args...)
}

func (r *Reporter) write(lvl level, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	_, _ = r.styles[lvl].Fprintln(r.out, message)

	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("component", "importer")
	switch lvl {
	case levelWarning:
		entry.Warn(message)
	case levelError:
		entry.Error(message)
	default:
		entry.Debug(message)
	}
}
