package importer

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/rotisserie/eris"
)

// OutcomeKind classifies the result of processing one CSV row.
type OutcomeKind int

const (
	// Continue means the row was handled.
	Continue OutcomeKind = iota
	// Skip means the row was left out; the run goes on.
	Skip
	// Abort stops the run and rolls back every write.
	Abort
)

func (k OutcomeKind) String() string {
	switch k {
	case Continue:
		return "continue"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of a row processor.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

// Continued reports a handled row.
func Continued() Outcome {
	return Outcome{Kind: Continue}
}

// Skipped reports a row left out for the given reason.
func Skipped(reason string) Outcome {
	return Outcome{Kind: Skip, Reason: reason}
}

// Aborted reports a failure that must roll back the run.
func Aborted(err error) Outcome {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return Outcome{Kind: Abort, Reason: reason, Err: err}
}

// classify turns a row error into Skip, unless the error means the transaction
// itself can no longer be trusted.
func classify(err error, reason string) Outcome {
	if isFatal(err) {
		return Aborted(err)
	}
	return Skipped(reason)
}

func isFatal(err error) bool {
	for _, target := range []error{
		context.Canceled,
		context.DeadlineExceeded,
		sql.ErrConnDone,
		sql.ErrTxDone,
		driver.ErrBadConn,
	} {
		if errors.Is(err, target) || eris.Is(err, target) {
			return true
		}
	}
	return false
}
