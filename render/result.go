package render

import (
	"time"

	"github.com/pagecraft-io/pagestream/metrics"
	"github.com/pagecraft-io/pagestream/types"
)

// Outcome is the terminal disposition of a render session.
type Outcome string

// Session outcomes.
const (
	OutcomeComplete         Outcome = "complete"
	OutcomeGenerationError  Outcome = "generation_error"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeCanceled         Outcome = "canceled"
)

// Exit codes, one per outcome. A completed session that failed to publish
// exits with the publish code so automation notices the missing artifact.
const (
	ExitOK               = 0
	ExitGenerationError  = 1
	ExitTransportFailure = 2
	ExitPublishFailure   = 3
	ExitCanceled         = 130
)

// Result is the terminal report of one render session.
type Result struct {
	PageID  string
	Outcome Outcome
	// Message carries the failure detail for non-complete outcomes.
	Message string
	// PageURL is the canonical page path. On completion the server-provided
	// URL wins over the derived one.
	PageURL string
	// HTML is the final serialized page, including the error panel for
	// failed sessions.
	HTML string
	// StoragePath is where the page was published, when a publisher ran.
	StoragePath string
	// PublishErr is set when the session completed but publishing failed.
	PublishErr error

	Duration    time.Duration
	BlocksTotal int
	BlocksDone  int
	Reconnects  int
	Metrics     metrics.Snapshot
}

// SessionStatus maps the outcome back to the session status vocabulary.
func (r *Result) SessionStatus() types.SessionStatus {
	if r.Outcome == OutcomeComplete {
		return types.SessionComplete
	}
	return types.SessionError
}

// ExitCode maps the outcome to the process exit code.
func (r *Result) ExitCode() int {
	switch r.Outcome {
	case OutcomeComplete:
		if r.PublishErr != nil {
			return ExitPublishFailure
		}
		return ExitOK
	case OutcomeGenerationError:
		return ExitGenerationError
	case OutcomeTransportFailure:
		return ExitTransportFailure
	case OutcomeCanceled:
		return ExitCanceled
	default:
		return ExitGenerationError
	}
}

// ProgressUpdate is a point-in-time view of session progress, emitted to
// the optional progress observer after every handled event.
type ProgressUpdate struct {
	SessionStatus types.SessionStatus
	BlocksTotal   int
	BlocksDone    int
	ImagesTotal   int
	ImagesReady   int
	Reconnects    int
	Message       string
}
