package discovery

import "github.com/mcpdex/mcpdex/internal/github"

// Stage identifies where in the run a progress event fired.
type Stage string

const (
	StageRunStarted  Stage = "run_started"
	StageAggregated  Stage = "aggregated"
	StageCandidate   Stage = "candidate"
	StageRunFinished Stage = "run_finished"
)

// Outcome classifies a processed candidate.
type Outcome string

const (
	OutcomeAdded     Outcome = "added"
	OutcomeDuplicate Outcome = "duplicate_skipped"
	OutcomeFailed    Outcome = "failed"

	// OutcomeAbandoned marks a candidate cut off by the expiring run
	// budget or a cancellation. Reported separately from failures.
	OutcomeAbandoned Outcome = "abandoned"
)

// ProgressEvent is published on the orchestrator's broker as a run
// advances. Subscribers (the serve command's log tee, tests) receive one
// event per candidate plus run lifecycle markers.
type ProgressEvent struct {
	RunID     string
	Stage     Stage
	Candidate github.RepoRef
	Outcome   Outcome
	Reason    string
	Count     int // candidate count for StageAggregated
}
