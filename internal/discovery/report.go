package discovery

import (
	"fmt"
	"sync"
	"time"
)

// maxReportErrors bounds the error list carried by a report. Overflow is
// summarized by a trailing "... and N more" entry at finalization.
const maxReportErrors = 25

// Report summarizes a discovery run.
type Report struct {
	RunID            string        `json:"run_id"`
	Discovered       int           `json:"discovered"`
	Processed        int           `json:"processed"`
	Added            int           `json:"added"`
	DuplicateSkipped int           `json:"duplicate_skipped"`
	Failed           int           `json:"failed"`
	Abandoned        int           `json:"abandoned"`
	Errors           []string      `json:"errors,omitempty"`
	Partial          bool          `json:"partial"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
}

// reportAccumulator collects per-candidate outcomes from concurrent workers.
// It is the only state shared across workers; every mutation takes the lock.
type reportAccumulator struct {
	mu       sync.Mutex
	report   Report
	overflow int
}

func newReportAccumulator(runID string, startedAt time.Time) *reportAccumulator {
	return &reportAccumulator{
		report: Report{RunID: runID, StartedAt: startedAt},
	}
}

func (a *reportAccumulator) setDiscovered(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Discovered = n
}

func (a *reportAccumulator) recordAdded() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Processed++
	a.report.Added++
}

func (a *reportAccumulator) recordDuplicate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Processed++
	a.report.DuplicateSkipped++
}

func (a *reportAccumulator) recordFailed(candidate, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Processed++
	a.report.Failed++
	a.appendError(fmt.Sprintf("%s: %s", candidate, reason))
}

// recordAbandoned counts a candidate whose processing was cut off by the
// run budget or cancellation. Kept out of the failed bucket so failure
// counts stay meaningful on partial runs.
func (a *reportAccumulator) recordAbandoned() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Processed++
	a.report.Abandoned++
}

// recordRunError appends a run-level error (e.g. a failed search query)
// without counting a candidate as processed.
func (a *reportAccumulator) recordRunError(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.appendError(msg)
}

func (a *reportAccumulator) appendError(msg string) {
	if len(a.report.Errors) >= maxReportErrors {
		a.overflow++
		return
	}
	a.report.Errors = append(a.report.Errors, msg)
}

func (a *reportAccumulator) markPartial() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Partial = true
}

// finalize stamps the duration and returns the finished report.
func (a *reportAccumulator) finalize(duration time.Duration) *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.overflow > 0 {
		a.report.Errors = append(a.report.Errors, fmt.Sprintf("... and %d more", a.overflow))
	}
	a.report.Duration = duration
	report := a.report
	return &report
}
