package discovery

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcpdex/mcpdex/internal/github"
	"github.com/mcpdex/mcpdex/internal/log"
	"github.com/mcpdex/mcpdex/internal/pubsub"
	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

const (
	// DefaultSignaturePackage is the protocol SDK whose presence in a
	// manifest marks a repository as an MCP server implementation.
	DefaultSignaturePackage = "@modelcontextprotocol/sdk"

	// DefaultManifestPath is where the dependency manifest lives.
	DefaultManifestPath = "package.json"

	// DefaultWorkers bounds per-candidate concurrency. Kept small to
	// respect GitHub's secondary rate limits.
	DefaultWorkers = 4

	// DefaultBudget is the wall-clock budget for a whole run.
	DefaultBudget = 5 * time.Minute

	// DefaultPerPage is the page size for search queries.
	DefaultPerPage = 100
)

// Config holds discovery run configuration.
type Config struct {
	Queries          []string
	SignaturePackage string
	ManifestPath     string
	PerPage          int
	Workers          int
	Budget           time.Duration

	// Reprocess bypasses the existence short-circuit and refreshes
	// star/fork counts for already-registered entries. Install counts are
	// never touched. Used for administrative reprocessing only.
	Reprocess bool
}

func (c Config) withDefaults() Config {
	if len(c.Queries) == 0 {
		c.Queries = DefaultQueries
	}
	if c.SignaturePackage == "" {
		c.SignaturePackage = DefaultSignaturePackage
	}
	if c.ManifestPath == "" {
		c.ManifestPath = DefaultManifestPath
	}
	if c.PerPage <= 0 {
		c.PerPage = DefaultPerPage
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Budget <= 0 {
		c.Budget = DefaultBudget
	}
	return c
}

// Orchestrator drives a discovery run: aggregate once, then fan candidates
// out to a bounded worker pool running the validate→normalize→upsert chain,
// folding every outcome into a single report.
type Orchestrator struct {
	index  IndexClient
	store  domain.ServerRepository
	broker *pubsub.Broker[ProgressEvent]
	tracer trace.Tracer

	// mu guards cfg.Queries, which the serve command swaps on config
	// hot-reload. The rest of cfg is immutable after construction.
	mu  sync.Mutex
	cfg Config
}

// NewOrchestrator creates an orchestrator. The index and store are injected
// so runs never share implicit client state; the store connection's
// lifetime is the caller's responsibility.
func NewOrchestrator(index IndexClient, store domain.ServerRepository, cfg Config) *Orchestrator {
	return &Orchestrator{
		index:  index,
		store:  store,
		cfg:    cfg.withDefaults(),
		broker: pubsub.NewBroker[ProgressEvent](),
		tracer: otel.Tracer("mcpdex/discovery"),
	}
}

// Events returns the broker publishing run progress.
func (o *Orchestrator) Events() *pubsub.Broker[ProgressEvent] {
	return o.broker
}

// publish emits a progress event typed by its stage.
func (o *Orchestrator) publish(ev ProgressEvent) {
	o.broker.Publish(pubsub.EventType(ev.Stage), ev)
}

// UpdateQueries replaces the query list for subsequent runs. An empty
// list restores the defaults. In-flight runs keep the list they started
// with.
func (o *Orchestrator) UpdateQueries(queries []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	o.cfg.Queries = append([]string(nil), queries...)
}

func (o *Orchestrator) currentQueries() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg.Queries
}

// Run executes one discovery pass and returns its report. Per-candidate
// failures are folded into the report; the only error return is
// *FatalStoreError when the registry store is unreachable. The run is
// bounded by the configured budget and by ctx; on expiry remaining
// candidates are abandoned and the report is marked partial.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()[:8]
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Budget)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "discovery.run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	queries := o.currentQueries()
	log.Info(log.CatDiscover, "run started", "runID", runID, "queries", len(queries), "workers", o.cfg.Workers)
	o.publish(ProgressEvent{RunID: runID, Stage: StageRunStarted})

	acc := newReportAccumulator(runID, start)

	// A dead store fails the whole run up front; nothing else escalates.
	// A ping broken only by cancellation is a partial run, not a store
	// failure.
	if err := o.store.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			acc.markPartial()
			log.Warn(log.CatDiscover, "run cancelled before start", "runID", runID)
			return acc.finalize(time.Since(start)), nil
		}
		fatal := &FatalStoreError{Err: err}
		span.SetStatus(codes.Error, fatal.Error())
		log.ErrorErr(log.CatDiscover, "run aborted", fatal, "runID", runID)
		return nil, fatal
	}

	candidates := aggregate(ctx, o.index, queries, o.cfg.PerPage, acc)
	acc.setDiscovered(len(candidates))
	span.SetAttributes(attribute.Int("run.discovered", len(candidates)))
	o.publish(ProgressEvent{RunID: runID, Stage: StageAggregated, Count: len(candidates)})

	o.processAll(ctx, runID, candidates, acc)

	if ctx.Err() != nil {
		acc.markPartial()
		log.Warn(log.CatDiscover, "run budget exhausted", "runID", runID)
	}

	report := acc.finalize(time.Since(start))
	span.SetAttributes(
		attribute.Int("run.added", report.Added),
		attribute.Int("run.duplicates", report.DuplicateSkipped),
		attribute.Int("run.failed", report.Failed),
		attribute.Int("run.abandoned", report.Abandoned),
		attribute.Bool("run.partial", report.Partial),
	)

	log.Info(log.CatDiscover, "run finished",
		"runID", runID,
		"discovered", report.Discovered,
		"added", report.Added,
		"duplicates", report.DuplicateSkipped,
		"failed", report.Failed,
		"abandoned", report.Abandoned,
		"partial", report.Partial,
		"duration", report.Duration)
	o.publish(ProgressEvent{RunID: runID, Stage: StageRunFinished})

	return report, nil
}

// processAll fans candidates out to the worker pool and blocks until every
// worker drains or the context expires.
func (o *Orchestrator) processAll(ctx context.Context, runID string, candidates []github.RepoRef, acc *reportAccumulator) {
	v := &validator{
		index:         o.index,
		store:         o.store,
		signature:     o.cfg.SignaturePackage,
		manifestPath:  o.cfg.ManifestPath,
		skipExistence: o.cfg.Reprocess,
	}
	u := &upserter{
		store:                  o.store,
		refreshStatsOnConflict: o.cfg.Reprocess,
	}

	jobs := make(chan github.RepoRef)

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error(log.CatDiscover, "worker panic recovered",
						"runID", runID, "panic", r, "stack", string(debug.Stack()))
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return
				case ref, ok := <-jobs:
					if !ok {
						return
					}
					o.processCandidate(ctx, runID, ref, v, u, acc)
				}
			}
		}()
	}

	// Feed candidates until done or the budget expires; abandoning the
	// remainder is the documented partial-run behavior.
feed:
	for _, ref := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- ref:
		}
	}
	close(jobs)

	wg.Wait()
}

// processCandidate runs the per-candidate chain and records exactly one
// outcome: added, duplicate-skipped, or failed with a reason.
func (o *Orchestrator) processCandidate(ctx context.Context, runID string, ref github.RepoRef, v *validator, u *upserter, acc *reportAccumulator) {
	ctx, span := o.tracer.Start(ctx, "discovery.candidate",
		trace.WithAttributes(attribute.String("candidate", ref.String())))
	defer span.End()

	outcome, reason := o.runChain(ctx, ref, v, u, acc)

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if reason != "" {
		span.SetAttributes(attribute.String("reason", reason))
	}
	o.publish(ProgressEvent{
		RunID:     runID,
		Stage:     StageCandidate,
		Candidate: ref,
		Outcome:   outcome,
		Reason:    reason,
	})
}

func (o *Orchestrator) runChain(ctx context.Context, ref github.RepoRef, v *validator, u *upserter, acc *reportAccumulator) (Outcome, string) {
	validated, err := v.validate(ctx, ref)
	if err != nil {
		return o.classify(ctx, ref, err, acc)
	}

	server, stats := normalize(validated, time.Now())
	if err := u.upsert(ctx, server, stats); err != nil {
		return o.classify(ctx, ref, err, acc)
	}

	acc.recordAdded()
	return OutcomeAdded, ""
}

// classify folds a per-candidate error into the report. Duplicates and
// rejections are normal skip outcomes, a candidate cut off by the expiring
// run context is abandoned; everything else is a failure with its reason
// retained.
func (o *Orchestrator) classify(ctx context.Context, ref github.RepoRef, err error, acc *reportAccumulator) (Outcome, string) {
	if errors.Is(err, errDuplicate) {
		acc.recordDuplicate()
		return OutcomeDuplicate, ""
	}

	var rejection *RejectionError
	if errors.As(err, &rejection) {
		acc.recordFailed(ref.String(), rejection.Reason)
		return OutcomeFailed, rejection.Reason
	}

	if ctx.Err() != nil {
		acc.recordAbandoned()
		return OutcomeAbandoned, ""
	}

	log.ErrorErr(log.CatDiscover, "candidate failed", err, "candidate", ref.String())
	acc.recordFailed(ref.String(), err.Error())
	return OutcomeFailed, err.Error()
}
