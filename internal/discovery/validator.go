package discovery

import (
	"context"

	"github.com/mcpdex/mcpdex/internal/github"
	"github.com/mcpdex/mcpdex/internal/log"
	"github.com/mcpdex/mcpdex/internal/manifest"
	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

// IndexClient is the slice of the GitHub client the validator consumes.
type IndexClient interface {
	Searcher
	GetRepository(ctx context.Context, ref github.RepoRef) (*github.Repo, error)
	GetFileContent(ctx context.Context, ref github.RepoRef, path string) ([]byte, error)
}

// Validated carries a candidate that survived all checks, with the fetched
// metadata and manifest retained so downstream stages never re-fetch.
type Validated struct {
	Ref      github.RepoRef
	Repo     *github.Repo
	Manifest *manifest.Manifest
}

// validator runs the three per-candidate checks in order, short-circuiting
// on the first negative: registry existence, dependency signature, fork
// exclusion.
type validator struct {
	index        IndexClient
	store        domain.ServerRepository
	signature    string
	manifestPath string

	// skipExistence bypasses the registry lookup so an already-registered
	// candidate flows through to the upserter's conflict path. Used by
	// administrative reprocessing to refresh star/fork counts.
	skipExistence bool
}

// validate returns the validated candidate, or an error classifying the
// skip: errDuplicate, *RejectionError, or *FetchError.
func (v *validator) validate(ctx context.Context, ref github.RepoRef) (*Validated, error) {
	// Existence check runs against the local store only; a hit means no
	// network calls are spent on this candidate.
	if !v.skipExistence {
		if _, err := v.store.FindBySourceURL(ctx, ref.HTMLURL()); err == nil {
			log.Debug(log.CatDiscover, "candidate already registered", "candidate", ref.String())
			return nil, errDuplicate
		}
	}

	raw, err := v.index.GetFileContent(ctx, ref, v.manifestPath)
	if err != nil {
		return nil, &FetchError{Stage: "manifest", Err: err}
	}
	m, err := manifest.Parse(raw)
	if err != nil {
		return nil, &FetchError{Stage: "manifest", Err: err}
	}
	if !m.HasDependency(v.signature) {
		log.Debug(log.CatDiscover, "candidate rejected", "candidate", ref.String(), "reason", "no signature")
		return nil, &RejectionError{Reason: "no signature"}
	}

	repo, err := v.index.GetRepository(ctx, ref)
	if err != nil {
		return nil, &FetchError{Stage: "metadata", Err: err}
	}
	if repo.Fork {
		log.Debug(log.CatDiscover, "candidate rejected", "candidate", ref.String(), "reason", "is a fork")
		return nil, &RejectionError{Reason: "is a fork"}
	}

	return &Validated{Ref: ref, Repo: repo, Manifest: m}, nil
}
