// Package discovery implements the repository discovery and ingestion
// pipeline: it searches GitHub for candidate MCP server implementations,
// validates each candidate against the protocol SDK dependency signature,
// normalizes its metadata, and idempotently upserts it into the registry.
package discovery

import (
	"context"
	"sort"

	"github.com/mcpdex/mcpdex/internal/github"
	"github.com/mcpdex/mcpdex/internal/log"
)

// DefaultQueries are the fixed search angles for finding MCP server
// implementations: dependency-based, topic-based, and naming-based.
var DefaultQueries = []string{
	`"@modelcontextprotocol/sdk" in:file filename:package.json`,
	`topic:mcp-server`,
	`topic:model-context-protocol`,
	`mcp-server in:name`,
}

// Searcher is the slice of the GitHub client the aggregator consumes.
type Searcher interface {
	SearchRepositories(ctx context.Context, query string, perPage int) ([]github.RepoRef, error)
}

// aggregate runs every query against the index and merges results into a
// deduplicated candidate set. A failing query is recorded on the report as
// a run-level error and never aborts aggregation. The returned slice is
// sorted for deterministic processing order.
func aggregate(ctx context.Context, searcher Searcher, queries []string, perPage int, acc *reportAccumulator) []github.RepoRef {
	seen := make(map[string]github.RepoRef)

	for _, query := range queries {
		refs, err := searcher.SearchRepositories(ctx, query, perPage)
		if err != nil {
			log.ErrorErr(log.CatDiscover, "search query failed", err, "query", query)
			acc.recordRunError("query failed: " + query + ": " + err.Error())
			continue
		}
		for _, ref := range refs {
			seen[ref.String()] = ref
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	candidates := make([]github.RepoRef, 0, len(keys))
	for _, k := range keys {
		candidates = append(candidates, seen[k])
	}

	log.Info(log.CatDiscover, "aggregation complete", "queries", len(queries), "candidates", len(candidates))
	return candidates
}
