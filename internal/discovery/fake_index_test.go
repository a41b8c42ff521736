package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcpdex/mcpdex/internal/github"
)

// fakeIndex is an in-memory IndexClient. All maps are keyed by
// "owner/name"; per-candidate call counters let tests assert the existence
// short-circuit spends no network calls.
type fakeIndex struct {
	mu sync.Mutex

	searchResults map[string][]github.RepoRef
	searchErrs    map[string]error

	repos    map[string]*github.Repo
	repoErrs map[string]error

	files    map[string][]byte
	fileErrs map[string]error

	// fileHooks run outside the lock before a file lookup; a hook that
	// blocks on the context simulates an in-flight fetch at budget expiry.
	fileHooks map[string]func(ctx context.Context) error

	fileCalls map[string]int
	repoCalls map[string]int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		searchResults: make(map[string][]github.RepoRef),
		searchErrs:    make(map[string]error),
		repos:         make(map[string]*github.Repo),
		repoErrs:      make(map[string]error),
		files:         make(map[string][]byte),
		fileErrs:      make(map[string]error),
		fileHooks:     make(map[string]func(ctx context.Context) error),
		fileCalls:     make(map[string]int),
		repoCalls:     make(map[string]int),
	}
}

// addCandidate registers a repo with the given manifest under every listed
// query.
func (f *fakeIndex) addCandidate(repo *github.Repo, manifestJSON string, queries ...string) {
	ref := repo.Ref()
	f.repos[ref.String()] = repo
	if manifestJSON != "" {
		f.files[ref.String()] = []byte(manifestJSON)
	}
	for _, q := range queries {
		f.searchResults[q] = append(f.searchResults[q], ref)
	}
}

func (f *fakeIndex) SearchRepositories(ctx context.Context, query string, perPage int) ([]github.RepoRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.searchErrs[query]; err != nil {
		return nil, err
	}
	return f.searchResults[query], nil
}

func (f *fakeIndex) GetRepository(ctx context.Context, ref github.RepoRef) (*github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repoCalls[ref.String()]++
	if err := f.repoErrs[ref.String()]; err != nil {
		return nil, err
	}
	repo, ok := f.repos[ref.String()]
	if !ok {
		return nil, github.ErrNotFound
	}
	return repo, nil
}

func (f *fakeIndex) GetFileContent(ctx context.Context, ref github.RepoRef, path string) ([]byte, error) {
	f.mu.Lock()
	f.fileCalls[ref.String()]++
	hook := f.fileHooks[ref.String()]
	err := f.fileErrs[ref.String()]
	data, ok := f.files[ref.String()]
	f.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx); hookErr != nil {
			return nil, hookErr
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, github.ErrNotFound
	}
	return data, nil
}

func (f *fakeIndex) fetchCount(ref github.RepoRef) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileCalls[ref.String()] + f.repoCalls[ref.String()]
}

// signedManifest returns a package.json declaring the protocol SDK.
func signedManifest(name string) string {
	return fmt.Sprintf(`{"name": %q, "dependencies": {"%s": "^1.0.0"}}`, name, DefaultSignaturePackage)
}
