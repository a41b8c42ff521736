package testutil

import (
	"time"

	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

// ServerOption customizes a test server built by NewServer.
type ServerOption func(*domain.Server)

// WithCategory sets the category.
func WithCategory(category string) ServerOption {
	return func(s *domain.Server) { s.Category = category }
}

// WithSourceURL sets the canonical source URL.
func WithSourceURL(url string) ServerOption {
	return func(s *domain.Server) { s.SourceURL = url }
}

// WithVerified marks the server verified.
func WithVerified() ServerOption {
	return func(s *domain.Server) { s.Verified = true }
}

// WithCreatedAt sets the creation timestamp.
func WithCreatedAt(at time.Time) ServerOption {
	return func(s *domain.Server) {
		s.CreatedAt = at
		s.UpdatedAt = at
	}
}

// NewServer builds a realistic registry entry for tests. The slug doubles
// as the name and the acme owner namespace keeps URLs unique per slug.
func NewServer(slug string, opts ...ServerOption) *domain.Server {
	now := time.Now()
	s := &domain.Server{
		Name:        slug,
		Slug:        slug,
		Tagline:     "test MCP server",
		Description: "test MCP server",
		Category:    "custom",
		Tags:        []string{"mcp"},
		SourceURL:   "https://github.com/acme/" + slug,
		Owner:       "acme",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
