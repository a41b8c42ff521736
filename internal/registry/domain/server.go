// Package domain defines the registry's entities and the repository
// contract the persistence layer implements.
package domain

import "time"

// Server is a registry entry describing a validated MCP server
// implementation. SourceURL is the globally unique key; Slug is derived
// deterministically from the repository name and unique within the registry.
type Server struct {
	ID          int64
	Name        string
	Slug        string
	Tagline     string
	Description string
	Category    string
	Tags        []string
	SourceURL   string
	Owner       string
	PackageName string // npm package name, empty when the manifest omits it
	Verified    bool
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ServerStats is the 1:1 statistics record for a Server. Installs is
// monotonic: the discovery pipeline never writes it after creation, only
// IncrementInstalls (driven by install tracking outside discovery) moves it.
type ServerStats struct {
	ServerID      int64
	Stars         int
	Forks         int
	Installs      int
	RepoUpdatedAt time.Time
}

// AggregateCounts summarizes the registry for the status surface.
type AggregateCounts struct {
	Total      int
	Verified   int
	AddedToday int
	AddedWeek  int
}
