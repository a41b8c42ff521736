package sqlite

import (
	"encoding/json"
	"time"

	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

// ServerModel represents the database row for the servers table.
// Fields map directly to SQL columns with Unix timestamps for time values.
type ServerModel struct {
	ID          int64
	Name        string
	Slug        string
	Tagline     string
	Description string
	Category    string
	Tags        *string // nullable, JSON encoded
	SourceURL   string
	Owner       string
	PackageName *string // nullable
	Verified    bool
	Featured    bool
	CreatedAt   int64 // Unix timestamp
	UpdatedAt   int64 // Unix timestamp
}

// StatsModel represents the database row for the server_stats table.
type StatsModel struct {
	ServerID      int64
	Stars         int
	Forks         int
	Installs      int
	RepoUpdatedAt *int64 // Unix timestamp, nullable
}

// toServerModel converts a domain Server entity to a database ServerModel.
func toServerModel(s *domain.Server) *ServerModel {
	m := &ServerModel{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Tagline:     s.Tagline,
		Description: s.Description,
		Category:    s.Category,
		SourceURL:   s.SourceURL,
		Owner:       s.Owner,
		Verified:    s.Verified,
		Featured:    s.Featured,
		CreatedAt:   s.CreatedAt.Unix(),
		UpdatedAt:   s.UpdatedAt.Unix(),
	}
	if len(s.Tags) > 0 {
		if tagsJSON, err := json.Marshal(s.Tags); err == nil {
			tags := string(tagsJSON)
			m.Tags = &tags
		}
	}
	if s.PackageName != "" {
		pkg := s.PackageName
		m.PackageName = &pkg
	}
	return m
}

// toDomain converts a database ServerModel to a domain Server entity.
func (m *ServerModel) toDomain() *domain.Server {
	s := &domain.Server{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Tagline:     m.Tagline,
		Description: m.Description,
		Category:    m.Category,
		SourceURL:   m.SourceURL,
		Owner:       m.Owner,
		Verified:    m.Verified,
		Featured:    m.Featured,
		CreatedAt:   time.Unix(m.CreatedAt, 0),
		UpdatedAt:   time.Unix(m.UpdatedAt, 0),
	}
	if m.Tags != nil {
		_ = json.Unmarshal([]byte(*m.Tags), &s.Tags)
	}
	if m.PackageName != nil {
		s.PackageName = *m.PackageName
	}
	return s
}

// toStatsModel converts a domain ServerStats to a database StatsModel.
func toStatsModel(s *domain.ServerStats) *StatsModel {
	m := &StatsModel{
		ServerID: s.ServerID,
		Stars:    s.Stars,
		Forks:    s.Forks,
		Installs: s.Installs,
	}
	if !s.RepoUpdatedAt.IsZero() {
		t := s.RepoUpdatedAt.Unix()
		m.RepoUpdatedAt = &t
	}
	return m
}

// toDomain converts a database StatsModel to a domain ServerStats.
func (m *StatsModel) toDomain() *domain.ServerStats {
	s := &domain.ServerStats{
		ServerID: m.ServerID,
		Stars:    m.Stars,
		Forks:    m.Forks,
		Installs: m.Installs,
	}
	if m.RepoUpdatedAt != nil {
		s.RepoUpdatedAt = time.Unix(*m.RepoUpdatedAt, 0)
	}
	return s
}
