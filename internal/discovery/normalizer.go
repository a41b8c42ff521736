package discovery

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

// CategoryCustom is assigned when no classification rule matches.
const CategoryCustom = "custom"

// categoryRule maps a keyword set to a category. Rules are evaluated in
// order and the first match wins, so specific vocabularies (database,
// filesystem) must come before generic ones (devtools, ai). Changing rule
// order changes classification; keep additions at the right specificity.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"database", []string{"database", "sql", "postgres", "mysql", "sqlite", "mongodb", "redis"}},
	{"filesystem", []string{"filesystem", "file system", "file management", "directory"}},
	{"memory", []string{"memory", "knowledge graph", "knowledge-graph", "persistent context"}},
	{"search", []string{"search engine", "web search", "brave search", "elasticsearch"}},
	{"browser", []string{"browser", "puppeteer", "playwright", "scraping", "web scraping"}},
	{"communication", []string{"slack", "discord", "email", "telegram", "messaging"}},
	{"cloud", []string{"aws", "azure", "gcp", "cloud", "kubernetes", "docker"}},
	{"devtools", []string{"git", "github", "gitlab", "ci/cd", "developer tool", "api client"}},
	{"ai", []string{"llm", "openai", "anthropic", "embedding", "rag", "agent"}},
}

// Categorize classifies a candidate from its description and topic labels.
// The inputs are folded into one lowercase text and tested against the
// ordered rule list; no match yields CategoryCustom. Pure and deterministic.
func Categorize(description string, topics []string) string {
	text := strings.ToLower(description + " " + strings.Join(topics, " "))

	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.category
			}
		}
	}
	return CategoryCustom
}

// Slugify lowercases the name and replaces every rune outside [a-z0-9-]
// with a dash. Consecutive dashes are kept: the transform stays a pure,
// reversible-order-free function of its input.
func Slugify(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// taglineLimit bounds the short description shown in listings.
const taglineLimit = 120

func tagline(description string) string {
	if len(description) <= taglineLimit {
		return description
	}
	// Back the cut up to a rune boundary; GitHub descriptions are
	// frequently non-ASCII and a split rune would persist invalid UTF-8.
	cut := taglineLimit - 3
	for cut > 0 && !utf8.RuneStart(description[cut]) {
		cut--
	}
	return strings.TrimSpace(description[:cut]) + "..."
}

// normalize turns a validated candidate into a registry entry and its
// initial stats record. Entries start unverified and unfeatured; installs
// start at zero.
func normalize(v *Validated, now time.Time) (*domain.Server, *domain.ServerStats) {
	server := &domain.Server{
		Name:        v.Repo.Name,
		Slug:        Slugify(v.Repo.Name),
		Tagline:     tagline(v.Repo.Description),
		Description: v.Repo.Description,
		Category:    Categorize(v.Repo.Description, v.Repo.Topics),
		Tags:        v.Repo.Topics,
		SourceURL:   v.Ref.HTMLURL(),
		Owner:       v.Repo.Owner,
		PackageName: v.Manifest.Name,
		Verified:    false,
		Featured:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stats := &domain.ServerStats{
		Stars:         v.Repo.Stars,
		Forks:         v.Repo.Forks,
		Installs:      0,
		RepoUpdatedAt: v.Repo.PushedAt,
	}

	return server, stats
}
