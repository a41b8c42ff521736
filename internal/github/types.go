package github

import "time"

// RepoRef identifies a repository by owner and name.
type RepoRef struct {
	Owner string
	Name  string
}

// String returns the owner/name form used in API paths and log lines.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// HTMLURL returns the canonical browser URL for the repository.
func (r RepoRef) HTMLURL() string {
	return "https://github.com/" + r.Owner + "/" + r.Name
}

// Repo holds the repository metadata the pipeline consumes.
type Repo struct {
	Owner       string
	Name        string
	FullName    string
	Description string
	Topics      []string
	Fork        bool
	Stars       int
	Forks       int
	HTMLURL     string
	PushedAt    time.Time
}

// Ref returns the RepoRef for this repository.
func (r *Repo) Ref() RepoRef {
	return RepoRef{Owner: r.Owner, Name: r.Name}
}

// repoResponse mirrors the repository object returned by the GitHub REST API.
// Responses are decoded into this shape at the fetch boundary and converted
// to Repo so callers never see raw API JSON.
type repoResponse struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Topics      []string  `json:"topics"`
	Fork        bool      `json:"fork"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	HTMLURL     string    `json:"html_url"`
	PushedAt    time.Time `json:"pushed_at"`
	RepoOwner   struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (r *repoResponse) toRepo() *Repo {
	return &Repo{
		Owner:       r.RepoOwner.Login,
		Name:        r.Name,
		FullName:    r.FullName,
		Description: r.Description,
		Topics:      r.Topics,
		Fork:        r.Fork,
		Stars:       r.Stars,
		Forks:       r.Forks,
		HTMLURL:     r.HTMLURL,
		PushedAt:    r.PushedAt,
	}
}

// searchResponse mirrors the repository search result envelope.
type searchResponse struct {
	TotalCount int            `json:"total_count"`
	Items      []repoResponse `json:"items"`
}

// contentResponse mirrors the contents API response for a single file.
type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}
