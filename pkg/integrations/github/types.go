package github

import "time"

// Repository is the metadata of a GitHub repository relevant for
// describing the software it hosts.
type Repository struct {
	Owner         string     `json:"owner"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Description   string     `json:"description,omitempty"`
	Homepage      string     `json:"homepage,omitempty"`
	HTMLURL       string     `json:"html_url"`
	License       string     `json:"license,omitempty"` // SPDX identifier
	Language      string     `json:"language,omitempty"`
	Topics        []string   `json:"topics,omitempty"`
	Archived      bool       `json:"archived"`
	DefaultBranch string     `json:"default_branch,omitempty"`
	PushedAt      *time.Time `json:"pushed_at,omitempty"`
	Release       *Release   `json:"release,omitempty"`
}

// Release is the latest published release.
type Release struct {
	Tag         string    `json:"tag"`
	Name        string    `json:"name,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// apiRepoResponse is the internal GitHub API response structure.
type apiRepoResponse struct {
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Description   string     `json:"description"`
	Homepage      string     `json:"homepage"`
	HTMLURL       string     `json:"html_url"`
	DefaultBranch string     `json:"default_branch"`
	Language      string     `json:"language"`
	PushedAt      *time.Time `json:"pushed_at"`
	License       struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
	Topics   []string `json:"topics"`
	Archived bool     `json:"archived"`
}

type apiReleaseResponse struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
}
