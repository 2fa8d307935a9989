// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// The github harvester uses this package to describe a project hosted on
// GitHub (https://api.github.com): license, topics, homepage, the latest
// release and the people who contributed.
//
// # Usage
//
//	client := github.NewClient(token, httpCache)
//
//	repo, err := client.Fetch(ctx, "softwarepub", "hermes", false)
//	if err != nil {
//	    return err
//	}
//	fmt.Println("License:", repo.License)
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
//
// # Caching
//
// Responses are cached in the shared [httputil.Cache] under the "github:"
// namespace. Pass refresh=true to bypass the cache.
//
// # URL Extraction
//
// [ExtractURL] parses GitHub repository URLs from project metadata,
// handling various URL formats (with/without .git, trailing slashes, etc.).
//
// [httputil.Cache]: github.com/matzehuels/hermes/pkg/httputil.Cache
package github
