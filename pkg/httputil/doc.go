// Package httputil provides the plumbing shared by the HTTP clients that
// talk to GitHub and to deposition platforms.
//
//   - [Cache]: file-based response cache with TTL and key namespaces
//   - [Retry]: retry with exponential backoff for transient failures
//
// Only errors wrapped in [RetryableError] are retried, so clients decide
// per status code what is transient (network errors, 5xx, 429):
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.fetch(ctx, url, &v)
//	})
//
// The workflow keeps its response cache below the workflow cache root, so
// "hermes clean" removes it together with the stage documents.
package httputil
