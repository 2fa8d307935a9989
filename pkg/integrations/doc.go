// Package integrations provides the HTTP client shared by the remote APIs
// the workflow talks to.
//
// The [Client] type bundles an [http.Client] with default headers, an
// optional response cache ([httputil.Cache]), retries for transient failures
// and [observability.HTTPHooks]. API-specific clients embed it:
//
//   - [github]: repository metadata for the github harvester
//   - the Invenio deposit client in pkg/deposit/invenio
//
// Status codes map onto error codes of pkg/errors: 401 is UNAUTHORIZED, 403
// FORBIDDEN, 404 is [ErrNotFound], 429 and 5xx are retried.
//
// [github]: github.com/matzehuels/hermes/pkg/integrations/github
// [httputil.Cache]: github.com/matzehuels/hermes/pkg/httputil.Cache
// [observability.HTTPHooks]: github.com/matzehuels/hermes/pkg/observability.HTTPHooks
package integrations
