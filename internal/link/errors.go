package link

import "errors"

// Error kinds of the pipeline. Malformed queries and empty candidate
// sets are recoverable and surface as no-match results; a gateway
// failure degrades the result to the best local candidate. Only index
// unavailability (index.ErrUnavailable) is fatal to a run.
var (
	// ErrMalformedQuery marks an empty or unusable input. The index is
	// never queried for such inputs.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrNoCandidates marks a query for which every formulation came
	// back empty.
	ErrNoCandidates = errors.New("no candidates")

	// ErrGatewayUnavailable wraps a disambiguation gateway failure
	// (timeout, quota, missing credentials).
	ErrGatewayUnavailable = errors.New("disambiguation gateway unavailable")
)
