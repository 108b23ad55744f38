package application

import "context"

// Searcher answers a free-text question with raw model output. Failures are
// returned as *domain.Failure; implementations never panic and never let an
// unclassified transport error escape.
type Searcher interface {
	Ask(ctx context.Context, query string) (string, error)
}
