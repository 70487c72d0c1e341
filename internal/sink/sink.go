package sink

import (
	"context"

	"github.com/galois26/ais-ingester/internal/model"
	"github.com/galois26/ais-ingester/internal/schema"
)

// Sink is the minimal interface all sinks must implement.
type Sink interface {
	Name() string
	// Push persists a whole batch for one output group. Implementations must
	// make the batch visible all at once with respect to other Push calls.
	Push(ctx context.Context, group schema.Group, batch model.Batch) error
}
