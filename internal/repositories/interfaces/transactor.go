package interfaces

import "context"

// Transactor runs fn as one atomic unit: either every write made through the
// context passed to fn commits, or none does.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
