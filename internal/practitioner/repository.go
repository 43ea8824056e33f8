package practitioner

import (
	"context"
)

// Repository reads the practitioner directory. The directory is owned by an
// external system, so the interface is read-only.
type Repository interface {
	// List returns every directory entry in a stable order.
	List(ctx context.Context) ([]Practitioner, error)
}
