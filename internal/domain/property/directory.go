package property

import (
	"context"

	"github.com/google/uuid"
)

// SearchFilter narrows a property search. Nil fields are ignored.
type SearchFilter struct {
	City        *string
	Type        *string
	MinPrice    *int64
	MaxPrice    *int64
	MinBedrooms *int
}

// Directory is the read-side contract over property snapshots.
type Directory interface {
	// FindByID retrieves a property, failing with NotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)

	// FindByIDForUpdate retrieves a property and locks its row until the enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Property, error)

	// FindByIDs returns the properties that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Property, error)

	// Search returns available properties matching the filter with pagination.
	Search(ctx context.Context, filter SearchFilter, page, limit int) ([]*Property, int64, error)

	// IsAgentOf reports whether agentID lists the property.
	IsAgentOf(ctx context.Context, propertyID, agentID uuid.UUID) (bool, error)

	// Upsert stores the latest snapshot received from the catalog.
	Upsert(ctx context.Context, p *Property) error

	// Delete removes a snapshot.
	Delete(ctx context.Context, id uuid.UUID) error
}
