// Package source fetches upcoming events from external providers.
package source

import (
	"context"

	"github.com/okian/gigradar/internal/domain/model"
)

// Query narrows a provider search to one artist or keyword in one area.
type Query struct {
	Keyword  string
	City     string
	Region   string
	Country  string
	Category string
	Size     int
}

// Source is an event provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]model.CatalogEvent, error)
}
