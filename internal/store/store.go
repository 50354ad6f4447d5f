// Package store provides persistence for the working strategy and the saved
// strategy collection.
package store

import (
	"context"

	"options-strategist/internal/models"
)

// StrategyStore defines the interface for strategy persistence.
type StrategyStore interface {
	// Working strategy
	SaveCurrent(ctx context.Context, snap models.Snapshot) error
	LoadCurrent(ctx context.Context) (*models.Snapshot, error)

	// Saved strategies, keyed by name
	SaveStrategy(ctx context.Context, snap models.Snapshot) (*models.SavedStrategy, error)
	GetStrategy(ctx context.Context, name string) (*models.SavedStrategy, error)
	ListStrategies(ctx context.Context) ([]models.SavedStrategy, error)
	DeleteStrategy(ctx context.Context, name string) error

	Close() error
}
