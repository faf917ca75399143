// Package repository persists the match state between restarts.
package repository

import (
	"context"

	"github.com/okian/matchday/internal/domain/model"
)

// Store loads and saves the single match snapshot.
type Store interface {
	// Load returns the stored state.
	// Returns ErrNotFound when nothing was saved yet and ErrCorruptSnapshot
	// when the stored bytes cannot be trusted.
	Load(ctx context.Context) (model.State, error)

	// Save replaces the stored state.
	Save(ctx context.Context, s model.State) error
}
