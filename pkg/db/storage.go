package db

import (
	"context"

	"github.com/tikblend/tikblend/pkg/model"
)

type Version int

const (
	CurrentVersion = 1
)

// Storage persists one generation record per date key.
type Storage interface {
	Close() error
	Version() (int, error)

	// PutGeneration inserts or overwrites the record for its date key
	PutGeneration(ctx context.Context, generation *model.Generation) error

	// GetGeneration gets a record by date key
	GetGeneration(ctx context.Context, date string) (*model.Generation, error)

	// WalkGenerations iterates over saved records
	WalkGenerations(ctx context.Context, cb func(generation *model.Generation) error) error

	// DeleteGeneration deletes a record
	DeleteGeneration(ctx context.Context, date string) error
}
