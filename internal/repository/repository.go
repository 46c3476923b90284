// Package repository defines the generic data-access contract for entities.
// Implementations live in subpackages (e.g., mongodb) inside this directory.
package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"appcontext/internal/model"
)

var (
	// ErrMissingCollection is returned by every operation when the entity
	// type does not declare a usable collection name.
	ErrMissingCollection = errors.New("missing collection")
	// ErrNotFound is returned by GetByID when no document has the identifier.
	ErrNotFound = errors.New("entity not found")
)

// Repository provides typed CRUD and filter access to the collection of T.
// Every call resolves the collection anew and issues one request to the store.
type Repository[T model.Entity] interface {
	// Filter returns all entities matching the query document, or an empty slice.
	Filter(ctx context.Context, filter any) ([]T, error)

	// GetAll returns every entity in the collection, or an empty slice.
	GetAll(ctx context.Context) ([]T, error)

	// GetByID returns the entity stored under id, or ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)

	// Insert stores item. It reports false without contacting the store when item is nil.
	Insert(ctx context.Context, item *T) (bool, error)

	// Update replaces the entity stored under id. It reports true only when
	// exactly one document matched and was changed.
	Update(ctx context.Context, id uuid.UUID, item *T) (bool, error)

	// Delete removes the entity stored under id. It reports true only when
	// exactly one document was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteAll empties the collection and returns the number of removed documents.
	DeleteAll(ctx context.Context) (int64, error)
}

// CollectionName returns the collection declared by T.
// Pointer entity types are asked through a freshly allocated value, so
// pointer receivers resolve as well. It fails with ErrMissingCollection when
// the name is empty or when the declaration panics.
func CollectionName[T model.Entity]() (name string, err error) {
	var zero T
	defer func() {
		if r := recover(); r != nil {
			name, err = "", fmt.Errorf("%w: %T", ErrMissingCollection, zero)
		}
	}()

	var e model.Entity = zero
	if t := reflect.TypeOf(zero); t != nil && t.Kind() == reflect.Pointer {
		e = reflect.New(t.Elem()).Interface().(model.Entity)
	}

	name = e.CollectionName()
	if name == "" {
		return "", fmt.Errorf("%w: %T", ErrMissingCollection, zero)
	}
	return name, nil
}
