// Package model contains the persisted entity types.
package model

// Entity is implemented by every type stored through the repository facade.
// CollectionName must return a constant, non-empty name: the facade calls it
// on the zero value of the type, or on a new zero element for pointer types.
type Entity interface {
	CollectionName() string
}
