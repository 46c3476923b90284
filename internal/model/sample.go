package model

// SampleCollection is the collection holding Sample documents.
const SampleCollection = "samples"

// Sample is a minimal entity used by the HTTP API and the repository tests.
// ID holds the canonical string form of a UUID and is stored as _id.
type Sample struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Active bool   `bson:"active" json:"active"`
	Count  int    `bson:"count" json:"count"`
}

// CollectionName implements Entity.
func (Sample) CollectionName() string { return SampleCollection }
