package mongodb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"appcontext/internal/model"
	"appcontext/internal/repository"
)

// idField is the primary-key field of every stored document.
const idField = "_id"

// Repository is a MongoDB implementation of repository.Repository.
// It holds only the shared database handle and contains no business logic.
type Repository[T model.Entity] struct {
	db *mongo.Database
}

// NewRepository creates a repository for T backed by db.
func NewRepository[T model.Entity](db *mongo.Database) *Repository[T] {
	return &Repository[T]{db: db}
}

var _ repository.Repository[model.Sample] = (*Repository[model.Sample])(nil)

// Collection resolves the collection declared by T. The handle is not cached.
func (r *Repository[T]) Collection() (*mongo.Collection, error) {
	name, err := repository.CollectionName[T]()
	if err != nil {
		return nil, err
	}
	return r.db.Collection(name), nil
}

// Filter returns every document matching filter. A nil filter matches all documents.
func (r *Repository[T]) Filter(ctx context.Context, filter any) ([]T, error) {
	coll, err := r.Collection()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = bson.D{}
	}

	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]T, 0)
	}
	return items, nil
}

// GetAll returns every document in the collection.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	return r.Filter(ctx, bson.D{})
}

// GetByID fetches a single document by its identifier.
func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	coll, err := r.Collection()
	if err != nil {
		return nil, err
	}

	var out T
	if err := coll.FindOne(ctx, byID(id)).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Insert stores a new document.
func (r *Repository[T]) Insert(ctx context.Context, item *T) (bool, error) {
	if item == nil {
		return false, nil
	}
	coll, err := r.Collection()
	if err != nil {
		return false, err
	}

	if _, err := coll.InsertOne(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

// Update replaces the document stored under id with item.
func (r *Repository[T]) Update(ctx context.Context, id uuid.UUID, item *T) (bool, error) {
	if item == nil {
		return false, nil
	}
	coll, err := r.Collection()
	if err != nil {
		return false, err
	}

	res, err := coll.ReplaceOne(ctx, byID(id), item)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Delete removes the document stored under id.
func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	coll, err := r.Collection()
	if err != nil {
		return false, err
	}

	res, err := coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// DeleteAll removes every document in the collection.
func (r *Repository[T]) DeleteAll(ctx context.Context) (int64, error) {
	coll, err := r.Collection()
	if err != nil {
		return 0, err
	}

	res, err := coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func byID(id uuid.UUID) bson.D {
	return bson.D{{Key: idField, Value: id.String()}}
}
