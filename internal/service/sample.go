package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"appcontext/internal/model"
	"appcontext/internal/repository"
	"appcontext/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrInvalidID      = errors.New("id must be a UUID")
	ErrNotFound       = errors.New("sample not found")
	ErrConflict       = errors.New("sample already exists")
	ErrNotStored      = errors.New("sample was not stored")
	ErrExportDisabled = errors.New("object storage is not configured")
)

// exportURLExpiry bounds the lifetime of presigned export links.
const exportURLExpiry = 15 * time.Minute

// SampleInput carries the writable fields of a sample.
// ID is optional on create; a new UUID is assigned when it is empty.
type SampleInput struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Count  int    `json:"count"`
}

// SampleQuery narrows Search. Nil fields are not filtered on.
type SampleQuery struct {
	Name   *string
	Active *bool
}

// Empty reports whether the query has no criteria.
func (q SampleQuery) Empty() bool {
	return q.Name == nil && q.Active == nil
}

// ExportResult describes a collection snapshot written to object storage.
type ExportResult struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
	Size  int64  `json:"size"`
	URL   string `json:"url"`
}

// SampleService defines the use cases for handling samples.
type SampleService interface {
	// Create stores a new sample.
	Create(ctx context.Context, in SampleInput) (*model.Sample, error)

	// Get returns a single sample by its ID.
	Get(ctx context.Context, id string) (*model.Sample, error)

	// List returns every sample.
	List(ctx context.Context) ([]model.Sample, error)

	// Search returns the samples matching q.
	Search(ctx context.Context, q SampleQuery) ([]model.Sample, error)

	// Update replaces the sample stored under id.
	Update(ctx context.Context, id string, in SampleInput) (*model.Sample, error)

	// Delete removes a sample by ID.
	Delete(ctx context.Context, id string) error

	// Export writes every sample as a JSON array to object storage.
	Export(ctx context.Context) (*ExportResult, error)
}

// sampleService is a concrete implementation of SampleService.
type sampleService struct {
	repo  repository.Repository[model.Sample]
	store storage.Storage
}

// NewSampleService constructs a new SampleService. store may be nil, which disables Export.
func NewSampleService(repo repository.Repository[model.Sample], store storage.Storage) SampleService {
	return &sampleService{repo: repo, store: store}
}

func (s *sampleService) Create(ctx context.Context, in SampleInput) (*model.Sample, error) {
	id := uuid.New()
	if in.ID != "" {
		parsed, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, ErrInvalidID
		}
		id = parsed
	}

	sample := &model.Sample{ID: id.String(), Name: in.Name, Active: in.Active, Count: in.Count}
	ok, err := s.repo.Insert(ctx, sample)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert sample: %w", err)
	}
	if !ok {
		return nil, ErrNotStored
	}
	return sample, nil
}

func (s *sampleService) Get(ctx context.Context, id string) (*model.Sample, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	sample, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sample, nil
}

func (s *sampleService) List(ctx context.Context) ([]model.Sample, error) {
	return s.repo.GetAll(ctx)
}

func (s *sampleService) Search(ctx context.Context, q SampleQuery) ([]model.Sample, error) {
	filter := bson.M{}
	if q.Name != nil {
		filter["name"] = *q.Name
	}
	if q.Active != nil {
		filter["active"] = *q.Active
	}
	return s.repo.Filter(ctx, filter)
}

func (s *sampleService) Update(ctx context.Context, id string, in SampleInput) (*model.Sample, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if in.ID != "" && in.ID != uid.String() {
		return nil, ErrInvalidID
	}

	sample := &model.Sample{ID: uid.String(), Name: in.Name, Active: in.Active, Count: in.Count}
	ok, err := s.repo.Update(ctx, uid, sample)
	if err != nil {
		return nil, fmt.Errorf("update sample: %w", err)
	}
	if ok {
		return sample, nil
	}

	// Nothing modified: either no such sample, or the stored one is identical
	stored, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update sample: %w", err)
	}
	return stored, nil
}

func (s *sampleService) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete sample: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *sampleService) Export(ctx context.Context) (*ExportResult, error) {
	if s.store == nil {
		return nil, ErrExportDisabled
	}

	items, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode samples: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s-%s.json",
		model.SampleCollection,
		time.Now().UTC().Format("20060102T150405Z"),
		uuid.NewString(),
	)
	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata: map[string]string{
			"collection": model.SampleCollection,
			"count":      strconv.Itoa(len(items)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	url, err := s.store.PresignGet(ctx, info.Key, exportURLExpiry)
	if err != nil {
		// Rollback: an export nobody can download is removed
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			return nil, fmt.Errorf("presign export failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("presign export: %w", err)
	}

	return &ExportResult{Key: info.Key, Count: len(items), Size: info.Size, URL: url}, nil
}

func parseID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.Nil, ErrIDRequired
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return uid, nil
}
