package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"appcontext/internal/model"
	"appcontext/internal/repository"
	repoMocks "appcontext/internal/repository/mocks"
	"appcontext/internal/storage"
	storeMocks "appcontext/internal/storage/mocks"
)

type sampleRepo = repoMocks.MockRepository[model.Sample]

func TestSampleService_Create(t *testing.T) {
	ctx := context.Background()
	fixedID := "11111111-1111-1111-1111-111111111111"

	tests := []struct {
		name       string
		in         SampleInput
		setupMocks func(mRepo *sampleRepo)
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, s *model.Sample)
	}{
		{
			name: "happy path generates id",
			in:   SampleInput{Name: "a", Active: true, Count: 1},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Insert", ctx, mock.MatchedBy(func(s *model.Sample) bool {
					_, err := uuid.Parse(s.ID)
					return err == nil && s.Name == "a" && s.Active && s.Count == 1
				})).Return(true, nil)
			},
			check: func(t *testing.T, s *model.Sample) {
				assert.NotEmpty(t, s.ID)
				assert.Equal(t, "a", s.Name)
			},
		},
		{
			name: "caller supplied id",
			in:   SampleInput{ID: fixedID, Name: "b"},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Insert", ctx, &model.Sample{ID: fixedID, Name: "b"}).Return(true, nil)
			},
			check: func(t *testing.T, s *model.Sample) {
				assert.Equal(t, fixedID, s.ID)
			},
		},
		{
			name:       "invalid id",
			in:         SampleInput{ID: "nope"},
			setupMocks: func(mRepo *sampleRepo) {},
			wantErr:    ErrInvalidID,
		},
		{
			name: "duplicate key",
			in:   SampleInput{ID: fixedID},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Insert", ctx, mock.Anything).Return(false, mongo.WriteException{
					WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}},
				})
			},
			wantErr: ErrConflict,
		},
		{
			name: "repository error",
			in:   SampleInput{Name: "c"},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Insert", ctx, mock.Anything).Return(false, errors.New("db fail"))
			},
			wantErrMsg: "insert sample: db fail",
		},
		{
			name: "not stored",
			in:   SampleInput{Name: "d"},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Insert", ctx, mock.Anything).Return(false, nil)
			},
			wantErr: ErrNotStored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(sampleRepo)
			svc := NewSampleService(mRepo, nil)
			tt.setupMocks(mRepo)

			s, err := svc.Create(ctx, tt.in)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
			default:
				require.NoError(t, err)
				tt.check(t, s)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSampleService_Get(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *sampleRepo)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   id.String(),
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("GetByID", ctx, id).Return(&model.Sample{ID: id.String()}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *sampleRepo) {},
			wantErr:    ErrIDRequired,
		},
		{
			name:       "validation - malformed id",
			id:         "not-a-uuid",
			setupMocks: func(mRepo *sampleRepo) {},
			wantErr:    ErrInvalidID,
		},
		{
			name: "not found",
			id:   id.String(),
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("GetByID", ctx, id).Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "missing collection propagates",
			id:   id.String(),
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("GetByID", ctx, id).Return(nil, repository.ErrMissingCollection)
			},
			wantErr: repository.ErrMissingCollection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(sampleRepo)
			svc := NewSampleService(mRepo, nil)
			tt.setupMocks(mRepo)

			s, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, s.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSampleService_ListAndSearch(t *testing.T) {
	ctx := context.Background()
	items := []model.Sample{{ID: uuid.NewString(), Name: "a", Active: true}}

	t.Run("list", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mRepo.On("GetAll", ctx).Return(items, nil)

		got, err := NewSampleService(mRepo, nil).List(ctx)
		assert.NoError(t, err)
		assert.Equal(t, items, got)
		mRepo.AssertExpectations(t)
	})

	t.Run("search builds filter", func(t *testing.T) {
		name, active := "a", true
		mRepo := new(sampleRepo)
		mRepo.On("Filter", ctx, bson.M{"name": "a", "active": true}).Return(items, nil)

		got, err := NewSampleService(mRepo, nil).Search(ctx, SampleQuery{Name: &name, Active: &active})
		assert.NoError(t, err)
		assert.Equal(t, items, got)
		mRepo.AssertExpectations(t)
	})

	t.Run("empty search matches all", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mRepo.On("Filter", ctx, bson.M{}).Return([]model.Sample{}, nil)

		got, err := NewSampleService(mRepo, nil).Search(ctx, SampleQuery{})
		assert.NoError(t, err)
		assert.Empty(t, got)
		assert.True(t, SampleQuery{}.Empty())
		mRepo.AssertExpectations(t)
	})
}

func TestSampleService_Update(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name       string
		id         string
		in         SampleInput
		setupMocks func(mRepo *sampleRepo)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			id:   id.String(),
			in:   SampleInput{Name: "a", Count: 2},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Update", ctx, id, &model.Sample{ID: id.String(), Name: "a", Count: 2}).Return(true, nil)
			},
		},
		{
			name:       "body id mismatch",
			id:         id.String(),
			in:         SampleInput{ID: uuid.NewString()},
			setupMocks: func(mRepo *sampleRepo) {},
			wantErr:    ErrInvalidID,
		},
		{
			name: "identical replace succeeds",
			id:   id.String(),
			in:   SampleInput{Name: "a"},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Update", ctx, id, mock.Anything).Return(false, nil)
				mRepo.On("GetByID", ctx, id).Return(&model.Sample{ID: id.String(), Name: "a"}, nil)
			},
		},
		{
			name: "no such sample",
			id:   id.String(),
			in:   SampleInput{Name: "a"},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Update", ctx, id, mock.Anything).Return(false, nil)
				mRepo.On("GetByID", ctx, id).Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "lookup after no-op fails",
			id:   id.String(),
			in:   SampleInput{Name: "a"},
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Update", ctx, id, mock.Anything).Return(false, nil)
				mRepo.On("GetByID", ctx, id).Return(nil, errors.New("db fail"))
			},
			wantErrMsg: "update sample: db fail",
		},
		{
			name: "repository error",
			id:   id.String(),
			setupMocks: func(mRepo *sampleRepo) {
				mRepo.On("Update", ctx, id, mock.Anything).Return(false, errors.New("db fail"))
			},
			wantErrMsg: "update sample: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(sampleRepo)
			svc := NewSampleService(mRepo, nil)
			tt.setupMocks(mRepo)

			s, err := svc.Update(ctx, tt.id, tt.in)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.id, s.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSampleService_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("deleted once", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mRepo.On("Delete", ctx, id).Return(true, nil).Once()
		mRepo.On("Delete", ctx, id).Return(false, nil).Once()
		svc := NewSampleService(mRepo, nil)

		assert.NoError(t, svc.Delete(ctx, id.String()))
		assert.ErrorIs(t, svc.Delete(ctx, id.String()), ErrNotFound)
		mRepo.AssertExpectations(t)
	})

	t.Run("empty id", func(t *testing.T) {
		assert.ErrorIs(t, NewSampleService(new(sampleRepo), nil).Delete(ctx, ""), ErrIDRequired)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mRepo.On("Delete", ctx, id).Return(false, errors.New("db fail"))

		err := NewSampleService(mRepo, nil).Delete(ctx, id.String())
		assert.EqualError(t, err, "delete sample: db fail")
	})
}

func TestSampleService_Export(t *testing.T) {
	ctx := context.Background()
	items := []model.Sample{
		{ID: uuid.NewString(), Name: "a", Active: true, Count: 1},
		{ID: uuid.NewString(), Name: "b", Count: 2},
	}

	t.Run("disabled without storage", func(t *testing.T) {
		res, err := NewSampleService(new(sampleRepo), nil).Export(ctx)
		assert.ErrorIs(t, err, ErrExportDisabled)
		assert.Nil(t, res)
	})

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("GetAll", ctx).Return(items, nil)

		var uploaded []model.Sample
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "exports/samples/") && strings.HasSuffix(key, ".json")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.ContentType == "application/json" && opt.Metadata["count"] == "2"
		})).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
			b, _ := io.ReadAll(r)
			_ = json.Unmarshal(b, &uploaded)
			return storage.ObjectInfo{Key: key, Size: opt.Size}
		}, nil)
		mStore.On("PresignGet", ctx, mock.Anything, 15*time.Minute).Return("https://minio/presigned", nil)

		res, err := NewSampleService(mRepo, mStore).Export(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
		assert.Equal(t, "https://minio/presigned", res.URL)
		assert.Positive(t, res.Size)
		assert.Equal(t, items, uploaded)
		mRepo.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("storage error", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("GetAll", ctx).Return(items, nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("storage fail"))

		res, err := NewSampleService(mRepo, mStore).Export(ctx)
		assert.EqualError(t, err, "upload export: storage fail")
		assert.Nil(t, res)
	})

	t.Run("presign error with rollback", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("GetAll", ctx).Return(items, nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "exports/samples/x.json"}, nil)
		mStore.On("PresignGet", ctx, "exports/samples/x.json", mock.Anything).Return("", errors.New("sign fail"))
		mStore.On("Delete", ctx, "exports/samples/x.json").Return(nil)

		res, err := NewSampleService(mRepo, mStore).Export(ctx)
		assert.EqualError(t, err, "presign export: sign fail")
		assert.Nil(t, res)
		mStore.AssertExpectations(t)
	})

	t.Run("presign error with failed rollback", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("GetAll", ctx).Return(items, nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "exports/samples/x.json"}, nil)
		mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).Return("", errors.New("sign fail"))
		mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))

		_, err := NewSampleService(mRepo, mStore).Export(ctx)
		assert.ErrorContains(t, err, "rollback delete failed: delete fail")
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(sampleRepo)
		mRepo.On("GetAll", ctx).Return(nil, errors.New("db fail"))

		res, err := NewSampleService(mRepo, new(storeMocks.MockStorage)).Export(ctx)
		assert.EqualError(t, err, "read samples: db fail")
		assert.Nil(t, res)
	})
}
