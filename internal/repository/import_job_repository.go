package repository

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

const importJobKeyPrefix = "gradadmin:imports:"

// ImportJobRepository keeps the state of background imports for polling.
type ImportJobRepository struct {
	cache *CacheRepository
	ttl   time.Duration
}

// NewImportJobRepository constructs an ImportJobRepository whose entries live for ttl.
func NewImportJobRepository(cache *CacheRepository, ttl time.Duration) *ImportJobRepository {
	return &ImportJobRepository{cache: cache, ttl: ttl}
}

// Save writes the job state.
func (r *ImportJobRepository) Save(ctx context.Context, job *dto.ImportJob) error {
	return r.cache.Set(ctx, importJobKeyPrefix+job.ID, job, r.ttl)
}

// Get reads the job state; NOT_FOUND when unknown or expired.
func (r *ImportJobRepository) Get(ctx context.Context, id string) (*dto.ImportJob, error) {
	var job dto.ImportJob
	if err := r.cache.Get(ctx, importJobKeyPrefix+id, &job); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
		}
		return nil, err
	}
	return &job, nil
}
