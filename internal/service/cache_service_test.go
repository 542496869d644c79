package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type failingCacheRepo struct {
	cacheRepoStub
	err error
}

func (f *failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return f.err
}

func TestCacheServiceRecordsHitRatio(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&cacheRepoStub{values: map[string][]byte{}}, metrics, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "timetable:preview:a", map[string]int{"entries": 8}, 0))

	var got map[string]int
	hit, err := svc.Get(ctx, "timetable:preview:a", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 8, got["entries"])

	hit, err = svc.Get(ctx, "timetable:preview:missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.EqualValues(t, 1, snapshot.CacheHits)
	assert.EqualValues(t, 1, snapshot.CacheMisses)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.001)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	svc := NewCacheService(&failingCacheRepo{err: errors.New("connection reset")}, nil, 0, nil, true)
	var dest map[string]int
	hit, err := svc.Get(context.Background(), "k", &dest)
	assert.False(t, hit)
	assert.EqualError(t, err, "connection reset")

	svc = NewCacheService(&failingCacheRepo{err: appErrors.ErrCacheMiss}, nil, 0, nil, true)
	hit, err = svc.Get(context.Background(), "k", &dest)
	assert.False(t, hit)
	assert.NoError(t, err)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &cacheRepoStub{values: map[string][]byte{}}
	svc := NewCacheService(repo, nil, 0, nil, false)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.values)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}
