package aggregate

import (
	"context"
	"time"

	"antrian-bbm-service/internal/models"
	"antrian-bbm-service/shared/cachex"
	"antrian-bbm-service/shared/lockx"
)

const (
	snapshotKey     = "antrian:aggregate:snapshot"
	snapshotLockKey = "antrian:aggregate:snapshot:lock"
	snapshotLockTTL = 10 * time.Second
)

// RedisSnapshotStore writes the aggregate snapshot to redis. A short lock
// keeps concurrent api replicas from interleaving writes; a replica that
// loses the race just skips its write, the holder's snapshot is as good.
type RedisSnapshotStore struct {
	cache *cachex.Client
	ttl   time.Duration
}

func NewRedisSnapshotStore(cache *cachex.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{cache: cache, ttl: ttl}
}

func (s *RedisSnapshotStore) SaveSnapshot(ctx context.Context, stations []models.StationAggregate) error {
	lock, ok, err := lockx.Acquire(ctx, s.cache.Client(), snapshotLockKey, snapshotLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	defer func() { _ = lockx.Release(ctx, s.cache.Client(), lock) }()
	return s.cache.SetJSON(ctx, snapshotKey, stations, s.ttl)
}

// LoadSnapshot reads the last saved snapshot for warm starts. found=false
// means the cache is cold and the caller should wait for the first resync.
func (s *RedisSnapshotStore) LoadSnapshot(ctx context.Context) ([]models.StationAggregate, bool, error) {
	var stations []models.StationAggregate
	found, err := s.cache.GetJSON(ctx, snapshotKey, &stations)
	if err != nil || !found {
		return nil, false, err
	}
	return stations, true, nil
}
