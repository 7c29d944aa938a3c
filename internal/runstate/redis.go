// Package runstate keeps the latest pipeline run reports in redis so the
// review API can surface them. Writes are best-effort; pipelines never
// depend on redis for correctness.
package runstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const reportTTL = 30 * 24 * time.Hour

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func reportKey(kind string) string {
	return fmt.Sprintf("newsdesk:runs:%s:latest", kind)
}

// SaveReport stores the report as the latest run of its kind.
func (s *Store) SaveReport(ctx context.Context, kind string, report any) error {
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, reportKey(kind), b, reportTTL).Err()
}

// LatestReport returns the raw JSON of the latest run of the kind, or nil
// when none has been recorded.
func (s *Store) LatestReport(ctx context.Context, kind string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, reportKey(kind)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
