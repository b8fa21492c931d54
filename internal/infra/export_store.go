package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"distillery/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const exportStatusTTL = 24 * time.Hour

// RedisExportStore keeps export job status for a day after the last update.
type RedisExportStore struct {
	rdb *redis.Client
}

func NewRedisExportStore(rdb *redis.Client) *RedisExportStore {
	return &RedisExportStore{rdb: rdb}
}

func exportKey(orgID, id uuid.UUID) string {
	return fmt.Sprintf("export:%s:%s", orgID, id)
}

func (s *RedisExportStore) Save(ctx context.Context, st service.ExportStatus) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, exportKey(st.OrganizationID, st.ID), b, exportStatusTTL).Err()
}

func (s *RedisExportStore) Get(ctx context.Context, orgID, id uuid.UUID) (*service.ExportStatus, error) {
	b, err := s.rdb.Get(ctx, exportKey(orgID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, service.ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	var st service.ExportStatus
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
