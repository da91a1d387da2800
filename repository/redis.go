package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mpalmer79/dealdesk/model"
)

const (
	worksheetKeyPrefix = "worksheet:"
	worksheetIndexKey  = "worksheets"
)

// RedisRepository keeps worksheet snapshots in Redis so live deals survive
// a service restart. Worksheets are stored as JSON under worksheet:<id>
// with a set index for listing.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository connects a repository to the Redis instance at addr.
func NewRedisRepository(addr string) *RedisRepository {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisRepository{client: rdb}
}

// Ping verifies connectivity; called once at startup.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Save(ctx context.Context, w *model.Worksheet) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal worksheet %s: %w", w.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, worksheetKeyPrefix+w.ID, data, 0)
	pipe.SAdd(ctx, worksheetIndexKey, w.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*model.Worksheet, error) {
	data, err := r.client.Get(ctx, worksheetKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var w model.Worksheet
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal worksheet %s: %w", id, err)
	}
	return &w, nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, worksheetKeyPrefix+id)
	pipe.SRem(ctx, worksheetIndexKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) List(ctx context.Context) ([]*model.Worksheet, error) {
	ids, err := r.client.SMembers(ctx, worksheetIndexKey).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*model.Worksheet, 0, len(ids))
	for _, id := range ids {
		w, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if w == nil {
			// Index entry without a record; drop it
			r.client.SRem(ctx, worksheetIndexKey, id)
			continue
		}
		result = append(result, w)
	}
	return result, nil
}
