package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"conditionScope/internal/model"
)

// ConditionCache stores conditions until their game starts.
//
// Key schema:
//
//	condition:{id}              - JSON encoded condition
//	conditions:by_game:{gameId} - set of condition ids
type ConditionCache struct {
	rdb *redis.Client
	now func() time.Time
}

func NewConditionCache(rdb *redis.Client) *ConditionCache {
	return &ConditionCache{rdb: rdb, now: time.Now}
}

func conditionKey(id uint64) string { return "condition:" + strconv.FormatUint(id, 10) }
func gameKey(id uint64) string      { return "conditions:by_game:" + strconv.FormatUint(id, 10) }

// PutConditions caches each condition with a TTL ending at its start time.
// Conditions that already started are skipped.
func (c *ConditionCache) PutConditions(ctx context.Context, conditions []model.Condition) error {
	if len(conditions) == 0 {
		return nil
	}

	now := c.now()
	pipe := c.rdb.TxPipeline()
	queued := 0
	for _, condition := range conditions {
		ttl := time.UnixMilli(condition.GameData.StartsAt).Sub(now)
		if ttl <= 0 {
			continue
		}
		data, err := json.Marshal(condition)
		if err != nil {
			return fmt.Errorf("redis: marshal condition %d: %w", condition.ID, err)
		}

		gk := gameKey(condition.GameData.ID)
		pipe.Set(ctx, conditionKey(condition.ID), data, ttl)
		pipe.SAdd(ctx, gk, condition.ID)
		pipe.ExpireGT(ctx, gk, ttl)
		pipe.ExpireNX(ctx, gk, ttl)
		queued++
	}
	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put conditions: %w", err)
	}
	return nil
}
