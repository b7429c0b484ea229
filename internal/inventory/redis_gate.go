package inventory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisGate serializes concurrent reservation attempts against
// overlapping seat sets before any database lock is taken. A claim is
// all-or-nothing per request: either every seat key is set, or none.
type RedisGate struct {
	redis *redis.Client
}

func NewRedisGate(redisClient *redis.Client) *RedisGate {
	return &RedisGate{redis: redisClient}
}

// Lua script for the atomic all-or-nothing seat claim.
var claimScript = redis.NewScript(`
-- ARGV[1] = showtime_id
-- ARGV[2] = ttl_seconds
-- ARGV[3..N] = seat_ids

local showtime_id = ARGV[1]
local ttl = tonumber(ARGV[2])

-- Collect every seat that is already claimed
local conflicts = {}
for i = 3, #ARGV do
    local seat_key = "seat_hold:" .. showtime_id .. ":" .. ARGV[i]
    if redis.call("EXISTS", seat_key) == 1 then
        conflicts[#conflicts + 1] = ARGV[i]
    end
end
if #conflicts > 0 then
    return {0, conflicts}
end

-- All free, claim atomically
for i = 3, #ARGV do
    local seat_key = "seat_hold:" .. showtime_id .. ":" .. ARGV[i]
    redis.call("SETEX", seat_key, ttl, showtime_id)
end

return {1}
`)

// Claim atomically claims all seats for the showtime, or none.
// On conflict it returns the IDs of every already-claimed seat.
func (g *RedisGate) Claim(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID, ttl time.Duration) ([]uuid.UUID, bool, error) {
	if g.redis == nil {
		return nil, true, nil // gate disabled, DB locking is still authoritative
	}

	args := []interface{}{
		showtimeID.String(),
		strconv.Itoa(int(ttl.Seconds())),
	}
	for _, seatID := range seatIDs {
		args = append(args, seatID.String())
	}

	result, err := claimScript.Run(ctx, g.redis, []string{}, args...).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to execute atomic seat claim: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) == 0 {
		return nil, false, fmt.Errorf("unexpected result format from Lua script")
	}

	success, ok := resultArray[0].(int64)
	if !ok {
		return nil, false, fmt.Errorf("invalid success flag in Lua script result")
	}
	if success != 0 {
		return nil, true, nil
	}

	if len(resultArray) != 2 {
		return nil, false, fmt.Errorf("missing conflict list in Lua script result")
	}
	rawConflicts, ok := resultArray[1].([]interface{})
	if !ok {
		return nil, false, fmt.Errorf("invalid conflict list in Lua script result")
	}
	conflicts := make([]uuid.UUID, 0, len(rawConflicts))
	for _, raw := range rawConflicts {
		conflictStr, _ := raw.(string)
		conflictID, parseErr := uuid.Parse(conflictStr)
		if parseErr != nil {
			return nil, false, fmt.Errorf("invalid conflict seat in Lua script result")
		}
		conflicts = append(conflicts, conflictID)
	}
	return conflicts, false, nil
}

// Drop removes the claims. Unconditional and idempotent.
func (g *RedisGate) Drop(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) error {
	if g.redis == nil || len(seatIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		keys = append(keys, fmt.Sprintf("seat_hold:%s:%s", showtimeID, seatID))
	}
	return g.redis.Del(ctx, keys...).Err()
}

// PreloadScripts loads the claim script into Redis for better performance
func (g *RedisGate) PreloadScripts(ctx context.Context) error {
	if g.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	if err := claimScript.Load(ctx, g.redis).Err(); err != nil {
		return fmt.Errorf("failed to load seat claim script: %w", err)
	}
	return nil
}
