package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// The window is kept as a sorted set of request timestamps. Trim, count and
// record run as one script so concurrent instances cannot overshoot.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local member = ARGV[4]
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
  return 0
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return 1
`)

// Redis is a sliding-window limiter shared by every instance pointing at
// the same server.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	now    func() time.Time
}

func NewRedis(client *redis.Client, max int, window time.Duration) *Redis {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{client: client, max: max, window: window, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		return false, ErrEmptyIdentity
	}
	now := r.now()
	ms := now.UnixMilli()
	// nanoseconds keep members unique for bursts within one millisecond
	member := strconv.FormatInt(now.UnixNano(), 10)
	res, err := slidingWindow.Run(ctx, r.client, []string{keyPrefix + identity},
		ms, r.window.Milliseconds(), r.max, member).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
