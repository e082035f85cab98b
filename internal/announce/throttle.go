package announce

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// throttleScript atomically checks the current minute's counter and
// increments it only when under the limit. Check-then-increment as two
// round trips would let concurrent dispatchers overshoot.
var throttleScript = redis.NewScript(`
	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	local limit = tonumber(ARGV[1])
	if current >= limit then
		return 0
	end
	current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	return 1
`)

// Throttle caps sends per channel per minute so a large guest list does
// not trip provider rate limits.
type Throttle struct {
	client    *redis.Client
	perMinute int
}

// NewThrottle creates a Redis-backed send throttle. A nil client or a
// non-positive limit disables throttling.
func NewThrottle(client *redis.Client, perMinute int) *Throttle {
	return &Throttle{client: client, perMinute: perMinute}
}

// Allow reports whether one more send on the channel fits inside the
// current minute's budget. Redis errors fail open: a broken throttle
// should slow delivery down, never stop it.
func (t *Throttle) Allow(ctx context.Context, channel string) bool {
	if t.client == nil || t.perMinute <= 0 {
		return true
	}

	key := fmt.Sprintf("announce:rate:%s:%s", channel, time.Now().UTC().Format("200601021504"))
	res, err := throttleScript.Run(ctx, t.client, []string{key}, t.perMinute, 120).Int()
	if err != nil {
		return true
	}
	return res == 1
}
