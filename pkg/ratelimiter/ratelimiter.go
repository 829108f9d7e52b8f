package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/softdesk/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ScopeGlobal = "global"
	ScopeIssue  = "issue"
)

// RateLimitError is returned when a cooldown is still running.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// Cooldown enforces "one action per window" per user using SETNX keys.
// A nil client disables limiting.
type Cooldown struct {
	rdb *redis.Client
}

func NewCooldown(rdb *redis.Client) *Cooldown {
	return &Cooldown{rdb: rdb}
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

func (c *Cooldown) CheckAndSet(ctx context.Context, userID uuid.UUID, action string, limit time.Duration) (bool, error) {
	if c == nil || c.rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := c.rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func (c *Cooldown) TTL(ctx context.Context, userID uuid.UUID, action string) (time.Duration, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	return c.rdb.TTL(ctx, key(userID, action)).Result()
}

func (c *Cooldown) Clear(ctx context.Context, userID uuid.UUID, action string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, key(userID, action)).Err()
}

// Acquire takes every named cooldown in order. If one is still running the
// ones already taken are released and a *RateLimitError is returned. The
// returned release func undoes all of them; callers invoke it when the
// guarded action fails.
func (c *Cooldown) Acquire(ctx context.Context, userID uuid.UUID, limits ...Limit) (func(), error) {
	taken := make([]string, 0, len(limits))
	release := func() {
		for _, action := range taken {
			_ = c.Clear(context.WithoutCancel(ctx), userID, action)
		}
	}

	for _, l := range limits {
		ok, err := c.CheckAndSet(ctx, userID, l.Action, l.Window)
		if err != nil {
			release()
			return nil, err
		}
		if !ok {
			release()
			ttl, _ := c.TTL(ctx, userID, l.Action)
			return nil, &RateLimitError{
				Message:    fmt.Sprintf("you are doing that too fast, please wait %.0f seconds", ttl.Seconds()),
				RetryAfter: ttl,
			}
		}
		taken = append(taken, l.Action)
	}

	return release, nil
}

type Limit struct {
	Action string
	Window time.Duration
}
