// Package cache wraps the ignore-list lookup with a short-lived Redis
// cache. The bounce list changes only when the mail provider posts a
// webhook, so a few minutes of staleness is acceptable.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/pkg/helpers"
)

const ignoreListKey = "mail:ignored"

type IgnoreList struct {
	Events repository.EmailEventRepository
	RDB    *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewIgnoreList(events repository.EmailEventRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *IgnoreList {
	return &IgnoreList{Events: events, RDB: rdb, TTL: ttl, Logger: logger}
}

func (l *IgnoreList) IgnoredAddresses(ctx context.Context) ([]string, error) {
	if l.RDB != nil {
		var cached []string
		if ok, err := helpers.RedisGetJSON(ctx, l.RDB, ignoreListKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	addrs, err := l.Events.IgnoredAddresses(ctx)
	if err != nil {
		return nil, err
	}
	if l.RDB != nil {
		if err := helpers.RedisSetJSON(ctx, l.RDB, ignoreListKey, addrs, l.TTL); err != nil && l.Logger != nil {
			l.Logger.WithError(err).Warn("ignore list cache write failed")
		}
	}
	return addrs, nil
}

// Invalidate drops the cached list; called after recording a new event.
func (l *IgnoreList) Invalidate(ctx context.Context) {
	if l.RDB == nil {
		return
	}
	if err := helpers.RedisDel(ctx, l.RDB, ignoreListKey); err != nil && l.Logger != nil {
		l.Logger.WithError(err).Warn("ignore list cache invalidation failed")
	}
}
