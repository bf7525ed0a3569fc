// Package cache holds the Redis-backed report cache and the ledger of
// processed webhook events.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/esgtracker/internal/models"
)

// ReportCache caches report rows. Keys embed the owner's id so a hit can
// never serve another user's report.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

func reportKey(userID, reportID string) string {
	return fmt.Sprintf("report:%s:%s", userID, reportID)
}

// Get returns (nil, nil) on a miss.
func (c *ReportCache) Get(ctx context.Context, userID, reportID string) (*models.Report, error) {
	data, err := c.rdb.Get(ctx, reportKey(userID, reportID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}

	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &r, nil
}

func (c *ReportCache) Set(ctx context.Context, r *models.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.rdb.Set(ctx, reportKey(r.UserID, r.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// EventLedger remembers webhook event ids that were processed successfully.
type EventLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEventLedger(rdb *redis.Client, ttl time.Duration) *EventLedger {
	return &EventLedger{rdb: rdb, ttl: ttl}
}

func eventKey(id string) string {
	return "webhook:event:" + id
}

func (l *EventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.rdb.Exists(ctx, eventKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event ledger: %w", err)
	}
	return n > 0, nil
}

func (l *EventLedger) Mark(ctx context.Context, eventID string) error {
	if err := l.rdb.Set(ctx, eventKey(eventID), time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark event: %w", err)
	}
	return nil
}
