// Package livecache mirrors the latest timer snapshot into Redis so other
// back-office processes can read it cheaply. It is a read-only mirror, not a
// coordination mechanism: this service remains the single writer and works
// fine with no Redis at all.
package livecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"platewatch/sla"
)

const (
	timersKey  = "platewatch:timers"
	overdueKey = "platewatch:overdue"
	updatedKey = "platewatch:updated_at"

	// Snapshots go stale fast; let Redis drop them if we stop publishing.
	snapshotTTL = 30 * time.Second
)

type Snapshot struct {
	Timers     []sla.Timer `json:"timers"`
	OverdueIDs []string    `json:"overdue_ids"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type Cache struct {
	client *redis.Client
}

// New wraps a Redis client. A nil client disables the cache entirely.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

// Publish stores the snapshot, replacing the previous one wholesale.
func (c *Cache) Publish(ctx context.Context, snap Snapshot) error {
	if !c.Enabled() {
		return nil
	}
	timers, err := json.Marshal(snap.Timers)
	if err != nil {
		return err
	}
	overdue, err := json.Marshal(snap.OverdueIDs)
	if err != nil {
		return err
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, timersKey, timers, snapshotTTL)
	pipe.Set(ctx, overdueKey, overdue, snapshotTTL)
	pipe.Set(ctx, updatedKey, snap.UpdatedAt.UTC().Format(time.RFC3339Nano), snapshotTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Clear drops the published snapshot. Called when the watcher goes idle so
// mirror readers see an empty kitchen, not a stale one.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, timersKey, overdueKey, updatedKey).Err()
}
