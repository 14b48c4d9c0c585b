package fallback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"faultdesk/internal/models"
)

const (
	redisAuditKey     = "faultdesk:audit_logs"
	redisNoteOwnerKey = "faultdesk:note_owner"
	redisNotesPrefix  = "faultdesk:notes:"
)

// RedisCache stores the fallback copy in Redis. Audit entries live in a sorted
// set scored by timestamp; notes live in one hash per owner.
type RedisCache struct {
	client     *redis.Client
	maxEntries int
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr string, db, maxEntries int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to fallback redis at %s: %w", addr, err)
	}
	return NewRedisCache(client, maxEntries), nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, maxEntries int) *RedisCache {
	return &RedisCache{client: client, maxEntries: maxEntries}
}

func notesKey(userID string) string {
	return redisNotesPrefix + userID
}

// AppendAuditLog adds l and trims the oldest entries beyond maxEntries.
func (c *RedisCache) AppendAuditLog(ctx context.Context, l *models.AuditLog) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, redisAuditKey, redis.Z{Score: float64(l.Timestamp.UnixNano()), Member: data})
	if c.maxEntries > 0 {
		pipe.ZRemRangeByRank(ctx, redisAuditKey, 0, int64(-c.maxEntries-1))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ListAuditLogs returns at most limit entries, newest first.
func (c *RedisCache) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	members, err := c.client.ZRevRange(ctx, redisAuditKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	logs := make([]models.AuditLog, 0, len(members))
	for _, m := range members {
		var l models.AuditLog
		if err := json.Unmarshal([]byte(m), &l); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// DeleteAuditLogsByUser removes the entries written by userID.
func (c *RedisCache) DeleteAuditLogsByUser(ctx context.Context, userID string) error {
	members, err := c.client.ZRange(ctx, redisAuditKey, 0, -1).Result()
	if err != nil {
		return err
	}
	var doomed []interface{}
	for _, m := range members {
		var l models.AuditLog
		if err := json.Unmarshal([]byte(m), &l); err == nil && l.UserID == userID {
			doomed = append(doomed, m)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	return c.client.ZRem(ctx, redisAuditKey, doomed...).Err()
}

// UpsertNote inserts or replaces n.
func (c *RedisCache) UpsertNote(ctx context.Context, n *models.Note) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, notesKey(n.UserID), n.ID, data)
	pipe.HSet(ctx, redisNoteOwnerKey, n.ID, n.UserID)
	_, err = pipe.Exec(ctx)
	return err
}

// ListNotes returns userID's notes. Callers sort them.
func (c *RedisCache) ListNotes(ctx context.Context, userID string) ([]models.Note, error) {
	values, err := c.client.HGetAll(ctx, notesKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	notes := make([]models.Note, 0, len(values))
	for _, v := range values {
		var n models.Note
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// DeleteNote removes the note with id.
func (c *RedisCache) DeleteNote(ctx context.Context, id string) error {
	owner, err := c.client.HGet(ctx, redisNoteOwnerKey, id).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.HDel(ctx, notesKey(owner), id)
	pipe.HDel(ctx, redisNoteOwnerKey, id)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteNotesByUser removes every note owned by userID.
func (c *RedisCache) DeleteNotesByUser(ctx context.Context, userID string) error {
	ids, err := c.client.HKeys(ctx, notesKey(userID)).Result()
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, notesKey(userID))
	if len(ids) > 0 {
		pipe.HDel(ctx, redisNoteOwnerKey, ids...)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
