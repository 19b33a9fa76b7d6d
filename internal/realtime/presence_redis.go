package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const presenceKeyPrefix = "presence:"

// RedisPresenceStore keeps one hash per organization: presence:<orgId> -> userId -> {status, lastSeen}
type RedisPresenceStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisPresenceStore(client *redis.Client, logger *zap.Logger) *RedisPresenceStore {
	return &RedisPresenceStore{client: client, logger: logger}
}

type presenceValue struct {
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"lastSeen"`
}

func presenceKey(organizationID uuid.UUID) string {
	return presenceKeyPrefix + organizationID.String()
}

func (s *RedisPresenceStore) Set(ctx context.Context, organizationID uuid.UUID, p Presence) error {
	value, err := json.Marshal(presenceValue{Status: p.Status, LastSeen: p.LastSeen})
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, presenceKey(organizationID), p.UserID.String(), value).Err(); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (s *RedisPresenceStore) List(ctx context.Context, organizationID uuid.UUID) ([]Presence, error) {
	fields, err := s.client.HGetAll(ctx, presenceKey(organizationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}
	out := make([]Presence, 0, len(fields))
	for field, raw := range fields {
		p, ok := s.decode(field, raw)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	sortPresence(out)
	return out, nil
}

func (s *RedisPresenceStore) SweepOffline(ctx context.Context, before time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, presenceKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to read %s: %w", key, err)
		}
		var stale []string
		for field, raw := range fields {
			p, ok := s.decode(field, raw)
			if !ok || (p.Status == StatusOffline && p.LastSeen.Before(before)) {
				stale = append(stale, field)
			}
		}
		if len(stale) == 0 {
			continue
		}
		n, err := s.client.HDel(ctx, key, stale...).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to sweep %s: %w", key, err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan presence keys: %w", err)
	}
	return removed, nil
}

func (s *RedisPresenceStore) decode(field, raw string) (Presence, bool) {
	userID, err := uuid.Parse(field)
	if err != nil {
		s.logger.Warn("Ignoring malformed presence field", zap.String("field", field))
		return Presence{}, false
	}
	var v presenceValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn("Ignoring malformed presence value", zap.String("field", field), zap.Error(err))
		return Presence{}, false
	}
	return Presence{UserID: userID, Status: v.Status, LastSeen: v.LastSeen}, true
}
