package rankings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMirror：以 JSON 形式把快照写入 Redis，多实例共享
// 约束：键为 prefix+division；过期时间远长于缓存 TTL，用作上游故障时的回退
type RedisMirror struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisMirror(rc *redis.Client, prefix string, ttl time.Duration) *RedisMirror {
	if prefix == "" {
		prefix = "vbglobe:rankings:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMirror{rc: rc, prefix: prefix, ttl: ttl}
}

func (m *RedisMirror) key(d Division) string { return m.prefix + string(d) }

func (m *RedisMirror) Save(ctx context.Context, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return m.rc.Set(ctx, m.key(snap.Division), string(b), m.ttl).Err()
}

// Load：键不存在返回 (nil, nil)
func (m *RedisMirror) Load(ctx context.Context, d Division) (*Snapshot, error) {
	s, err := m.rc.Get(ctx, m.key(d)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(s), &snap); err != nil {
		return nil, err
	}
	if snap.Division != d {
		return nil, nil
	}
	return &snap, nil
}
