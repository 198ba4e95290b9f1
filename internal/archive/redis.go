package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink keeps completed games as JSON blobs with a TTL plus a
// per-player index set, so recent results can be listed per identity.
type RedisSink struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSink connects to redisURL ("redis://host:port/db") and pings
// it once before accepting records.
func NewRedisSink(redisURL string, ttl time.Duration) (*RedisSink, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSink{rdb: rdb, ttl: ttl}, nil
}

func (s *RedisSink) SaveResult(ctx context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, gameKey(rec.RoomID), raw, s.ttl).Err(); err != nil {
		return err
	}
	for _, player := range []string{rec.White, rec.Black} {
		if strings.TrimSpace(player) == "" {
			continue
		}
		key := playerKey(player)
		if err := s.rdb.SAdd(ctx, key, rec.RoomID).Err(); err != nil {
			return err
		}
		// refresh the index TTL alongside the game TTL so indexes do
		// not outlive the records they point at
		_ = s.rdb.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

// Load fetches a stored record, nil when absent or expired.
func (s *RedisSink) Load(ctx context.Context, roomID string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, gameKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GamesByPlayer lists the room ids archived for a player identity.
func (s *RedisSink) GamesByPlayer(ctx context.Context, player string) ([]string, error) {
	return s.rdb.SMembers(ctx, playerKey(player)).Result()
}

func (s *RedisSink) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func gameKey(id string) string       { return "arena:game:" + strings.TrimSpace(id) }
func playerKey(player string) string { return "arena:index:player:" + strings.TrimSpace(player) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
