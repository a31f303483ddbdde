package sourcestate

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"microsoc/pkg/models"
)

// Config configures Redis access for the per-source state index.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// SourceState is the compact per-address counter record kept in Redis for
// external dashboards and periodic analysis.
type SourceState struct {
	SourceAddress string    `json:"source_address"`
	EventCount    int64     `json:"event_count"`
	MaxAbuseScore int       `json:"max_abuse_score"`
	FirstSeen     time.Time `json:"first_seen,omitempty"`
	LastSeen      time.Time `json:"last_seen,omitempty"`
}

// RedisStore maintains per-source counters and a leaderboard sorted set.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Redis-backed source-state store.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "microsoc:source_state"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis source-state: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix)}, nil
}

// WriteEvents updates source counters from a batch of enriched events.
func (s *RedisStore) WriteEvents(events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ctx := context.Background()
	pipe := s.client.Pipeline()

	for _, event := range events {
		addr := strings.TrimSpace(event.SourceAddress)
		if addr == "" {
			continue
		}

		key := s.sourceKey(addr)
		ts := event.Timestamp.Unix()

		pipe.HIncrBy(ctx, key, "event_count", 1)
		pipe.HIncrBy(ctx, key, "severity:"+strings.ToLower(string(event.Severity)), 1)
		pipe.HSetNX(ctx, key, "first_seen", ts)
		pipe.HSet(ctx, key, "last_seen", ts, "origin_region", event.OriginRegion)
		pipe.ZIncrBy(ctx, s.leaderboardKey(), 1, addr)
		// GT policy keeps the per-address maximum observed abuse score.
		pipe.ZAddGT(ctx, s.abuseScoreKey(), redis.Z{Score: float64(event.AbuseScore), Member: addr})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write source state: %w", err)
	}
	return nil
}

// TopSources returns the n most active source addresses.
func (s *RedisStore) TopSources(ctx context.Context, n int) ([]SourceState, error) {
	if n <= 0 {
		n = 10
	}

	members, err := s.client.ZRevRangeWithScores(ctx, s.leaderboardKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read source leaderboard: %w", err)
	}

	out := make([]SourceState, 0, len(members))
	for _, member := range members {
		addr, ok := member.Member.(string)
		if !ok {
			continue
		}
		out = append(out, SourceState{
			SourceAddress: addr,
			EventCount:    int64(member.Score),
		})
	}
	return out, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) sourceKey(addr string) string {
	return s.prefix + ":" + addr
}

func (s *RedisStore) leaderboardKey() string {
	return s.prefix + ":leaderboard"
}

func (s *RedisStore) abuseScoreKey() string {
	return s.prefix + ":abuse_scores"
}
