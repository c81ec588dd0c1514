package redisad

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"restaurant_reviews/internal/domain"
)

// Store keeps the encoded review lines in a single Redis list.
type Store struct {
	c   *redis.Client
	key string
}

func New(addr, pass string, db int, key string) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), key)
}

func NewWithClient(c *redis.Client, key string) *Store {
	if key == "" {
		key = "reviews:lines"
	}
	return &Store{c: c, key: key}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) Close() error { return s.c.Close() }

func (s *Store) Load(ctx context.Context) ([]domain.Review, error) {
	lines, err := s.c.LRange(ctx, s.key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make([]domain.Review, 0, len(lines))
	for i, line := range lines {
		if line == "" {
			continue
		}
		r, err := domain.DecodeLine(line)
		if err != nil {
			var de *domain.DecodeError
			if errors.As(err, &de) {
				de.Line = i + 1
			}
			return out, fmt.Errorf("redis %s: %w", s.key, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Save swaps the list contents atomically (DEL + RPUSH in MULTI/EXEC).
func (s *Store) Save(ctx context.Context, rs []domain.Review) error {
	vals := make([]any, 0, len(rs))
	for _, r := range rs {
		vals = append(vals, domain.EncodeLine(r))
	}
	_, err := s.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key)
		if len(vals) > 0 {
			p.RPush(ctx, s.key, vals...)
		}
		return nil
	})
	return err
}
