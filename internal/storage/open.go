// Package storage picks the backing store named by configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	redisad "restaurant_reviews/internal/adapters/redis"
	"restaurant_reviews/internal/domain"
	"restaurant_reviews/internal/shared"
	mysqlrepo "restaurant_reviews/internal/storage/mysql"
	"restaurant_reviews/internal/storage/textfile"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the configured store and a Closer for its connections.
func Open(ctx context.Context, cfg shared.Config) (domain.ReviewStore, io.Closer, error) {
	switch cfg.StoreDriver {
	case shared.DriverMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db), db, nil

	case shared.DriverRedis:
		st := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.RedisKey)
		return st, st, nil

	default:
		return textfile.New(cfg.ReviewsFile), nopCloser{}, nil
	}
}
