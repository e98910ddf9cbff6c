package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roomspot-sniper/internal/model"
)

const DefaultKey = "roomspot:seen_listings"

const connectionTimeout = 5 * time.Second

var ErrEmptyAddress = errors.New("redis address is required")

type Config struct {
	Address  string
	Password string
	DB       int
}

func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// SeenRepository stores the seen-set as a single Redis list.
type SeenRepository struct {
	client redis.UniversalClient
	key    string
}

func NewSeenRepository(client redis.UniversalClient, key string) *SeenRepository {
	if key == "" {
		key = DefaultKey
	}
	return &SeenRepository{client: client, key: key}
}

func (r *SeenRepository) Load(ctx context.Context) (*model.SeenSet, error) {
	ids, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read seen list: %w", err)
	}
	return model.NewSeenSet(ids), nil
}

// Save swaps the list in one MULTI/EXEC so readers never see a partial set.
func (r *SeenRepository) Save(ctx context.Context, seen *model.SeenSet) error {
	ids := seen.IDs()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(ids) == 0 {
			return nil
		}
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = id
		}
		pipe.RPush(ctx, r.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write seen list: %w", err)
	}
	return nil
}
