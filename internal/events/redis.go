package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisEmitter struct {
	client redis.UniversalClient
}

func NewRedisEmitter(client redis.UniversalClient) *RedisEmitter {
	return &RedisEmitter{client: client}
}

func (e *RedisEmitter) Emit(ctx context.Context, name string, payload any) error {
	env, err := NewEnvelope(name, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	err = e.client.Publish(ctx, Channel(name), data).Err()
	if err != nil {
		return fmt.Errorf("publishing %s to redis: %w", name, err)
	}

	return nil
}
