// Package redis stores session carts in Redis as JSON documents.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
)

const (
	keyPrefix = "cart:"
	// maxAttempts bounds optimistic retries when concurrent requests for
	// the same session touch the cart between WATCH and EXEC.
	maxAttempts = 3
)

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client   *redis.Client
	ttl      time.Duration
	currency string
	now      func() time.Time
}

// NewCartRepository creates a Redis-backed cart repository. Carts expire
// ttl after their last update.
func NewCartRepository(client *redis.Client, ttl time.Duration, currency string) *CartRepository {
	return &CartRepository{
		client:   client,
		ttl:      ttl,
		currency: currency,
		now:      time.Now,
	}
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func cartKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Get returns the stored cart, or a fresh empty cart.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return r.load(ctx, r.client, sessionID)
}

// Update applies fn to the session's cart under WATCH and writes the result
// in a MULTI/EXEC block. A write from another request between the read and
// the EXEC aborts the transaction and the update is replayed.
func (r *CartRepository) Update(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	key := cartKey(sessionID)
	var updated *domain.Cart

	txf := func(tx *redis.Tx) error {
		cart, err := r.load(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			if errors.Is(err, repository.ErrCartUnchanged) {
				updated = cart
				return nil
			}
			return err
		}

		now := r.now().UTC()
		cart.UpdatedAt = now
		cart.ExpiresAt = now.Add(r.ttl)

		data, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if cart.IsEmpty() {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = cart
		return nil
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, repository.ErrCartContention
}

func (r *CartRepository) load(ctx context.Context, c getter, sessionID string) (*domain.Cart, error) {
	data, err := c.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewCart(sessionID, r.currency), nil
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return &cart, nil
}
