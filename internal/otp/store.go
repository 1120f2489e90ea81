// Package otp issues short-lived single-use numeric codes kept in Redis as bcrypt hashes.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTTL   = 5 * time.Minute
	codeDigits   = 6
	maxCASRounds = 8
)

type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
	cost   int
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithCost(cost int) Option {
	return func(s *Store) {
		s.cost = cost
	}
}

func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		ttl:    DefaultTTL,
		cost:   bcrypt.DefaultCost,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func Key(subject string) string {
	return "otp:" + strings.ToLower(strings.TrimSpace(subject))
}

// Issue replaces any outstanding code for subject and returns the new one.
func (s *Store) Issue(ctx context.Context, subject string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", err
	}

	err = s.client.Set(ctx, Key(subject), hash, s.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("storing one-time code: %w", err)
	}

	return code, nil
}

// Consume verifies code and deletes it on success. A wrong code leaves the stored code in place.
func (s *Store) Consume(ctx context.Context, subject, code string) error {
	key := Key(subject)

	for range maxCASRounds {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			hash, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return domain.ErrOTPNotFound
				}
				return err
			}

			if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
				return domain.ErrOTPMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return domain.ErrOTPNotFound
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
