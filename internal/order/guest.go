package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GuestContact is the side-channel record that lets a guest track an
// order placed without an account. It is keyed by order id and expires
// with the session store's TTL.
type GuestContact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// GuestContactStore persists guest contact details outside the order
// row so guest orders carry no account linkage.
type GuestContactStore interface {
	Put(ctx context.Context, orderID int, contact GuestContact) error
	Get(ctx context.Context, orderID int) (GuestContact, bool, error)
}

func guestKey(orderID int) string { return fmt.Sprintf("guest:order:%d", orderID) }

// RedisGuestContactStore keeps guest contacts in redis with a TTL.
type RedisGuestContactStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuestContactStore(rdb *redis.Client, ttl time.Duration) *RedisGuestContactStore {
	return &RedisGuestContactStore{rdb: rdb, ttl: ttl}
}

func (s *RedisGuestContactStore) Put(ctx context.Context, orderID int, contact GuestContact) error {
	raw, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("encode guest contact: %w", err)
	}
	if err := s.rdb.Set(ctx, guestKey(orderID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save guest contact for order %d: %w", orderID, err)
	}
	return nil
}

func (s *RedisGuestContactStore) Get(ctx context.Context, orderID int) (GuestContact, bool, error) {
	raw, err := s.rdb.Get(ctx, guestKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return GuestContact{}, false, nil
	}
	if err != nil {
		return GuestContact{}, false, fmt.Errorf("load guest contact for order %d: %w", orderID, err)
	}
	var contact GuestContact
	if err := json.Unmarshal([]byte(raw), &contact); err != nil {
		return GuestContact{}, false, fmt.Errorf("decode guest contact for order %d: %w", orderID, err)
	}
	return contact, true, nil
}

// InMemoryGuestContactStore is used for tests.
type InMemoryGuestContactStore struct {
	mu       sync.RWMutex
	contacts map[int]GuestContact
}

func NewInMemoryGuestContactStore() *InMemoryGuestContactStore {
	return &InMemoryGuestContactStore{contacts: make(map[int]GuestContact)}
}

func (s *InMemoryGuestContactStore) Put(_ context.Context, orderID int, contact GuestContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[orderID] = contact
	return nil
}

func (s *InMemoryGuestContactStore) Get(_ context.Context, orderID int) (GuestContact, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[orderID]
	return contact, ok, nil
}
