package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/models"
)

// ErrEventNotFound is returned when a mutation targets an unknown event id.
var ErrEventNotFound = errors.New("calendar event not found")

// KV abstracts the single-key storage backend holding the serialized event
// collection. Missing keys are reported as (nil, nil).
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisKV adapts a Redis client to the KV interface.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps the given client.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

// Get returns the raw value or (nil, nil) when the key does not exist.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Set overwrites the value stored under key.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// EventStore persists the calendar event collection as one JSON document
// under a single key. Every mutation rewrites the entire collection, so
// callers always observe a consistent snapshot. A process-local mutex
// serializes read-modify-write cycles between the HTTP surface and the
// publish reconciler.
type EventStore struct {
	kv     KV
	key    string
	logger *zap.Logger

	mu sync.Mutex
}

// NewEventStore constructs the store.
func NewEventStore(kv KV, key string, logger *zap.Logger) *EventStore {
	if key == "" {
		key = "fhj:calendar:events"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStore{kv: kv, key: key, logger: logger}
}

// Load reads the persisted collection. A missing key or an unparseable
// payload yields an empty collection rather than an error, so a corrupt
// document never takes the admin surface down. Backend failures propagate.
func (s *EventStore) Load(ctx context.Context) ([]models.CalendarEvent, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []models.CalendarEvent{}, nil
	}
	var events []models.CalendarEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		s.logger.Warn("discarding malformed calendar payload", zap.String("key", s.key), zap.Error(err))
		return []models.CalendarEvent{}, nil
	}
	return events, nil
}

// ReplaceAll serializes and overwrites the entire collection.
func (s *EventStore) ReplaceAll(ctx context.Context, events []models.CalendarEvent) error {
	if events == nil {
		events = []models.CalendarEvent{}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal calendar events: %w", err)
	}
	return s.kv.Set(ctx, s.key, raw)
}

// Create appends one event with a generated id and persists the collection.
func (s *EventStore) Create(ctx context.Context, event models.CalendarEvent) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	events = append(events, event)
	if err := s.ReplaceAll(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update shallow-merges the patch into the event matching id and persists
// the full collection.
func (s *EventStore) Update(ctx context.Context, id string, patch models.CalendarEventPatch) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range events {
		if events[i].ID != id {
			continue
		}
		if patch.Title != nil {
			events[i].Title = *patch.Title
		}
		if patch.ScheduledDate != nil {
			events[i].ScheduledDate = *patch.ScheduledDate
		}
		if patch.Platform != nil {
			events[i].Platform = *patch.Platform
		}
		if patch.Status != nil {
			events[i].Status = *patch.Status
		}
		events[i].UpdatedAt = time.Now().UTC()
		found = true
		break
	}
	if !found {
		return nil, ErrEventNotFound
	}
	if err := s.ReplaceAll(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// Delete removes the event matching id and persists the full collection.
func (s *EventStore) Delete(ctx context.Context, id string) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]models.CalendarEvent, 0, len(events))
	for _, event := range events {
		if event.ID != id {
			kept = append(kept, event)
		}
	}
	if len(kept) == len(events) {
		return nil, ErrEventNotFound
	}
	if err := s.ReplaceAll(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}
