package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
	"github.com/hostfolio-ai/guest-knowledge/pkg/metrics"
)

// KnowledgeStore persists knowledge items and maintains the secondary index
// lists (thread, booking->threads, booking->items, property->items) plus the
// property-context blob.
//
// Index lists carry the same long expiry as items. An index entry does not
// guarantee the referenced item still exists; readers drop missing items
// rather than erroring.
type KnowledgeStore struct {
	kv     KV
	ttl    time.Duration
	logger *logger.Logger
}

// NewKnowledgeStore creates a knowledge store over the given KV binding.
func NewKnowledgeStore(kv KV, ttl time.Duration, log *logger.Logger) *KnowledgeStore {
	return &KnowledgeStore{kv: kv, ttl: ttl, logger: log}
}

func itemKey(id string) string        { return "ki:" + id }
func threadKey(id string) string      { return "idx:thread:" + id }
func bookingThreadsKey(id string) string { return "idx:booking:" + id + ":threads" }
func bookingItemsKey(id string) string   { return "idx:booking:" + id + ":items" }
func propertyItemsKey(id string) string  { return "idx:property:" + id + ":items" }
func propertyContextKey(id string) string { return "property:" + id + ":context" }

// newKnowledgeID builds a time-prefixed id: sortable enough for the
// insertion-order window, not strictly monotonic under clock skew.
func newKnowledgeID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ki_%d_%s", time.Now().UnixMilli(), suffix)
}

// Store writes the item and updates every index its correlation keys call
// for, returning the final id. The id is assigned on first store only;
// re-storing with a pre-assigned id overwrites the primary record and leaves
// the (membership-checked) index lists duplicate-free.
func (s *KnowledgeStore) Store(ctx context.Context, item *model.KnowledgeItem) (string, error) {
	start := time.Now()

	if item.ID == "" {
		item.ID = newKnowledgeID()
	}

	data, err := json.Marshal(item)
	if err != nil {
		metrics.RecordStoreOp("store", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("marshal knowledge item: %w", err)
	}

	if err := s.kv.Put(ctx, itemKey(item.ID), data, s.ttl); err != nil {
		metrics.RecordStoreOp("store", "error", time.Since(start).Seconds())
		return "", err
	}

	type indexAppend struct {
		key    string
		member string
	}
	var appends []indexAppend
	if item.ExternalThreadID != "" {
		appends = append(appends, indexAppend{threadKey(item.ExternalThreadID), item.ID})
	}
	if item.BookingID != "" {
		if item.ExternalThreadID != "" {
			appends = append(appends, indexAppend{bookingThreadsKey(item.BookingID), item.ExternalThreadID})
		}
		appends = append(appends, indexAppend{bookingItemsKey(item.BookingID), item.ID})
	}
	if item.PropertyID != "" {
		appends = append(appends, indexAppend{propertyItemsKey(item.PropertyID), item.ID})
	}

	for _, a := range appends {
		if _, err := s.kv.ListAppend(ctx, a.key, a.member, s.ttl); err != nil {
			metrics.RecordStoreOp("store", "error", time.Since(start).Seconds())
			return "", fmt.Errorf("index append %s: %w", a.key, err)
		}
	}

	metrics.RecordStoreOp("store", "ok", time.Since(start).Seconds())
	return item.ID, nil
}

// Get fetches a single item by id.
func (s *KnowledgeStore) Get(ctx context.Context, id string) (*model.KnowledgeItem, error) {
	raw, err := s.kv.Get(ctx, itemKey(id))
	if err != nil {
		return nil, err
	}
	var item model.KnowledgeItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("unmarshal knowledge item %s: %w", id, err)
	}
	return &item, nil
}

// fetchItems resolves ids to items, dropping index entries whose item is
// gone. Stale entries happen; they are logged at debug, not surfaced.
func (s *KnowledgeStore) fetchItems(ctx context.Context, ids []string) ([]model.KnowledgeItem, error) {
	items := make([]model.KnowledgeItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("index entry references missing item", zap.String("id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// GetThreadItems returns all items recorded for an external thread id,
// ascending by created_at.
func (s *KnowledgeStore) GetThreadItems(ctx context.Context, threadID string) ([]model.KnowledgeItem, error) {
	start := time.Now()
	ids, err := s.kv.ListGet(ctx, threadKey(threadID))
	if err != nil {
		metrics.RecordStoreOp("get_thread", "error", time.Since(start).Seconds())
		return nil, err
	}
	items, err := s.fetchItems(ctx, ids)
	if err != nil {
		metrics.RecordStoreOp("get_thread", "error", time.Since(start).Seconds())
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	metrics.RecordStoreOp("get_thread", "ok", time.Since(start).Seconds())
	return items, nil
}

// GetBookingItems returns the thread ids and items recorded for a booking.
// The two lists come from separate index keys that stay consistent by
// construction in Store.
func (s *KnowledgeStore) GetBookingItems(ctx context.Context, bookingID string) ([]string, []model.KnowledgeItem, error) {
	start := time.Now()
	threadIDs, err := s.kv.ListGet(ctx, bookingThreadsKey(bookingID))
	if err != nil {
		metrics.RecordStoreOp("get_booking", "error", time.Since(start).Seconds())
		return nil, nil, err
	}
	ids, err := s.kv.ListGet(ctx, bookingItemsKey(bookingID))
	if err != nil {
		metrics.RecordStoreOp("get_booking", "error", time.Since(start).Seconds())
		return nil, nil, err
	}
	items, err := s.fetchItems(ctx, ids)
	if err != nil {
		metrics.RecordStoreOp("get_booking", "error", time.Since(start).Seconds())
		return nil, nil, err
	}
	metrics.RecordStoreOp("get_booking", "ok", time.Since(start).Seconds())
	return threadIDs, items, nil
}

// GetPropertyItems returns items recorded for a property, newest first.
//
// The limit is a count window over the tail of the id list in insertion
// order (newest-last), applied before fetching. When items arrive out of
// timestamp order the window can omit genuinely recent items; this matches
// the behavior retrieval consumers already depend on and is flagged in
// DESIGN.md pending product confirmation.
func (s *KnowledgeStore) GetPropertyItems(ctx context.Context, propertyID string, limit int) ([]model.KnowledgeItem, error) {
	start := time.Now()
	ids, err := s.kv.ListGet(ctx, propertyItemsKey(propertyID))
	if err != nil {
		metrics.RecordStoreOp("get_property", "error", time.Since(start).Seconds())
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	items, err := s.fetchItems(ctx, ids)
	if err != nil {
		metrics.RecordStoreOp("get_property", "error", time.Since(start).Seconds())
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	metrics.RecordStoreOp("get_property", "ok", time.Since(start).Seconds())
	return items, nil
}

// GetPropertyContext reads the free-text context blob for a property.
// Returns "" when none is set.
func (s *KnowledgeStore) GetPropertyContext(ctx context.Context, propertyID string) (string, error) {
	raw, err := s.kv.Get(ctx, propertyContextKey(propertyID))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// StorePropertyContext writes the free-text context blob for a property.
func (s *KnowledgeStore) StorePropertyContext(ctx context.Context, propertyID, text string) error {
	return s.kv.Put(ctx, propertyContextKey(propertyID), []byte(text), s.ttl)
}
