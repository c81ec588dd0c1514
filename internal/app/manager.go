package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"restaurant_reviews/internal/adapters/observability"
	"restaurant_reviews/internal/domain"
)

// ErrorPolicy decides what happens to store failures during Load and Save.
type ErrorPolicy int

const (
	// PolicyBestEffort logs store failures and carries on with whatever state
	// is in memory.
	PolicyBestEffort ErrorPolicy = iota
	// PolicyFailFast returns store failures to the caller.
	PolicyFailFast
)

// ParsePolicy maps "fail-fast" (any case) to PolicyFailFast and everything
// else to PolicyBestEffort. Callers taking user input validate it first.
func ParsePolicy(s string) ErrorPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "fail-fast") {
		return PolicyFailFast
	}
	return PolicyBestEffort
}

func (p ErrorPolicy) String() string {
	if p == PolicyFailFast {
		return "fail-fast"
	}
	return "best-effort"
}

// ReviewManager is the single owner of the review collection and its backing
// store. Every mutation rewrites the whole store before returning.
type ReviewManager struct {
	mu      sync.Mutex
	store   domain.ReviewStore
	policy  ErrorPolicy
	log     zerolog.Logger
	reviews []domain.Review
	nextID  int64
}

type Option func(*ReviewManager)

func WithPolicy(p ErrorPolicy) Option { return func(m *ReviewManager) { m.policy = p } }

func WithLogger(l zerolog.Logger) Option { return func(m *ReviewManager) { m.log = l } }

// NewReviewManager builds a manager over store and loads it eagerly.
func NewReviewManager(ctx context.Context, store domain.ReviewStore, opts ...Option) (*ReviewManager, error) {
	m := &ReviewManager{store: store, log: log.Logger, nextID: 1}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With().Str("store", store.Name()).Logger()
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Load replaces the in-memory collection with the store contents. Records read
// before a failure are kept under either policy.
func (m *ReviewManager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	rs, err := m.store.Load(ctx)
	observability.ObserveStore(m.store.Name(), "load", err, time.Since(start))

	m.reviews = rs
	for _, r := range rs {
		if r.ID >= m.nextID {
			m.nextID = r.ID + 1
		}
	}
	observability.SetReviewCount(len(m.reviews))

	if err != nil {
		return m.fail(err, "load", len(rs))
	}
	m.log.Debug().Int("reviews", len(rs)).Int64("next_id", m.nextID).Msg("reviews loaded")
	return nil
}

// Save rewrites the store with the current collection.
func (m *ReviewManager) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(ctx)
}

// save runs even when ctx is already cancelled: the mutation is in memory by
// now and has to reach the store.
func (m *ReviewManager) save(ctx context.Context) error {
	start := time.Now()
	err := m.store.Save(context.WithoutCancel(ctx), m.reviews)
	observability.ObserveStore(m.store.Name(), "save", err, time.Since(start))
	observability.SetReviewCount(len(m.reviews))
	if err != nil {
		return m.fail(err, "save", len(m.reviews))
	}
	return nil
}

func (m *ReviewManager) fail(err error, op string, n int) error {
	if m.policy == PolicyFailFast {
		return err
	}
	m.log.Error().Err(err).Str("op", op).Int("reviews", n).Msg("store operation failed; continuing with in-memory state")
	return nil
}

// AddReview appends a review under the next id and persists.
func (m *ReviewManager) AddReview(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := domain.Review{ID: m.nextID}
	r.Apply(in)
	m.nextID++
	m.reviews = append(m.reviews, r)
	return r, m.save(ctx)
}

// UpdateReview overwrites the first review with id. A missing id is not an
// error; found reports whether anything changed. The store is rewritten
// either way.
func (m *ReviewManager) UpdateReview(ctx context.Context, id int64, in domain.ReviewInput) (found bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.reviews {
		if m.reviews[i].ID == id {
			m.reviews[i].Apply(in)
			found = true
			break
		}
	}
	return found, m.save(ctx)
}

// DeleteReview removes every review with id and reports how many went.
func (m *ReviewManager) DeleteReview(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.reviews[:0]
	for _, r := range m.reviews {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	removed := len(m.reviews) - len(kept)
	clear(m.reviews[len(kept):])
	m.reviews = kept
	return removed, m.save(ctx)
}

// GetReviews returns a copy of the collection in insertion order.
func (m *ReviewManager) GetReviews() []domain.Review {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Review, len(m.reviews))
	copy(out, m.reviews)
	return out
}

func (m *ReviewManager) GetReview(id int64) (domain.Review, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Review{}, false
}

// NextID is the id the next AddReview will assign.
func (m *ReviewManager) NextID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}
