package inquiries

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
)

// Repository defines the interface for inquiry storage
type Repository interface {
	Create(ctx context.Context, draft inquiry.Draft) (*Inquiry, error)
	GetByID(ctx context.Context, id string) (*Inquiry, error)
	List(ctx context.Context, filter ListFilter) ([]*Inquiry, error)
}

// InMemoryRepository keeps inquiries in process memory. Used when no database is configured.
type InMemoryRepository struct {
	mu        sync.RWMutex
	inquiries map[string]*Inquiry
	now       func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		inquiries: make(map[string]*Inquiry),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new inquiry.
func (r *InMemoryRepository) Create(ctx context.Context, draft inquiry.Draft) (*Inquiry, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	inq := newInquiry(uuid.New().String(), draft, r.now())

	r.mu.Lock()
	r.inquiries[inq.ID] = inq
	r.mu.Unlock()

	copied := *inq
	return &copied, nil
}

// GetByID retrieves an inquiry by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Inquiry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inq, ok := r.inquiries[id]
	if !ok {
		return nil, ErrInquiryNotFound
	}
	copied := *inq
	return &copied, nil
}

// List returns inquiries newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Inquiry, error) {
	filter = filter.normalized()

	r.mu.RLock()
	matched := make([]*Inquiry, 0, len(r.inquiries))
	for _, inq := range r.inquiries {
		if filter.Category != "" && inq.Category != filter.Category {
			continue
		}
		copied := *inq
		matched = append(matched, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []*Inquiry{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}
