package pricing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository with the same contract as the
// Postgres one, used by the package tests.
type MemoryRepository struct {
	mu       sync.Mutex
	seq      int64
	products map[int64]Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[int64]Product)}
}

func (m *MemoryRepository) FindAll(ctx context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FindAll(ctx)
}

func (m *MemoryRepository) FindByID(ctx context.Context, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FindByID(ctx, id)
}

func (m *MemoryRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().ExistsByID(ctx, id)
}

func (m *MemoryRepository) Save(ctx context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view := m.view()
	saved, err := view.Save(ctx, p)
	if err != nil {
		return Product{}, err
	}
	m.seq = view.seq
	return saved, nil
}

func (m *MemoryRepository) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteByID(ctx, id)
}

// WithTx stages fn's writes on a copy of the catalog and swaps it in only
// when fn succeeds, mirroring transactional commit and rollback.
func (m *MemoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &memStore{seq: m.seq, products: make(map[int64]Product, len(m.products))}
	for id, p := range m.products {
		staged.products[id] = p
	}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	m.seq = staged.seq
	m.products = staged.products
	return nil
}

// view exposes the live map through the Store implementation. Callers hold
// m.mu for the duration.
func (m *MemoryRepository) view() *memStore {
	return &memStore{seq: m.seq, products: m.products}
}

type memStore struct {
	seq      int64
	products map[int64]Product
}

func (s *memStore) FindAll(_ context.Context) ([]Product, error) {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (Product, error) {
	p, ok := s.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return p, nil
}

func (s *memStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	_, ok := s.products[id]
	return ok, nil
}

func (s *memStore) Save(_ context.Context, p Product) (Product, error) {
	for id, existing := range s.products {
		if existing.Name == p.Name && id != p.ID {
			return Product{}, fmt.Errorf("%w: name %q", ErrAlreadyExists, p.Name)
		}
	}

	now := time.Now().UTC()
	if p.ID == 0 {
		s.seq++
		p.ID = s.seq
		p.CreatedAt = now
	} else if _, ok := s.products[p.ID]; !ok {
		return Product{}, fmt.Errorf("%w: id %d", ErrNotFound, p.ID)
	}
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p, nil
}

func (s *memStore) DeleteByID(_ context.Context, id int64) error {
	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	delete(s.products, id)
	return nil
}
