package service

import (
	"sort"
	"sync"
	"time"

	"github.com/freshfinds/catalog_server/internal/domain"
)

// Mock ProductRepository for testing
type mockProductRepository struct {
	mu         sync.Mutex
	products   map[int64]*domain.Product
	nextID     int64
	lastFilter *domain.ProductFilter
	failErr    error // when set, every method fails with this error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[int64]*domain.Product),
		nextID:   1,
	}
}

// baseTime anchors deterministic store-managed timestamps.
var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func (m *mockProductRepository) Create(product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}

	product.ID = m.nextID
	product.CreatedAt = baseTime.Add(time.Duration(m.nextID) * time.Second)
	product.UpdatedAt = product.CreatedAt
	m.nextID++

	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) GetByID(id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}

	product, exists := m.products[id]
	if !exists {
		return nil, nil
	}
	clone := *product
	return &clone, nil
}

func (m *mockProductRepository) Update(product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}

	existing, exists := m.products[product.ID]
	if !exists {
		return nil
	}
	stored := *product
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = existing.UpdatedAt.Add(time.Second)
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}

	if _, exists := m.products[id]; !exists {
		return false, nil
	}
	delete(m.products, id)
	return true, nil
}

func (m *mockProductRepository) List(filter *domain.ProductFilter) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}

	m.lastFilter = filter

	var result []*domain.Product
	for _, product := range m.products {
		clone := *product
		result = append(result, &clone)
	}
	// The real store orders by creation time, newest first.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockProductRepository) IncrementInterests(id int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, false, m.failErr
	}

	product, exists := m.products[id]
	if !exists {
		return 0, false, nil
	}
	product.Interests++
	return product.Interests, true, nil
}
