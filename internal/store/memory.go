package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/models"
)

// Memory is an in-memory Repository. It backs the demo mode (no database
// required, mirroring the product's original mock catalogs) and the unit
// tests for everything built on the repository interface.
type Memory struct {
	mu sync.RWMutex

	nextStoreID    int64
	nextProductID  int64
	nextOrderID    int64
	nextDiscountID int64

	stores    map[int64]*models.Store
	settings  map[int64]*models.StoreSettings
	products  map[int64]*models.Product
	orders    map[int64]*models.Order
	items     map[int64][]models.OrderItem
	discounts map[int64]*models.Discount
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		nextStoreID:    1,
		nextProductID:  1,
		nextOrderID:    1,
		nextDiscountID: 1,
		stores:         make(map[int64]*models.Store),
		settings:       make(map[int64]*models.StoreSettings),
		products:       make(map[int64]*models.Product),
		orders:         make(map[int64]*models.Order),
		items:          make(map[int64][]models.OrderItem),
		discounts:      make(map[int64]*models.Discount),
	}
}

// Close implements Repository; nothing to release.
func (m *Memory) Close() error { return nil }

func (m *Memory) CreateStore(ctx context.Context, s *models.Store, settings *models.StoreSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.stores {
		if existing.Slug == s.Slug {
			return ErrSlugTaken
		}
	}

	now := time.Now()
	s.ID = m.nextStoreID
	m.nextStoreID++
	s.CreatedAt = now
	s.UpdatedAt = now

	cp := *s
	m.stores[s.ID] = &cp

	settings.StoreID = s.ID
	scp := *settings
	m.settings[s.ID] = &scp
	return nil
}

func (m *Memory) GetStoreByID(ctx context.Context, id int64) (*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stores[id]
	if !ok {
		return nil, ErrStoreNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) GetStoreBySlug(ctx context.Context, slug string) (*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stores {
		if s.Slug == slug {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrStoreNotFound
}

func (m *Memory) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stores {
		if s.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) GetStoreSettings(ctx context.Context, storeID int64) (*models.StoreSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[storeID]
	if !ok {
		return nil, ErrStoreNotFound
	}
	cp := *s
	cp.PaymentMethods = append([]string(nil), s.PaymentMethods...)
	return &cp, nil
}

func (m *Memory) UpdateStoreSettings(ctx context.Context, settings *models.StoreSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.settings[settings.StoreID]; !ok {
		return ErrStoreNotFound
	}
	cp := *settings
	cp.PaymentMethods = append([]string(nil), settings.PaymentMethods...)
	m.settings[settings.StoreID] = &cp
	return nil
}

func (m *Memory) CreateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	p.ID = m.nextProductID
	m.nextProductID++
	p.CreatedAt = now
	p.UpdatedAt = now

	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *Memory) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) GetProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Product
	for _, p := range m.products {
		if p.StoreID == storeID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetActiveProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error) {
	all, _ := m.GetProductsByStore(ctx, storeID)
	out := all[:0]
	for _, p := range all {
		if p.Status == models.ProductStatusActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	o.ID = m.nextOrderID
	m.nextOrderID++
	o.CreatedAt = now
	o.UpdatedAt = now

	cp := *o
	m.orders[o.ID] = &cp

	stored := make([]models.OrderItem, len(items))
	for i := range items {
		items[i].OrderID = o.ID
		items[i].ID = int64(i + 1)
		stored[i] = items[i]
	}
	m.items[o.ID] = stored
	return nil
}

func (m *Memory) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *Memory) GetOrdersByStore(ctx context.Context, storeID int64) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Order
	for _, o := range m.orders {
		if o.StoreID == storeID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.OrderItem(nil), m.items[orderID]...), nil
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) CreateDiscount(ctx context.Context, d *models.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.discounts {
		if existing.StoreID == d.StoreID && existing.Code == d.Code {
			return ErrDuplicateCode
		}
	}

	d.ID = m.nextDiscountID
	m.nextDiscountID++
	d.CreatedAt = time.Now()

	cp := *d
	m.discounts[d.ID] = &cp
	return nil
}

func (m *Memory) GetDiscountByCode(ctx context.Context, storeID int64, code string) (*models.Discount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.discounts {
		if d.StoreID == storeID && d.Code == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDiscountNotFound
}

func (m *Memory) GetDiscountsByStore(ctx context.Context, storeID int64) ([]models.Discount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Discount
	for _, d := range m.discounts {
		if d.StoreID == storeID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) SetDiscountEnabled(ctx context.Context, storeID int64, code string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.discounts {
		if d.StoreID == storeID && d.Code == code {
			d.Enabled = enabled
			return nil
		}
	}
	return ErrDiscountNotFound
}

func (m *Memory) DeleteDiscount(ctx context.Context, storeID int64, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, d := range m.discounts {
		if d.StoreID == storeID && d.Code == code {
			delete(m.discounts, id)
			return nil
		}
	}
	return ErrDiscountNotFound
}

func (m *Memory) IncrementDiscountUse(ctx context.Context, storeID int64, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.discounts {
		if d.StoreID == storeID && d.Code == code {
			d.UsedCount++
			return nil
		}
	}
	return ErrDiscountNotFound
}

func (m *Memory) GetStoreStats(ctx context.Context, storeID int64) (*models.StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.StoreStats{}
	type agg struct {
		name    string
		units   int
		revenue int64
	}
	byProduct := make(map[int64]*agg)
	byDay := make(map[string]*models.DailySales)

	for _, o := range m.orders {
		if o.StoreID != storeID || o.Status == models.OrderStatusCancelled {
			continue
		}
		stats.TotalRevenue += o.Total
		stats.TotalOrders++

		day := o.CreatedAt.Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &models.DailySales{Date: day}
		}
		byDay[day].Revenue += o.Total
		byDay[day].Orders++

		for _, it := range m.items[o.ID] {
			if byProduct[it.ProductID] == nil {
				byProduct[it.ProductID] = &agg{name: it.ProductName}
			}
			byProduct[it.ProductID].units += it.Quantity
			byProduct[it.ProductID].revenue += int64(it.Quantity) * it.UnitPrice
		}
	}

	for _, p := range m.products {
		if p.StoreID == storeID {
			stats.TotalProducts++
		}
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / int64(stats.TotalOrders)
	}

	for id, a := range byProduct {
		stats.TopProducts = append(stats.TopProducts, models.TopProduct{
			ProductID:   id,
			ProductName: a.name,
			UnitsSold:   a.units,
			Revenue:     a.revenue,
		})
	}
	sort.Slice(stats.TopProducts, func(i, j int) bool {
		return stats.TopProducts[i].Revenue > stats.TopProducts[j].Revenue
	})
	if len(stats.TopProducts) > 5 {
		stats.TopProducts = stats.TopProducts[:5]
	}

	for _, ds := range byDay {
		stats.SalesByDay = append(stats.SalesByDay, *ds)
	}
	sort.Slice(stats.SalesByDay, func(i, j int) bool {
		return stats.SalesByDay[i].Date > stats.SalesByDay[j].Date
	})

	return stats, nil
}
