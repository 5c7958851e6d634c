package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/models"

	"github.com/lib/pq"
)

// orderRow is the flat scan target for the orders table.
type orderRow struct {
	models.Order
	CustomerName       string `db:"customer_name"`
	CustomerEmail      string `db:"customer_email"`
	CustomerPhone      string `db:"customer_phone"`
	CustomerAddress    string `db:"customer_address"`
	CustomerCity       string `db:"customer_city"`
	CustomerPostalCode string `db:"customer_postal_code"`
}

func (r *orderRow) toOrder() *models.Order {
	o := r.Order
	o.Customer = models.CustomerInfo{
		Name:       r.CustomerName,
		Email:      r.CustomerEmail,
		Phone:      r.CustomerPhone,
		Address:    r.CustomerAddress,
		City:       r.CustomerCity,
		PostalCode: r.CustomerPostalCode,
	}
	return &o
}

// CreateOrder persists an order and its line-item snapshots in one
// transaction. The order is immutable afterwards except for its status.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (order_number, store_id, customer_name, customer_email,
			customer_phone, customer_address, customer_city, customer_postal_code,
			subtotal, discount, tax, shipping, total, status, payment_method, discount_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		o.OrderNumber, o.StoreID, o.Customer.Name, o.Customer.Email,
		o.Customer.Phone, o.Customer.Address, o.Customer.City, o.Customer.PostalCode,
		o.Subtotal, o.Discount, o.Tax, o.Shipping, o.Total, o.Status,
		o.PaymentMethod, o.DiscountCode,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = o.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].ProductName,
			items[i].Quantity, items[i].UnitPrice,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toOrder(), nil
}

// GetOrdersByStore retrieves a store's orders, newest first
func (s *Store) GetOrdersByStore(ctx context.Context, storeID int64) ([]models.Order, error) {
	var rows []orderRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM orders WHERE store_id = $1 ORDER BY created_at DESC", storeID)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].toOrder())
	}
	return orders, nil
}

// GetOrderItems retrieves all line items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus moves an order through its lifecycle
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CreateDiscount creates a discount code. Codes are stored upper-cased
// and are unique per store.
func (s *Store) CreateDiscount(ctx context.Context, d *models.Discount) error {
	query := `
		INSERT INTO discounts (store_id, code, type, value, description,
			min_order_amount, max_uses, used_count, start_date, end_date, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		d.StoreID, d.Code, d.Type, d.Value, d.Description,
		d.MinOrderAmount, d.MaxUses, d.UsedCount, d.StartDate, d.EndDate, d.Enabled,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to create discount: %w", err)
	}
	return nil
}

// GetDiscountByCode retrieves a discount by its (upper-cased) code
func (s *Store) GetDiscountByCode(ctx context.Context, storeID int64, code string) (*models.Discount, error) {
	var d models.Discount
	err := s.db.GetContext(ctx, &d,
		"SELECT * FROM discounts WHERE store_id = $1 AND code = $2", storeID, code)
	if err == sql.ErrNoRows {
		return nil, ErrDiscountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDiscountsByStore retrieves all discounts for a store
func (s *Store) GetDiscountsByStore(ctx context.Context, storeID int64) ([]models.Discount, error) {
	var discounts []models.Discount
	err := s.db.SelectContext(ctx, &discounts,
		"SELECT * FROM discounts WHERE store_id = $1 ORDER BY created_at DESC", storeID)
	return discounts, err
}

// SetDiscountEnabled toggles a discount's enabled flag
func (s *Store) SetDiscountEnabled(ctx context.Context, storeID int64, code string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE discounts SET enabled = $1 WHERE store_id = $2 AND code = $3",
		enabled, storeID, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

// DeleteDiscount removes a discount code
func (s *Store) DeleteDiscount(ctx context.Context, storeID int64, code string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM discounts WHERE store_id = $1 AND code = $2", storeID, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

// IncrementDiscountUse records one redemption of a discount code
func (s *Store) IncrementDiscountUse(ctx context.Context, storeID int64, code string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE discounts SET used_count = used_count + 1 WHERE store_id = $1 AND code = $2",
		storeID, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

// GetStoreStats aggregates the dashboard analytics overview. Cancelled
// orders are excluded from revenue.
func (s *Store) GetStoreStats(ctx context.Context, storeID int64) (*models.StoreStats, error) {
	stats := &models.StoreStats{}

	err := s.db.QueryRowxContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders WHERE store_id = $1 AND status != $2`,
		storeID, models.OrderStatusCancelled,
	).Scan(&stats.TotalRevenue, &stats.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	err = s.db.GetContext(ctx, &stats.TotalProducts,
		"SELECT COUNT(*) FROM products WHERE store_id = $1", storeID)
	if err != nil {
		return nil, err
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / int64(stats.TotalOrders)
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT oi.product_id, oi.product_name, SUM(oi.quantity) AS units,
			SUM(oi.quantity * oi.unit_price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.store_id = $1 AND o.status != $2
		GROUP BY oi.product_id, oi.product_name
		ORDER BY revenue DESC
		LIMIT 5`, storeID, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tp models.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.UnitsSold, &tp.Revenue); err != nil {
			return nil, err
		}
		stats.TopProducts = append(stats.TopProducts, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dayRows, err := s.db.QueryxContext(ctx, `
		SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, SUM(total), COUNT(*)
		FROM orders
		WHERE store_id = $1 AND status != $2
		GROUP BY day
		ORDER BY day DESC
		LIMIT 30`, storeID, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var ds models.DailySales
		if err := dayRows.Scan(&ds.Date, &ds.Revenue, &ds.Orders); err != nil {
			return nil, err
		}
		stats.SalesByDay = append(stats.SalesByDay, ds)
	}
	return stats, dayRows.Err()
}
