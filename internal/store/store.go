package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
)

// Sentinel errors shared by all repository implementations.
var (
	ErrStoreNotFound    = errors.New("store not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrDiscountNotFound = errors.New("discount not found")
	ErrSlugTaken        = errors.New("store slug already taken")
	ErrDuplicateCode    = errors.New("discount code already exists")
)

// Repository is the persistence boundary: core services depend on this
// interface only, never on a concrete backend.
type Repository interface {
	// Stores
	CreateStore(ctx context.Context, s *models.Store, settings *models.StoreSettings) error
	GetStoreByID(ctx context.Context, id int64) (*models.Store, error)
	GetStoreBySlug(ctx context.Context, slug string) (*models.Store, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetStoreSettings(ctx context.Context, storeID int64) (*models.StoreSettings, error)
	UpdateStoreSettings(ctx context.Context, settings *models.StoreSettings) error

	// Products
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error)
	GetActiveProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// Orders
	CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByStore(ctx context.Context, storeID int64) ([]models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error

	// Discounts
	CreateDiscount(ctx context.Context, d *models.Discount) error
	GetDiscountByCode(ctx context.Context, storeID int64, code string) (*models.Discount, error)
	GetDiscountsByStore(ctx context.Context, storeID int64) ([]models.Discount, error)
	SetDiscountEnabled(ctx context.Context, storeID int64, code string, enabled bool) error
	DeleteDiscount(ctx context.Context, storeID int64, code string) error
	IncrementDiscountUse(ctx context.Context, storeID int64, code string) error

	// Analytics
	GetStoreStats(ctx context.Context, storeID int64) (*models.StoreStats, error)

	Close() error
}

// Store is the Postgres-backed repository.
type Store struct {
	db *sqlx.DB
}

var _ Repository = (*Store)(nil)

// NewStore connects to Postgres and returns the repository.
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateStore creates a store and its settings in one transaction.
func (s *Store) CreateStore(ctx context.Context, st *models.Store, settings *models.StoreSettings) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stores (name, slug, description, category, currency, theme, status,
			business_name, owner_name, email, phone, address, city, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	err = tx.GetContext(ctx, st, query,
		st.Name, st.Slug, st.Description, st.Category, st.Currency, st.Theme, st.Status,
		st.BusinessName, st.OwnerName, st.Email, st.Phone, st.Address, st.City, st.PostalCode)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to create store: %w", err)
	}

	settings.StoreID = st.ID
	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_settings (store_id, primary_color, secondary_color, font, layout,
			payment_methods, bank_account, tax_number, free_shipping_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		settings.StoreID, settings.PrimaryColor, settings.SecondaryColor, settings.Font,
		settings.Layout, pq.Array(settings.PaymentMethods), settings.BankAccount,
		settings.TaxNumber, settings.FreeShippingThreshold)
	if err != nil {
		return fmt.Errorf("failed to create store settings: %w", err)
	}

	return tx.Commit()
}

// GetStoreByID retrieves a store by ID
func (s *Store) GetStoreByID(ctx context.Context, id int64) (*models.Store, error) {
	var st models.Store
	err := s.db.GetContext(ctx, &st, "SELECT * FROM stores WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStoreBySlug retrieves a store by its public slug
func (s *Store) GetStoreBySlug(ctx context.Context, slug string) (*models.Store, error) {
	var st models.Store
	err := s.db.GetContext(ctx, &st, "SELECT * FROM stores WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SlugExists reports whether a slug is already taken
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM stores WHERE slug = $1)", slug)
	return exists, err
}

// GetStoreSettings retrieves settings for a store
func (s *Store) GetStoreSettings(ctx context.Context, storeID int64) (*models.StoreSettings, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT store_id, primary_color, secondary_color, font, layout,
			payment_methods, bank_account, tax_number, free_shipping_threshold
		FROM store_settings WHERE store_id = $1`, storeID)

	var settings models.StoreSettings
	var methods pq.StringArray
	err := row.Scan(&settings.StoreID, &settings.PrimaryColor, &settings.SecondaryColor,
		&settings.Font, &settings.Layout, &methods, &settings.BankAccount,
		&settings.TaxNumber, &settings.FreeShippingThreshold)
	if err == sql.ErrNoRows {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	settings.PaymentMethods = methods
	return &settings, nil
}

// UpdateStoreSettings replaces a store's settings
func (s *Store) UpdateStoreSettings(ctx context.Context, settings *models.StoreSettings) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE store_settings SET primary_color = $1, secondary_color = $2, font = $3,
			layout = $4, payment_methods = $5, bank_account = $6, tax_number = $7,
			free_shipping_threshold = $8
		WHERE store_id = $9`,
		settings.PrimaryColor, settings.SecondaryColor, settings.Font, settings.Layout,
		pq.Array(settings.PaymentMethods), settings.BankAccount, settings.TaxNumber,
		settings.FreeShippingThreshold, settings.StoreID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// CreateProduct creates a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (store_id, sku, name, description, price, category, inventory, image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.StoreID, p.SKU, p.Name, p.Description, p.Price, p.Category, p.Inventory, p.Image, p.Status)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductsByStore retrieves all products for a store, newest first
func (s *Store) GetProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE store_id = $1 ORDER BY created_at DESC", storeID)
	return products, err
}

// GetActiveProductsByStore retrieves the products shown on the public storefront
func (s *Store) GetActiveProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE store_id = $1 AND status = $2 ORDER BY id",
		storeID, models.ProductStatusActive)
	return products, err
}

// UpdateProduct updates product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET sku = $1, name = $2, description = $3, price = $4,
			category = $5, inventory = $6, image = $7, status = $8, updated_at = NOW()
		WHERE id = $9`,
		p.SKU, p.Name, p.Description, p.Price, p.Category, p.Inventory, p.Image, p.Status, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
