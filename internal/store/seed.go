package store

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
)

func intPtr(n int) *int { return &n }

// SeedDemo loads the demo storefronts into a repository. Prices are in
// minor units (299 denars = 29900 deni). Used by the in-memory driver so
// the service is browsable without a database.
func SeedDemo(ctx context.Context, repo Repository) error {
	bakery := &models.Store{
		Name:         "Demo Bakery",
		Slug:         "demo-bakery",
		Description:  "Fresh baked goods made daily with love",
		Category:     "Food & Beverages",
		Currency:     "MKD",
		Theme:        "modern",
		Status:       models.StoreStatusActive,
		BusinessName: "Demo Bakery DOO",
		OwnerName:    "Ana Stojanovska",
		Email:        "hello@demobakery.mk",
		Phone:        "+38970123456",
		Address:      "Partizanska 45",
		City:         "Skopje",
		PostalCode:   "1000",
	}
	bakerySettings := &models.StoreSettings{
		PrimaryColor:          "#ff532a",
		SecondaryColor:        "#4F46E5",
		Font:                  "Inter",
		Layout:                "grid-3",
		PaymentMethods:        []string{"card", "cash"},
		FreeShippingThreshold: 100000,
	}
	if err := repo.CreateStore(ctx, bakery, bakerySettings); err != nil {
		return fmt.Errorf("failed to seed demo bakery: %w", err)
	}

	bakeryProducts := []models.Product{
		{Name: "Artisan Sourdough Bread", Price: 29900, Description: "Handcrafted sourdough bread with a perfect crust", Category: "Bread", Inventory: intPtr(15)},
		{Name: "Chocolate Croissants", Price: 19900, Description: "Buttery croissants filled with rich chocolate", Category: "Pastries", Inventory: intPtr(8)},
		{Name: "Fresh Bagels", Price: 14900, Description: "New York style bagels, baked fresh daily", Category: "Bread", Inventory: intPtr(20)},
		{Name: "Cinnamon Rolls", Price: 24900, Description: "Warm cinnamon rolls with cream cheese frosting", Category: "Pastries", Inventory: intPtr(12)},
		{Name: "Blueberry Muffins", Price: 17900, Description: "Fluffy muffins bursting with fresh blueberries", Category: "Muffins", Inventory: intPtr(6)},
		{Name: "Apple Pie", Price: 59900, Description: "Classic apple pie with flaky crust", Category: "Desserts", Inventory: intPtr(3)},
	}
	for i := range bakeryProducts {
		p := bakeryProducts[i]
		p.StoreID = bakery.ID
		p.SKU = fmt.Sprintf("BAK-%03d", i+1)
		p.Status = models.ProductStatusActive
		if err := repo.CreateProduct(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed bakery product: %w", err)
		}
	}

	tech := &models.Store{
		Name:         "Tech Store",
		Slug:         "tech-store",
		Description:  "Latest gadgets and electronics",
		Category:     "Electronics & Tech",
		Currency:     "MKD",
		Theme:        "minimal",
		Status:       models.StoreStatusActive,
		BusinessName: "Tech Store DOOEL",
		OwnerName:    "Petar Petrovski",
		Email:        "sales@techstore.mk",
		Phone:        "+38971654321",
		Address:      "Makedonija 123",
		City:         "Bitola",
		PostalCode:   "7000",
	}
	techSettings := &models.StoreSettings{
		PrimaryColor:          "#2563eb",
		SecondaryColor:        "#0ea5e9",
		Font:                  "Inter",
		Layout:                "grid-4",
		PaymentMethods:        []string{"card", "paypal", "bank"},
		FreeShippingThreshold: 100000,
	}
	if err := repo.CreateStore(ctx, tech, techSettings); err != nil {
		return fmt.Errorf("failed to seed tech store: %w", err)
	}

	techProducts := []models.Product{
		{Name: "Wireless Headphones", Price: 299900, Description: "High-quality wireless headphones with noise cancellation", Category: "Audio", Inventory: intPtr(10)},
		{Name: "Phone Case", Price: 89900, Description: "Durable protective case in various colors", Category: "Accessories", Inventory: intPtr(25)},
		{Name: "USB-C Cable", Price: 59900, Description: "Fast-charging braided cable, 2m", Category: "Accessories", Inventory: intPtr(50)},
		{Name: "Bluetooth Speaker", Price: 449900, Description: "Portable speaker with deep bass", Category: "Audio", Inventory: intPtr(7)},
	}
	for i := range techProducts {
		p := techProducts[i]
		p.StoreID = tech.ID
		p.SKU = fmt.Sprintf("TEC-%03d", i+1)
		p.Status = models.ProductStatusActive
		if err := repo.CreateProduct(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed tech product: %w", err)
		}
	}

	return nil
}
