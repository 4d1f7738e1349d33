package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/memstore/internal/repository"
	"github.com/ajitpratap0/memstore/pkg/models"
)

var demoProducts = []map[string]interface{}{
	{"id": "P1", "name": "Desk lamp", "category": "lighting", "price": 25.5, "stock": 40},
	{"id": "P2", "name": "Floor lamp", "category": "lighting", "price": 89, "stock": 12},
	{"id": "P3", "name": "Oak desk", "category": "furniture", "price": 340, "stock": 3},
	{"id": "P4", "name": "Task chair", "category": "furniture", "price": 180, "stock": 7},
	{"id": "P5", "name": "Pendant light", "category": "lighting", "price": 64, "stock": 0},
}

var demoCustomers = []map[string]interface{}{
	{"id": "C1", "email": "ada@example.com", "first_name": "Ada", "loyalty_points": 1200},
	{"id": "C2", "email": "grace@example.com", "first_name": "Grace", "loyalty_points": 90},
}

// seedDemo fills db with a small catalog, two customers, their orders and
// a few reviews, then rebuilds the indexes so lookups see the new data.
func seedDemo(ctx context.Context, db *repository.Database) error {
	for _, p := range demoProducts {
		if _, err := db.CreateProduct(ctx, models.MustFields(p)); err != nil {
			return err
		}
	}
	for _, c := range demoCustomers {
		if _, err := db.CreateCustomer(ctx, models.MustFields(c)); err != nil {
			return err
		}
	}
	orders := []map[string]interface{}{
		{"customer_id": "C1", "items": []interface{}{"P1", "P3"}, "total": 365.5, "status": "pending"},
		{"customer_id": "C1", "items": []interface{}{"P2"}, "total": 89, "status": "shipped"},
		{"customer_id": "C2", "items": []interface{}{"P4"}, "total": 180, "status": "pending"},
	}
	for _, o := range orders {
		if _, err := db.CreateOrder(ctx, models.MustFields(o)); err != nil {
			return err
		}
	}
	reviews := []map[string]interface{}{
		{"product_id": "P1", "customer_id": "C1", "rating": 5, "text": "Bright and sturdy"},
		{"product_id": "P1", "customer_id": "C2", "rating": 4, "text": "Good value"},
		{"product_id": "P3", "customer_id": "C1", "rating": 3, "text": "Heavy"},
	}
	for _, r := range reviews {
		if _, err := db.CreateReview(ctx, models.MustFields(r)); err != nil {
			return err
		}
	}
	return db.RebuildIndexes(ctx)
}

func newDemoCmd(a *app) *cobra.Command {
	var category string
	var pageSize int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Populate a demo database and walk through its operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			if err := seedDemo(ctx, db); err != nil {
				return fmt.Errorf("failed to seed demo data: %w", err)
			}

			page, err := db.ListProducts(ctx, category, 1, pageSize)
			if err != nil {
				return err
			}
			fmt.Printf("Products in %q, first page:\n", category)
			if err := printJSON(page); err != nil {
				return err
			}

			customer, err := db.GetCustomerByEmail(ctx, "ada@example.com")
			if err != nil {
				return err
			}
			orders, err := db.ListCustomerOrders(ctx, customer.ID, 1, pageSize)
			if err != nil {
				return err
			}
			fmt.Printf("\nOrders for %s:\n", customer.ID)
			if err := printJSON(orders); err != nil {
				return err
			}

			if err := db.IncrementCouponUsage(ctx, repository.FoundersCoupon); err != nil {
				return err
			}
			coupon, err := db.GetCoupon(ctx, repository.FoundersCoupon)
			if err != nil {
				return err
			}
			fmt.Println("\nCoupon after one use:")
			if err := printJSON(coupon); err != nil {
				return err
			}

			// A discontinued product disappears from reads but keeps its id.
			if err := db.DeleteProduct(ctx, "P5"); err != nil {
				return err
			}
			_, err = db.CreateProduct(ctx, models.MustFields(demoProducts[4]))
			a.log.Info("re-creating a soft-deleted product", zap.Error(err))

			fmt.Println("\nStats:")
			return printJSON(db.Stats())
		},
	}
	cmd.Flags().StringVar(&category, "category", "lighting", "Product category to list")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Page size for listings")
	return cmd
}
