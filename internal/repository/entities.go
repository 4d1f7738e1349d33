package repository

import (
	"context"

	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/models"
	"github.com/ajitpratap0/memstore/pkg/store"
	"github.com/ajitpratap0/memstore/pkg/value"
)

// Products

// GetProduct returns the live product id or a not_found error.
func (db *Database) GetProduct(ctx context.Context, id string) (*models.Record, error) {
	return db.get(ctx, "get_product", Products, id)
}

// ListProducts pages through products, optionally restricted to one
// category. An empty category lists everything.
func (db *Database) ListProducts(ctx context.Context, category string, page, pageSize int) (*models.QueryResult, error) {
	return db.list(ctx, "list_products", Products, filterQuery("category", category, page, pageSize))
}

// CreateProduct inserts a product and returns its id.
func (db *Database) CreateProduct(ctx context.Context, data models.Fields) (string, error) {
	return db.create(ctx, "create_product", Products, data)
}

// UpdateProduct shallow-merges updates into the product.
func (db *Database) UpdateProduct(ctx context.Context, id string, updates models.Fields) error {
	return db.update(ctx, "update_product", Products, id, updates)
}

// DeleteProduct soft-deletes the product. Its id stays taken until the
// tombstone is purged.
func (db *Database) DeleteProduct(ctx context.Context, id string) error {
	return db.do(ctx, "delete_product", Products, func() error {
		return db.store.Delete(Products, id, store.SoftDelete)
	})
}

// Customers

// GetCustomer returns the live customer id or a not_found error.
func (db *Database) GetCustomer(ctx context.Context, id string) (*models.Record, error) {
	return db.get(ctx, "get_customer", Customers, id)
}

// GetCustomerByEmail looks the customer up through the email index. The
// index is built when the database is created and is not maintained on
// insert, so customers created later are found only after the index is
// rebuilt with RebuildIndexes.
func (db *Database) GetCustomerByEmail(ctx context.Context, email string) (*models.Record, error) {
	var rec *models.Record
	err := db.do(ctx, "get_customer_by_email", Customers, func() error {
		matches := db.store.FindByIndex(Customers, "email", value.String(email))
		if len(matches) == 0 {
			return errors.New(errors.ErrorTypeNotFound, "customer not found").
				WithDetail("collection", Customers).
				WithDetail("email", email)
		}
		rec = matches[0]
		return nil
	})
	return rec, err
}

// CreateCustomer inserts a customer and returns its id.
func (db *Database) CreateCustomer(ctx context.Context, data models.Fields) (string, error) {
	return db.create(ctx, "create_customer", Customers, data)
}

// UpdateCustomer shallow-merges updates into the customer.
func (db *Database) UpdateCustomer(ctx context.Context, id string, updates models.Fields) error {
	return db.update(ctx, "update_customer", Customers, id, updates)
}

// Orders

// GetOrder returns the live order id or a not_found error.
func (db *Database) GetOrder(ctx context.Context, id string) (*models.Record, error) {
	return db.get(ctx, "get_order", Orders, id)
}

// ListCustomerOrders pages through the orders placed by customerID.
func (db *Database) ListCustomerOrders(ctx context.Context, customerID string, page, pageSize int) (*models.QueryResult, error) {
	q := models.NewQuery().Paginate(page, pageSize).Where("customer_id", value.String(customerID))
	return db.list(ctx, "list_customer_orders", Orders, q)
}

// CreateOrder inserts an order and returns its id.
func (db *Database) CreateOrder(ctx context.Context, data models.Fields) (string, error) {
	return db.create(ctx, "create_order", Orders, data)
}

// UpdateOrder shallow-merges updates into the order.
func (db *Database) UpdateOrder(ctx context.Context, id string, updates models.Fields) error {
	return db.update(ctx, "update_order", Orders, id, updates)
}

// Reviews

// ListProductReviews pages through the reviews of productID.
func (db *Database) ListProductReviews(ctx context.Context, productID string, page, pageSize int) (*models.QueryResult, error) {
	q := models.NewQuery().Paginate(page, pageSize).Where("product_id", value.String(productID))
	return db.list(ctx, "list_product_reviews", Reviews, q)
}

// CreateReview inserts a review and returns its id.
func (db *Database) CreateReview(ctx context.Context, data models.Fields) (string, error) {
	return db.create(ctx, "create_review", Reviews, data)
}

// Coupons

// GetCoupon returns the live coupon code or a not_found error.
func (db *Database) GetCoupon(ctx context.Context, code string) (*models.Record, error) {
	return db.get(ctx, "get_coupon", Coupons, code)
}

// IncrementCouponUsage adds one to the coupon's current_uses. The read and
// the write are separate store calls, so concurrent increments can be lost.
func (db *Database) IncrementCouponUsage(ctx context.Context, code string) error {
	return db.do(ctx, "increment_coupon_usage", Coupons, func() error {
		coupon, ok := db.store.FindByID(Coupons, code, false)
		if !ok {
			return errors.NotFound(Coupons, code)
		}
		uses, _ := coupon.Get("current_uses").AsInt()
		_, err := db.store.Update(Coupons, code, models.Fields{
			"current_uses": value.Int(uses + 1),
		})
		return err
	})
}

// RebuildIndexes re-derives every default index from the current data.
func (db *Database) RebuildIndexes(ctx context.Context) error {
	for _, ix := range defaultIndexes {
		err := db.do(ctx, "rebuild_index", ix.collection, func() error {
			return db.store.RebuildIndex(ix.collection, ix.field)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
