package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		name TEXT,
		image_url TEXT,
		unit_price_minor INTEGER NOT NULL DEFAULT 0,
		external_code TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS cart_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		qty INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, product_id),
		FOREIGN KEY(product_id) REFERENCES products(id)
	);
	CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reference TEXT NOT NULL UNIQUE,
		user_id INTEGER NOT NULL,
		subtotal_minor INTEGER NOT NULL,
		discount_minor INTEGER NOT NULL,
		total_minor INTEGER NOT NULL,
		referral_token TEXT,
		referral_link TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		slug TEXT,
		name TEXT,
		qty INTEGER NOT NULL,
		unit_price_minor INTEGER NOT NULL,
		discount_pct INTEGER NOT NULL DEFAULT 0,
		final_unit_price_minor INTEGER NOT NULL,
		FOREIGN KEY(order_id) REFERENCES orders(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS referral_visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL,
		link_id TEXT,
		landing_slug TEXT,
		user_agent TEXT,
		ip_hash TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_referral_visits_token ON referral_visits(token);
	`
	if _, err := db.Exec(query); err != nil {
		return err
	}

	// Older databases predate external_code. SQLite has no ADD COLUMN IF
	// NOT EXISTS, so we just try and ignore the error.
	_, _ = db.Exec(`ALTER TABLE products ADD COLUMN external_code TEXT`)

	return nil
}

// --- Catalog ---

func (r *SQLiteRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (slug, name, image_url, unit_price_minor, external_code, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, p.Slug, p.Name, p.ImageURL, p.UnitPriceMinor, p.ExternalCode, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *SQLiteRepository) UpsertProductBySlug(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (slug, name, image_url, unit_price_minor, external_code, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(slug) DO UPDATE SET
			    name = excluded.name,
			    image_url = excluded.image_url,
			    unit_price_minor = excluded.unit_price_minor,
			    external_code = excluded.external_code,
			    updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, p.Slug, p.Name, p.ImageURL, p.UnitPriceMinor, p.ExternalCode, p.CreatedAt, p.UpdatedAt); err != nil {
		return err
	}

	row := r.db.QueryRowContext(ctx, `SELECT id FROM products WHERE slug = ?`, p.Slug)
	return row.Scan(&p.ID)
}

func (r *SQLiteRepository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getProduct(ctx, `slug = ?`, slug)
}

func (r *SQLiteRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.getProduct(ctx, `id = ?`, id)
}

func (r *SQLiteRepository) getProduct(ctx context.Context, where string, arg interface{}) (*domain.Product, error) {
	query := `SELECT id, slug, name, image_url, unit_price_minor, COALESCE(external_code, ''), created_at, updated_at
			  FROM products WHERE ` + where

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Slug, &p.Name, &p.ImageURL, &p.UnitPriceMinor, &p.ExternalCode,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT id, slug, name, image_url, unit_price_minor, COALESCE(external_code, ''), created_at, updated_at
			  FROM products ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.ImageURL, &p.UnitPriceMinor, &p.ExternalCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// --- Users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `email = ?`, email)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE ` + where

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Cart ---

func (r *SQLiteRepository) AddCartItem(ctx context.Context, userID, productID int64, qty int) error {
	// One row per user+product; repeated adds bump the quantity.
	query := `INSERT INTO cart_items (user_id, product_id, qty, created_at)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(user_id, product_id) DO UPDATE SET qty = qty + excluded.qty`

	_, err := r.db.ExecContext(ctx, query, userID, productID, qty, time.Now())
	return err
}

func (r *SQLiteRepository) GetCartItems(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	query := `SELECT c.id, c.user_id, c.product_id, c.qty, c.created_at,
			         p.id, p.slug, p.name, p.image_url, p.unit_price_minor, COALESCE(p.external_code, ''), p.created_at, p.updated_at
			  FROM cart_items c
			  JOIN products p ON p.id = c.product_id
			  WHERE c.user_id = ?
			  ORDER BY c.id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		var p domain.Product
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ProductID, &it.Qty, &it.CreatedAt,
			&p.ID, &p.Slug, &p.Name, &p.ImageURL, &p.UnitPriceMinor, &p.ExternalCode, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		it.Product = &p
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) ClearCart(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}

// --- Orders ---

func (r *SQLiteRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (reference, user_id, subtotal_minor, discount_minor, total_minor, referral_token, referral_link, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Reference, o.UserID, o.SubtotalMinor, o.DiscountMinor, o.TotalMinor, o.ReferralToken, o.ReferralLink, o.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = id

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = id
		res, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, slug, name, qty, unit_price_minor, discount_pct, final_unit_price_minor)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.OrderID, it.ProductID, it.Slug, it.Name, it.Qty, it.UnitPriceMinor, it.DiscountPct, it.FinalUnitPriceMinor)
		if err != nil {
			return err
		}
		if itemID, err := res.LastInsertId(); err == nil {
			it.ID = itemID
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetOrderByReference(ctx context.Context, ref string) (*domain.Order, error) {
	query := `SELECT id, reference, user_id, subtotal_minor, discount_minor, total_minor,
			         COALESCE(referral_token, ''), COALESCE(referral_link, ''), created_at
			  FROM orders WHERE reference = ?`

	var o domain.Order
	err := r.db.QueryRowContext(ctx, query, ref).Scan(
		&o.ID, &o.Reference, &o.UserID, &o.SubtotalMinor, &o.DiscountMinor, &o.TotalMinor,
		&o.ReferralToken, &o.ReferralLink, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.orderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *SQLiteRepository) ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit < 1 {
		limit = 20
	}
	query := `SELECT id, reference, user_id, subtotal_minor, discount_minor, total_minor,
			         COALESCE(referral_token, ''), COALESCE(referral_link, ''), created_at
			  FROM orders ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.UserID, &o.SubtotalMinor, &o.DiscountMinor, &o.TotalMinor, &o.ReferralToken, &o.ReferralLink, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *SQLiteRepository) orderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `SELECT id, order_id, product_id, COALESCE(slug, ''), COALESCE(name, ''), qty, unit_price_minor, discount_pct, final_unit_price_minor
			  FROM order_items WHERE order_id = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Slug, &it.Name, &it.Qty, &it.UnitPriceMinor, &it.DiscountPct, &it.FinalUnitPriceMinor); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// --- Referral stats ---

func (r *SQLiteRepository) RecordReferralVisit(ctx context.Context, v *domain.ReferralVisit) error {
	query := `INSERT INTO referral_visits (token, link_id, landing_slug, user_agent, ip_hash, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, v.Token, v.LinkID, v.LandingSlug, v.UserAgent, v.IPHash, v.CreatedAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		v.ID = id
	}
	return nil
}

func (r *SQLiteRepository) GetTokenStats(ctx context.Context, limit int) ([]domain.TokenStats, error) {
	if limit < 1 {
		limit = 20
	}
	query := `SELECT token, COUNT(*) AS visits
			  FROM referral_visits
			  GROUP BY token
			  ORDER BY visits DESC
			  LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.TokenStats
	for rows.Next() {
		var s domain.TokenStats
		if err := rows.Scan(&s.Token, &s.TotalVisits); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
