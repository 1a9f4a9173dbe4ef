// ABOUTME: Product catalog and order storage backing the shop handlers.
// ABOUTME: SQLite-backed, seeded with sample products on first start.

package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store errors
var (
	ErrOrderNotFound = errors.New("order not found")
)

// Order statuses
const (
	OrderCreated   = "CREATED"
	OrderConfirmed = "CONFIRMED"
)

// Product is one catalog entry.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int    `json:"priceCents"`
}

// Order is one placed order.
type Order struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store provides catalog reads and order writes. This is deliberately thin
// data access; the interesting state machine lives in the dispatcher.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) the shop database at path and seeds the
// catalog when empty.
func NewStore(path string) (*Store, error) {
	logger := slog.Default().With("component", "shop")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.seedProducts(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding products: %w", err)
	}

	logger.Info("shop store initialized", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL UNIQUE,
			price_cents INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS orders (
			id           TEXT PRIMARY KEY,
			username     TEXT NOT NULL,
			product_name TEXT NOT NULL,
			quantity     INTEGER NOT NULL DEFAULT 1,
			status       TEXT NOT NULL,
			created_at   TEXT NOT NULL,

			CHECK (status IN ('CREATED', 'CONFIRMED'))
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// seedProducts inserts the sample catalog when the table is empty.
func (s *Store) seedProducts() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []Product{
		{Name: "Coca Cola", PriceCents: 250},
		{Name: "Fanta", PriceCents: 230},
		{Name: "Mineralwasser", PriceCents: 180},
		{Name: "Iced Coffee", PriceCents: 320},
		{Name: "Paprika Chips", PriceCents: 280},
		{Name: "Salted Peanuts", PriceCents: 220},
		{Name: "Chocolate Bar", PriceCents: 200},
		{Name: "Oatmeal Cookie", PriceCents: 190},
	}
	for _, p := range seed {
		if _, err := s.db.Exec(
			`INSERT INTO products (name, price_cents) VALUES (?, ?)`, p.Name, p.PriceCents); err != nil {
			return err
		}
	}
	s.logger.Info("seeded product catalog", "count", len(seed))
	return nil
}

// Products returns the full catalog.
func (s *Store) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, price_cents FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	return out, nil
}

// CreateOrder records a new order in CREATED status.
func (s *Store) CreateOrder(ctx context.Context, username, productName string, quantity int) (*Order, error) {
	if quantity < 1 {
		quantity = 1
	}
	o := &Order{
		ID:          uuid.New().String(),
		Username:    username,
		ProductName: productName,
		Quantity:    quantity,
		Status:      OrderCreated,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, username, product_name, quantity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.ID, o.Username, o.ProductName, o.Quantity, o.Status, o.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return o, nil
}

// ConfirmOrder moves an order to CONFIRMED.
func (s *Store) ConfirmOrder(ctx context.Context, id string) (*Order, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, OrderConfirmed, id)
	if err != nil {
		return nil, fmt.Errorf("confirming order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return nil, ErrOrderNotFound
	}
	return s.getOrder(ctx, id)
}

func (s *Store) getOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, product_name, quantity, status, created_at
		FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &o.Username, &o.ProductName, &o.Quantity, &o.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading order: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		o.CreatedAt = t
	}
	return &o, nil
}

// ListOrders returns all orders, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, product_name, quantity, status, created_at
		FROM orders ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var createdAt string
		if err := rows.Scan(&o.ID, &o.Username, &o.ProductName, &o.Quantity, &o.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			o.CreatedAt = t
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading orders: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
