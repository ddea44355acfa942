package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/repository"
)

const (
	postgresConnectAttempts = 20
	postgresConnectDelay    = 2 * time.Second
)

type postgresCatalog struct {
	db *sql.DB
}

// OpenPostgres DSN bo'yicha ulanish, retry bilan (konteyner muhitida DB
// keyinroq ko'tarilishi mumkin)
func OpenPostgres(dsn string) (*sql.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= postgresConnectAttempts; attempt++ {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			if pingErr := db.Ping(); pingErr == nil {
				return db, nil
			} else {
				err = pingErr
			}
		}
		if db != nil {
			_ = db.Close()
		}
		lastErr = err
		if attempt < postgresConnectAttempts {
			time.Sleep(postgresConnectDelay)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("postgres connection failed")
	}
	return nil, lastErr
}

// NewPostgresCatalog Postgres katalog repository yaratish va sxemani
// tayyorlash
func NewPostgresCatalog(db *sql.DB) (repository.CatalogRepository, error) {
	c := &postgresCatalog{db: db}
	if err := c.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return c, nil
}

func (c *postgresCatalog) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			sku TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'KZT',
			stock_qty INTEGER NOT NULL DEFAULT 0,
			url TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			phone TEXT UNIQUE NOT NULL,
			name TEXT,
			email TEXT,
			tg_user_id TEXT,
			locale TEXT NOT NULL DEFAULT 'ru'
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			number TEXT UNIQUE NOT NULL,
			customer_id TEXT NOT NULL REFERENCES customers(id),
			status TEXT NOT NULL DEFAULT 'NEW',
			total_amount NUMERIC NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'KZT',
			source TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			qty INTEGER NOT NULL,
			price NUMERIC NOT NULL,
			amount NUMERIC NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL REFERENCES customers(id),
			order_id TEXT,
			channel TEXT NOT NULL,
			direction TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// FindBySKU aniq SKU bo'yicha mahsulotni olish
func (c *postgresCatalog) FindBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, sku, name, price, currency, stock_qty, COALESCE(url, '')
		 FROM products WHERE UPPER(sku) = UPPER($1) AND is_active`, sku)

	var p entity.Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Currency, &p.StockQty, &p.URL); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// likeEscaper foydalanuvchi tokenidagi ILIKE maxsus belgilarini literal
// qiladi, aks holda % yoki _ bor token butun katalogga mos kelib qoladi
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// FindByNameToken nomida token bor mahsulotlarni olish (ILIKE substring)
func (c *postgresCatalog) FindByNameToken(ctx context.Context, token string) ([]entity.Product, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, sku, name, price, currency, stock_qty, COALESCE(url, '')
		 FROM products WHERE name ILIKE '%' || $1 || '%' AND is_active`, escapeLike(token))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// FindAllProducts barcha aktiv mahsulotlarni olish
func (c *postgresCatalog) FindAllProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, sku, name, price, currency, stock_qty, COALESCE(url, '')
		 FROM products WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]entity.Product, error) {
	var products []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Currency, &p.StockQty, &p.URL); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// SaveProducts mahsulotlarni upsert qilish (katalog import)
func (c *postgresCatalog) SaveProducts(ctx context.Context, products []entity.Product) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, sku, name, price, currency, stock_qty, url)
			 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
			 ON CONFLICT (sku) DO UPDATE SET
			   name = EXCLUDED.name,
			   price = EXCLUDED.price,
			   currency = EXCLUDED.currency,
			   stock_qty = EXCLUDED.stock_qty,
			   url = EXCLUDED.url,
			   is_active = TRUE`,
			p.ID, strings.ToUpper(p.SKU), p.Name, p.Price, p.Currency, p.StockQty, p.URL); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateOrder buyurtma yaratish: bitta tranzaksiyada mijoz upsert,
// yil bo'yicha navbatdagi raqam, pozitsiyalar va kiruvchi xabar yozuvi
func (c *postgresCatalog) CreateOrder(ctx context.Context, data entity.CreateOrderData) (*entity.Order, error) {
	if data.CustomerPhone == "" {
		return nil, fmt.Errorf("mijoz telefoni bo'sh")
	}
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("buyurtma pozitsiyalari bo'sh")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	customer, err := findOrCreateCustomer(ctx, tx, data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	year := now.Year()
	prefix := fmt.Sprintf("%s-%04d-", constants.OrderNumberPrefix, year)

	var lastNumber sql.NullString
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(number) FROM orders WHERE number LIKE $1`, prefix+"%").Scan(&lastNumber); err != nil {
		return nil, err
	}
	seq := 1
	if lastNumber.Valid {
		seq = entity.ParseOrderSequence(lastNumber.String, constants.OrderNumberPrefix, year) + 1
	}
	number := entity.FormatOrderNumber(constants.OrderNumberPrefix, year, seq)

	total := 0.0
	for _, item := range data.Items {
		total += item.Price * float64(item.Qty)
	}

	orderID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, number, customer_id, status, total_amount, currency, source, created_at)
		 VALUES ($1, $2, $3, 'NEW', $4, $5, $6, $7)`,
		orderID, number, customer.ID, total, constants.DefaultCurrency, data.Source, now); err != nil {
		return nil, err
	}

	var items []entity.OrderItem
	for _, item := range data.Items {
		amount := item.Price * float64(item.Qty)
		var productID sql.NullString
		_ = tx.QueryRowContext(ctx,
			`SELECT id FROM products WHERE UPPER(sku) = UPPER($1)`, item.SKU).Scan(&productID)

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, sku, name, qty, price, amount)
			 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`,
			uuid.NewString(), orderID, productID.String, item.SKU, item.Name, item.Qty, item.Price, amount); err != nil {
			return nil, err
		}
		items = append(items, entity.OrderItem{
			ProductID: productID.String,
			SKU:       item.SKU,
			Name:      item.Name,
			Qty:       item.Qty,
			Price:     item.Price,
			Amount:    amount,
		})
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, customer_id, order_id, channel, direction, body, created_at)
		 VALUES ($1, $2, $3, $4, 'in', $5, $6)`,
		uuid.NewString(), customer.ID, orderID, data.Source, data.OriginalMessage, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &entity.Order{
		ID:          orderID,
		Number:      number,
		Customer:    *customer,
		Items:       items,
		Status:      "NEW",
		TotalAmount: total,
		Currency:    constants.DefaultCurrency,
		Source:      data.Source,
		CreatedAt:   now,
	}, nil
}

func findOrCreateCustomer(ctx context.Context, tx *sql.Tx, data entity.CreateOrderData) (*entity.Customer, error) {
	var c entity.Customer
	err := tx.QueryRowContext(ctx,
		`SELECT id, phone, COALESCE(name, ''), COALESCE(email, ''), COALESCE(tg_user_id, ''), locale
		 FROM customers WHERE phone = $1`, data.CustomerPhone).
		Scan(&c.ID, &c.Phone, &c.Name, &c.Email, &c.TgUserID, &c.Locale)
	if err == sql.ErrNoRows {
		c = entity.Customer{
			ID:       uuid.NewString(),
			Phone:    data.CustomerPhone,
			Name:     data.CustomerName,
			Email:    data.CustomerEmail,
			TgUserID: data.TgUserID,
			Locale:   data.Locale,
		}
		if c.Locale == "" {
			c.Locale = "ru"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customers (id, phone, name, email, tg_user_id, locale)
			 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)`,
			c.ID, c.Phone, c.Name, c.Email, c.TgUserID, c.Locale); err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err != nil {
		return nil, err
	}

	// Yangi ma'lumot bo'lsa to'ldiramiz
	if c.Name == "" && data.CustomerName != "" {
		c.Name = data.CustomerName
	}
	if c.Email == "" && data.CustomerEmail != "" {
		c.Email = data.CustomerEmail
	}
	if c.TgUserID == "" && data.TgUserID != "" {
		c.TgUserID = data.TgUserID
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE customers SET name = NULLIF($2, ''), email = NULLIF($3, ''), tg_user_id = NULLIF($4, '')
		 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.TgUserID); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindOrderByNumber buyurtmani raqam bo'yicha olish
func (c *postgresCatalog) FindOrderByNumber(ctx context.Context, number string) (*entity.Order, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT o.id, o.number, o.status, o.total_amount, o.currency, o.source, o.created_at,
		        c.id, c.phone, COALESCE(c.name, ''), COALESCE(c.email, ''), COALESCE(c.tg_user_id, ''), c.locale
		 FROM orders o JOIN customers c ON c.id = o.customer_id
		 WHERE UPPER(o.number) = UPPER($1)`, number)

	var o entity.Order
	if err := row.Scan(&o.ID, &o.Number, &o.Status, &o.TotalAmount, &o.Currency, &o.Source, &o.CreatedAt,
		&o.Customer.ID, &o.Customer.Phone, &o.Customer.Name, &o.Customer.Email, &o.Customer.TgUserID, &o.Customer.Locale); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT COALESCE(product_id, ''), sku, name, qty, price, amount
		 FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.Qty, &item.Price, &item.Amount); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}
