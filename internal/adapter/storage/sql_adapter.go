package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// SQLAdapter stores items, balances and receipts in a relational database.
// Unsigned values above math.MaxInt64 do not fit a BIGINT column and are
// rejected with domain.ErrValueOutOfRange.
type SQLAdapter struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLAdapter(db *sql.DB, dialect Dialect) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: dialect}
}

// Migrate creates the tables if they don't already exist.
func (m *SQLAdapter) Migrate(ctx context.Context) error {
	for i, stmt := range m.dialect.schema() {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (m *SQLAdapter) CreateItem(ctx context.Context, item domain.Item) error {
	if len(item.Name) > domain.MaxNameLength {
		return fmt.Errorf("%w: %d bytes", domain.ErrNameTooLong, len(item.Name))
	}
	vals, err := toInt64s(item.ID, item.Quantity, item.Price)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, m.dialect.rebind(`
		INSERT INTO items (address, item_id, name, quantity, price, authority, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`),
		item.Address().String(), vals[0], item.Name, vals[1], vals[2], item.Authority.String(),
		item.CreatedAt.UTC(), item.UpdatedAt.UTC(),
	)
	if m.dialect.isDuplicate(err) {
		return port.ErrItemExists
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *SQLAdapter) GetItem(ctx context.Context, id uint64) (*domain.Item, error) {
	row := m.db.QueryRowContext(ctx, m.dialect.rebind(`
		SELECT item_id, name, quantity, price, authority, version, created_at, updated_at
		FROM items WHERE address = ?`), domain.ItemAddress(id).String(),
	)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

func (m *SQLAdapter) UpdateItem(ctx context.Context, item domain.Item) error {
	if len(item.Name) > domain.MaxNameLength {
		return fmt.Errorf("%w: %d bytes", domain.ErrNameTooLong, len(item.Name))
	}
	vals, err := toInt64s(item.Quantity, item.Price)
	if err != nil {
		return err
	}

	address := item.Address().String()
	result, err := m.db.ExecContext(ctx, m.dialect.rebind(`
		UPDATE items
		SET name = ?, quantity = ?, price = ?, version = version + 1, updated_at = ?
		WHERE address = ? AND version = ?`),
		item.Name, vals[0], vals[1], item.UpdatedAt.UTC(), address, item.Version,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := m.GetItem(ctx, item.ID); err != nil {
			return err
		}
		return port.ErrOptimisticLock
	}
	return nil
}

func (m *SQLAdapter) DeleteItem(ctx context.Context, id uint64) error {
	result, err := m.db.ExecContext(ctx, m.dialect.rebind(`DELETE FROM items WHERE address = ?`),
		domain.ItemAddress(id).String(),
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrItemNotFound
	}
	return nil
}

func (m *SQLAdapter) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT item_id, name, quantity, price, authority, version, created_at, updated_at
		FROM items ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Transfer debits from and credits to in a single transaction. The debit only
// applies when the balance covers amount.
func (m *SQLAdapter) Transfer(ctx context.Context, from, to domain.Identity, amount uint64) error {
	value, err := toInt64(amount)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, m.dialect.rebind(`
		UPDATE balances SET amount = amount - ?
		WHERE owner = ? AND amount >= ?`),
		value, from.String(), value,
	)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, m.dialect.rebind(m.dialect.upsertBalance()), to.String(), value); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	return tx.Commit()
}

func (m *SQLAdapter) Deposit(ctx context.Context, owner domain.Identity, amount uint64) error {
	value, err := toInt64(amount)
	if err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, m.dialect.rebind(m.dialect.upsertBalance()), owner.String(), value); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

func (m *SQLAdapter) Balance(ctx context.Context, owner domain.Identity) (uint64, error) {
	var amount int64
	err := m.db.QueryRowContext(ctx, m.dialect.rebind(`SELECT amount FROM balances WHERE owner = ?`),
		owner.String(),
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return uint64(amount), nil
}

func (m *SQLAdapter) SaveReceipt(ctx context.Context, r domain.Receipt) error {
	vals, err := toInt64s(r.ItemID, r.Quantity, r.Total, r.Remaining)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, m.dialect.rebind(`
		INSERT INTO receipts (id, request_id, item_id, buyer, seller, quantity, total, remaining, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.RequestID, vals[0], r.Buyer.String(), r.Seller.String(), vals[1], vals[2], vals[3], r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (m *SQLAdapter) ListReceipts(ctx context.Context, itemID uint64) ([]domain.Receipt, error) {
	id, err := toInt64(itemID)
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, m.dialect.rebind(`
		SELECT id, request_id, item_id, buyer, seller, quantity, total, remaining, created_at
		FROM receipts WHERE item_id = ? ORDER BY created_at DESC, id DESC`), id,
	)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []domain.Receipt
	for rows.Next() {
		var (
			r                                domain.Receipt
			item, quantity, total, remaining int64
			buyer, seller                    string
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &item, &buyer, &seller, &quantity, &total, &remaining, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if r.Buyer, err = domain.ParseIdentity(buyer); err != nil {
			return nil, fmt.Errorf("scan receipt buyer: %w", err)
		}
		if r.Seller, err = domain.ParseIdentity(seller); err != nil {
			return nil, fmt.Errorf("scan receipt seller: %w", err)
		}
		r.ItemID = uint64(item)
		r.Quantity = uint64(quantity)
		r.Total = uint64(total)
		r.Remaining = uint64(remaining)
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item                 domain.Item
		id, quantity, price  int64
		authority            string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &item.Name, &quantity, &price, &authority, &item.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	owner, err := domain.ParseIdentity(authority)
	if err != nil {
		return nil, err
	}

	item.ID = uint64(id)
	item.Quantity = uint64(quantity)
	item.Price = uint64(price)
	item.Authority = owner
	item.CreatedAt = createdAt
	item.UpdatedAt = updatedAt
	return &item, nil
}

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", domain.ErrValueOutOfRange, v)
	}
	return int64(v), nil
}

func toInt64s(vs ...uint64) ([]int64, error) {
	out := make([]int64, len(vs))
	for i, v := range vs {
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
