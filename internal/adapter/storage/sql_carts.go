package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

type cartRepo repos

const itemColumns = `id, cart_id, shop_item_id, quantity, version, created_at, updated_at`

func scanItem(row scanner) (*domain.TransactionItem, error) {
	var it domain.TransactionItem
	err := row.Scan(&it.ID, &it.CartID, &it.ShopItemID, &it.Quantity, &it.Version, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r cartRepo) GetByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart := domain.Cart{UserID: userID, Items: []domain.TransactionItem{}}
	err := r.q.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = ?`, userID).Scan(&cart.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.Error{Kind: domain.KindEntityNotFound, Message: fmt.Sprintf("cart of user %d not found", userID)}
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM transaction_items
		WHERE cart_id = ? ORDER BY id`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r cartRepo) Create(ctx context.Context, userID int64) (*domain.Cart, error) {
	result, err := r.q.ExecContext(ctx, `INSERT INTO carts (user_id) VALUES (?)`, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.AlreadyExists(fmt.Sprintf("user %d already has a cart", userID))
		}
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("cart id: %w", err)
	}
	return &domain.Cart{ID: id, UserID: userID, Items: []domain.TransactionItem{}}, nil
}

func (r cartRepo) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.q.ExecContext(ctx, `
		DELETE FROM transaction_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)`, userID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM carts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r cartRepo) GetItem(ctx context.Context, itemID int64) (*domain.TransactionItem, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM transaction_items WHERE id = ?`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("transaction item", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("query cart item: %w", err)
	}
	return it, nil
}

func (r cartRepo) FindItem(ctx context.Context, cartID, shopItemID int64) (*domain.TransactionItem, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM transaction_items
		WHERE cart_id = ? AND shop_item_id = ?`, cartID, shopItemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.Error{Kind: domain.KindEntityNotFound, Message: "cart line not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}
	return it, nil
}

func (r cartRepo) CreateItem(ctx context.Context, it *domain.TransactionItem) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO transaction_items (cart_id, shop_item_id, quantity, version, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		it.CartID, it.ShopItemID, it.Quantity, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOptimisticLock
		}
		return fmt.Errorf("insert cart item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("cart item id: %w", err)
	}
	it.ID, it.Version, it.CreatedAt, it.UpdatedAt = id, 0, now, now
	return nil
}

func (r cartRepo) UpdateItemQuantity(ctx context.Context, it *domain.TransactionItem) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		UPDATE transaction_items
		SET quantity = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		it.Quantity, now, it.ID, it.Version,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if err := expectOne(result, domain.ErrOptimisticLock); err != nil {
		return err
	}
	it.Version++
	it.UpdatedAt = now
	return nil
}

func (r cartRepo) DeleteItem(ctx context.Context, it *domain.TransactionItem) error {
	result, err := r.q.ExecContext(ctx, `
		DELETE FROM transaction_items WHERE id = ? AND version = ?`, it.ID, it.Version)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return expectOne(result, domain.ErrOptimisticLock)
}

func (r cartRepo) DeleteItemsByShopItem(ctx context.Context, shopItemID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM transaction_items WHERE shop_item_id = ?`, shopItemID); err != nil {
		return fmt.Errorf("delete cart items of shop item: %w", err)
	}
	return nil
}
