package domain

import "time"

// MaxQuantity caps a single cart line.
const MaxQuantity = 10000

type Cart struct {
	ID     int64             `json:"id"`
	UserID int64             `json:"user_id"`
	Items  []TransactionItem `json:"items"`
}

// TransactionItem is one cart line. Quantity stays in [1, MaxQuantity] for as
// long as the row exists; Version guards the quantity read-modify-write.
type TransactionItem struct {
	ID         int64     `json:"id"`
	CartID     int64     `json:"cart_id"`
	ShopItemID int64     `json:"shop_item_id"`
	Quantity   int       `json:"quantity"`
	Version    int       `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DecrementResult is what a quantity decrement leaves behind: either the
// updated line or, when the line hit zero, Removed with no item.
type DecrementResult struct {
	Item    *TransactionItem `json:"item,omitempty"`
	Removed bool             `json:"removed"`
}
