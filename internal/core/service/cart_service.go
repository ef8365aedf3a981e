package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

// CartService maintains cart line items. A line is unique per (cart, shop
// item) and its quantity never drops below one: decrementing a line at one
// removes it.
type CartService struct {
	db    port.DatabaseRepository
	coord *Coordinator
}

func NewCartService(db port.DatabaseRepository, coord *Coordinator) *CartService {
	return &CartService{db: db, coord: coord}
}

func cartOf(ctx context.Context, r port.Repositories, userID int64) (*domain.Cart, error) {
	cart, err := r.Carts().GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrEntityNotFound) {
		return nil, domain.InvalidState(fmt.Sprintf("user %d has no cart", userID))
	}
	return cart, err
}

// AddItem adds quantity units of a shop item to the cart of a user and
// returns the user with the updated cart.
func (s *CartService) AddItem(ctx context.Context, userID, shopItemID int64, quantity int) (*domain.User, error) {
	if quantity < 1 || quantity > domain.MaxQuantity {
		return nil, domain.InvalidInput(fmt.Sprintf("quantity must be between 1 and %d", domain.MaxQuantity), nil)
	}

	var view *domain.User
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityCart, Kind: domain.MutationAddItem}, func(r port.Repositories) error {
		user, err := r.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := r.ShopItems().Get(ctx, shopItemID); err != nil {
			return err
		}
		cart, err := cartOf(ctx, r, userID)
		if err != nil {
			return err
		}

		item, err := r.Carts().FindItem(ctx, cart.ID, shopItemID)
		switch {
		case errors.Is(err, domain.ErrEntityNotFound):
			item = &domain.TransactionItem{CartID: cart.ID, ShopItemID: shopItemID, Quantity: quantity}
			err = r.Carts().CreateItem(ctx, item)
		case err == nil:
			if item.Quantity > domain.MaxQuantity-quantity {
				return exceedsMax(item)
			}
			item.Quantity += quantity
			err = r.Carts().UpdateItemQuantity(ctx, item)
		}
		if err != nil {
			return err
		}

		if user.Cart, err = r.Carts().GetByUser(ctx, userID); err != nil {
			return err
		}
		view = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RemoveItem deletes a line from the cart of a user regardless of its
// quantity.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error) {
	var view *domain.Cart
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityCart, Kind: domain.MutationRemoveItem}, func(r port.Repositories) error {
		if _, err := r.Users().Get(ctx, userID); err != nil {
			return err
		}
		cart, err := cartOf(ctx, r, userID)
		if err != nil {
			return err
		}
		item, err := r.Carts().GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.CartID != cart.ID {
			return domain.NotFound("transaction item", itemID)
		}
		if err := r.Carts().DeleteItem(ctx, item); err != nil {
			return err
		}

		view, err = r.Carts().GetByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *CartService) IncrementQuantity(ctx context.Context, itemID int64) (*domain.TransactionItem, error) {
	var view *domain.TransactionItem
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityCart, Kind: domain.MutationIncrementItem}, func(r port.Repositories) error {
		item, err := r.Carts().GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Quantity >= domain.MaxQuantity {
			return exceedsMax(item)
		}
		item.Quantity++
		if err := r.Carts().UpdateItemQuantity(ctx, item); err != nil {
			return err
		}
		view = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// DecrementQuantity lowers the quantity of a line by one. A line at one is
// deleted and reported as Removed.
func (s *CartService) DecrementQuantity(ctx context.Context, itemID int64) (domain.DecrementResult, error) {
	var result domain.DecrementResult
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityCart, Kind: domain.MutationDecrementItem}, func(r port.Repositories) error {
		item, err := r.Carts().GetItem(ctx, itemID)
		if err != nil {
			return err
		}

		if item.Quantity <= 1 {
			if err := r.Carts().DeleteItem(ctx, item); err != nil {
				return err
			}
			result = domain.DecrementResult{Removed: true}
			return nil
		}

		item.Quantity--
		if err := r.Carts().UpdateItemQuantity(ctx, item); err != nil {
			return err
		}
		result = domain.DecrementResult{Item: item}
		return nil
	})
	if err != nil {
		return domain.DecrementResult{}, err
	}
	return result, nil
}

// GetCart reads the cart of a user straight from the store.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	if _, err := s.db.Users().Get(ctx, userID); err != nil {
		return nil, storeErr(err)
	}
	cart, err := cartOf(ctx, s.db, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return cart, nil
}

func exceedsMax(item *domain.TransactionItem) error {
	return domain.InvalidState(fmt.Sprintf("cart line %d would exceed %d units", item.ID, domain.MaxQuantity))
}

// storeErr passes domain errors through and hides everything else behind
// UPSTREAM_FAILURE.
func storeErr(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Upstream("store failure", err)
}
