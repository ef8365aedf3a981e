package port

import (
	"context"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

// Lookups return domain.ErrEntityNotFound when the row does not exist and
// versioned updates return domain.ErrOptimisticLock when the version moved.

type UserRepository interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.User], error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}

type InstructorRepository interface {
	Get(ctx context.Context, id int64) (*domain.Instructor, error)
	GetByUser(ctx context.Context, userID int64) (*domain.Instructor, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.Instructor], error)
	ListIDsByFacility(ctx context.Context, facilityID int64) ([]int64, error)
	Create(ctx context.Context, instructor *domain.Instructor) error
	Update(ctx context.Context, instructor *domain.Instructor) error
	// DetachFacility clears the facility of every instructor working there.
	DetachFacility(ctx context.Context, facilityID int64) error
	Delete(ctx context.Context, id int64) error
}

type FacilityRepository interface {
	Get(ctx context.Context, id int64) (*domain.SportFacility, error)
	GetByName(ctx context.Context, name string) (*domain.SportFacility, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.SportFacility], error)
	Create(ctx context.Context, facility *domain.SportFacility) error
	Update(ctx context.Context, facility *domain.SportFacility) error
	Delete(ctx context.Context, id int64) error
}

type ShopItemRepository interface {
	Get(ctx context.Context, id int64) (*domain.ShopItem, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.ShopItem], error)
	Create(ctx context.Context, item *domain.ShopItem) error
	Update(ctx context.Context, item *domain.ShopItem) error
	Delete(ctx context.Context, id int64) error
}

type CartRepository interface {
	// GetByUser returns the cart of a user with its items.
	GetByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	Create(ctx context.Context, userID int64) (*domain.Cart, error)
	DeleteByUser(ctx context.Context, userID int64) error

	GetItem(ctx context.Context, itemID int64) (*domain.TransactionItem, error)
	// FindItem looks a line up by its (cart, shop item) key.
	FindItem(ctx context.Context, cartID, shopItemID int64) (*domain.TransactionItem, error)
	// CreateItem reports domain.ErrOptimisticLock when a concurrent writer
	// created the same (cart, shop item) line first.
	CreateItem(ctx context.Context, item *domain.TransactionItem) error
	// UpdateItemQuantity writes item.Quantity if item.Version is current.
	UpdateItemQuantity(ctx context.Context, item *domain.TransactionItem) error
	// DeleteItem deletes the line if item.Version is current.
	DeleteItem(ctx context.Context, item *domain.TransactionItem) error
	DeleteItemsByShopItem(ctx context.Context, shopItemID int64) error
}

type CommentRepository interface {
	Exists(ctx context.Context, commenterID int64, target domain.CommentTarget) (bool, error)
	// Create reports domain.ErrDuplicateComment on a (commenter, target) clash.
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTarget(ctx context.Context, target domain.CommentTarget) ([]domain.Comment, error)
	DeleteByTarget(ctx context.Context, target domain.CommentTarget) error
}

type RatingRepository interface {
	Get(ctx context.Context, target domain.CommentTarget) (domain.Rating, error)
	Create(ctx context.Context, target domain.CommentTarget) error
	// Update writes value and counter if rating.Version is current.
	Update(ctx context.Context, target domain.CommentTarget, rating domain.Rating) error
	Delete(ctx context.Context, target domain.CommentTarget) error
}

type Repositories interface {
	Users() UserRepository
	Instructors() InstructorRepository
	Facilities() FacilityRepository
	ShopItems() ShopItemRepository
	Carts() CartRepository
	Comments() CommentRepository
	Ratings() RatingRepository
}

type DatabaseRepository interface {
	Repositories

	// WithinTx runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(r Repositories) error) error

	Ping(ctx context.Context) error
}
