package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

type UserService struct {
	db    port.DatabaseRepository
	cache *cache.Cache
	coord *Coordinator
	cost  int
}

func NewUserService(db port.DatabaseRepository, c *cache.Cache, coord *Coordinator) *UserService {
	return &UserService{db: db, cache: c, coord: coord, cost: bcrypt.DefaultCost}
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.InvalidInput("password too long", err)
		}
		return "", domain.Upstream("hash password", err)
	}
	return string(h), nil
}

func checkPassword(u *domain.User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.InvalidInput("password does not match", nil)
	}
	return nil
}

// loadUser returns a user with its cart. A user without a cart is returned
// with a nil Cart.
func loadUser(ctx context.Context, r port.Repositories, id int64) (*domain.User, error) {
	u, err := r.Users().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cart, err := r.Carts().GetByUser(ctx, id)
	switch {
	case err == nil:
		u.Cart = cart
	case !errors.Is(err, domain.ErrEntityNotFound):
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := cache.ReadThrough(ctx, s.cache, domain.RegionUsers, idKey(id), func(ctx context.Context) (*domain.User, error) {
		u, err := loadUser(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = ""
		return u, nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.User], error) {
	filter = filter.Normalize()
	page, err := cache.ReadThrough(ctx, s.cache, domain.RegionUsers, listKey(filter), func(ctx context.Context) (domain.Page[domain.User], error) {
		page, err := s.db.Users().List(ctx, filter)
		for i := range page.Items {
			page.Items[i].PasswordHash = ""
		}
		return page, err
	})
	if err != nil {
		return page, storeErr(err)
	}
	return page, nil
}

// Create registers a user and provisions its empty cart.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}

	var view *domain.User
	err = s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityUser, Kind: domain.MutationCreate}, func(r port.Repositories) error {
		_, err := r.Users().GetByEmail(ctx, req.Email)
		switch {
		case err == nil:
			return domain.AlreadyExists("email already registered")
		case !errors.Is(err, domain.ErrEntityNotFound):
			return err
		}

		u := &domain.User{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         role,
		}
		if err := r.Users().Create(ctx, u); err != nil {
			return err
		}
		if u.Cart, err = r.Carts().Create(ctx, u.ID); err != nil {
			return err
		}
		view = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*domain.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.User
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityUser, Kind: domain.MutationUpdate}, func(r port.Repositories) error {
		u, err := loadUser(ctx, r, id)
		if err != nil {
			return err
		}
		u.FirstName, u.LastName, u.Email = req.FirstName, req.LastName, req.Email
		if req.Role != "" {
			u.Role = req.Role
		}
		if err := r.Users().Update(ctx, u); err != nil {
			return err
		}
		view = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes a user after checking its password. The cart, its lines
// and any instructor profile go with it; comments the user wrote stay.
func (s *UserService) Delete(ctx context.Context, id int64, password string) error {
	return s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityUser, Kind: domain.MutationDelete}, func(r port.Repositories) error {
		u, err := r.Users().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := checkPassword(u, password); err != nil {
			return err
		}

		if err := r.Carts().DeleteByUser(ctx, id); err != nil {
			return err
		}

		in, err := r.Instructors().GetByUser(ctx, id)
		switch {
		case err == nil:
			if err := deleteInstructor(ctx, r, in.ID); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrEntityNotFound):
			return err
		}

		return r.Users().Delete(ctx, id)
	})
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}

	return s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityUser, Kind: domain.MutationPasswordChange}, func(r port.Repositories) error {
		u, err := r.Users().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := checkPassword(u, req.OldPassword); err != nil {
			return err
		}
		u.PasswordHash = hash
		return r.Users().Update(ctx, u)
	})
}
