package service

import (
	"context"

	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

type ShopItemService struct {
	db    port.DatabaseRepository
	cache *cache.Cache
	coord *Coordinator
}

func NewShopItemService(db port.DatabaseRepository, c *cache.Cache, coord *Coordinator) *ShopItemService {
	return &ShopItemService{db: db, cache: c, coord: coord}
}

func (s *ShopItemService) Get(ctx context.Context, id int64) (*domain.ShopItem, error) {
	item, err := cache.ReadThrough(ctx, s.cache, domain.RegionShopItems, idKey(id), func(ctx context.Context) (*domain.ShopItem, error) {
		return s.db.ShopItems().Get(ctx, id)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return item, nil
}

func (s *ShopItemService) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.ShopItem], error) {
	filter = filter.Normalize()
	page, err := cache.ReadThrough(ctx, s.cache, domain.RegionShopItems, listKey(filter), func(ctx context.Context) (domain.Page[domain.ShopItem], error) {
		return s.db.ShopItems().List(ctx, filter)
	})
	if err != nil {
		return page, storeErr(err)
	}
	return page, nil
}

func (s *ShopItemService) Create(ctx context.Context, req ShopItemRequest) (*domain.ShopItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.ShopItem
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityShopItem, Kind: domain.MutationCreate}, func(r port.Repositories) error {
		item := &domain.ShopItem{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			SportType:   req.SportType,
			Price:       req.Price,
			Stock:       req.Stock,
		}
		if err := r.ShopItems().Create(ctx, item); err != nil {
			return err
		}
		if err := r.Ratings().Create(ctx, domain.CommentTarget{Kind: domain.TargetShopItem, ID: item.ID}); err != nil {
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

func (s *ShopItemService) Update(ctx context.Context, id int64, req ShopItemRequest) (*domain.ShopItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.ShopItem
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityShopItem, Kind: domain.MutationUpdate}, func(r port.Repositories) error {
		item, err := r.ShopItems().Get(ctx, id)
		if err != nil {
			return err
		}
		item.Name, item.Description = req.Name, req.Description
		item.Category, item.SportType = req.Category, req.SportType
		item.Price, item.Stock = req.Price, req.Stock
		if err := r.ShopItems().Update(ctx, item); err != nil {
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

// Delete removes a shop item together with every cart line, comment and
// rating that refers to it.
func (s *ShopItemService) Delete(ctx context.Context, id int64) error {
	return s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityShopItem, Kind: domain.MutationDelete}, func(r port.Repositories) error {
		if _, err := r.ShopItems().Get(ctx, id); err != nil {
			return err
		}

		target := domain.CommentTarget{Kind: domain.TargetShopItem, ID: id}
		if err := r.Carts().DeleteItemsByShopItem(ctx, id); err != nil {
			return err
		}
		if err := r.Comments().DeleteByTarget(ctx, target); err != nil {
			return err
		}
		if err := r.Ratings().Delete(ctx, target); err != nil {
			return err
		}
		return r.ShopItems().Delete(ctx, id)
	})
}

func (s *ShopItemService) AttachImage(ctx context.Context, id int64, req ImageRequest) (*domain.ShopItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.ShopItem
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityShopItem, Kind: domain.MutationImage}, func(r port.Repositories) error {
		item, err := r.ShopItems().Get(ctx, id)
		if err != nil {
			return err
		}
		imageID := req.ImageID
		item.ImageID = &imageID
		if err := r.ShopItems().Update(ctx, item); err != nil {
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
