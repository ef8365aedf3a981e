package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

// RatingService accepts comments and keeps the running mean rating of the
// commented entity in step with them. Each user comments a target at most
// once.
type RatingService struct {
	db    port.DatabaseRepository
	coord *Coordinator
	log   *zap.Logger
}

func NewRatingService(db port.DatabaseRepository, coord *Coordinator, log *zap.Logger) *RatingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RatingService{db: db, coord: coord, log: log}
}

func commentEntity(kind domain.TargetKind) (domain.EntityType, error) {
	switch kind {
	case domain.TargetFacility:
		return domain.EntityFacility, nil
	case domain.TargetInstructor:
		return domain.EntityInstructor, nil
	case domain.TargetShopItem:
		return domain.EntityShopItem, nil
	}
	return "", domain.InvalidInput("unknown comment target "+string(kind), nil)
}

func targetExists(ctx context.Context, r port.Repositories, target domain.CommentTarget) error {
	var err error
	switch target.Kind {
	case domain.TargetFacility:
		_, err = r.Facilities().Get(ctx, target.ID)
	case domain.TargetInstructor:
		_, err = r.Instructors().Get(ctx, target.ID)
	case domain.TargetShopItem:
		_, err = r.ShopItems().Get(ctx, target.ID)
	}
	return err
}

// AddComment stores a comment of a user on target and folds its rate into
// the target rating. The comment and the rating change commit together.
func (s *RatingService) AddComment(ctx context.Context, target domain.CommentTarget, req CommentRequest) (*domain.Comment, error) {
	entity, err := commentEntity(target.Kind)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.Comment
	err = s.coord.Commit(ctx, domain.Mutation{Entity: entity, Kind: domain.MutationComment}, func(r port.Repositories) error {
		if err := targetExists(ctx, r, target); err != nil {
			return err
		}
		if _, err := r.Users().Get(ctx, req.CommenterID); err != nil {
			return err
		}

		exists, err := r.Comments().Exists(ctx, req.CommenterID, target)
		if err != nil {
			return err
		}
		if exists {
			return &domain.Error{Kind: domain.KindDuplicateComment, Message: "user already commented on " + target.String()}
		}

		rating, err := r.Ratings().Get(ctx, target)
		if errors.Is(err, domain.ErrEntityNotFound) {
			err = r.Ratings().Create(ctx, target)
			if errors.Is(err, domain.ErrAlreadyExists) {
				// a concurrent first comment created it, start over
				return domain.ErrOptimisticLock
			}
			if err == nil {
				rating, err = r.Ratings().Get(ctx, target)
			}
		}
		if err != nil {
			return err
		}

		comment := &domain.Comment{
			CommenterID: req.CommenterID,
			Target:      target,
			Text:        req.Text,
			Rate:        req.Rate,
		}
		if err := r.Comments().Create(ctx, comment); err != nil {
			return err
		}
		if err := r.Ratings().Update(ctx, target, rating.With(req.Rate)); err != nil {
			return err
		}
		view = comment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("comment accepted", zap.Stringer("target", target),
		zap.Int64("commenter_id", req.CommenterID), zap.Int("rate", req.Rate))
	return view, nil
}

// ListComments returns the comments of target, newest first.
func (s *RatingService) ListComments(ctx context.Context, target domain.CommentTarget) ([]domain.Comment, error) {
	if _, err := commentEntity(target.Kind); err != nil {
		return nil, err
	}
	if err := targetExists(ctx, s.db, target); err != nil {
		return nil, storeErr(err)
	}
	comments, err := s.db.Comments().ListByTarget(ctx, target)
	if err != nil {
		return nil, storeErr(err)
	}
	return comments, nil
}

// Rating reads the current rating of target from the store.
func (s *RatingService) Rating(ctx context.Context, target domain.CommentTarget) (domain.Rating, error) {
	rating, err := s.db.Ratings().Get(ctx, target)
	if err != nil {
		return rating, storeErr(err)
	}
	return rating, nil
}
