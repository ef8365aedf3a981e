package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

type InstructorService struct {
	db    port.DatabaseRepository
	cache *cache.Cache
	coord *Coordinator
}

func NewInstructorService(db port.DatabaseRepository, c *cache.Cache, coord *Coordinator) *InstructorService {
	return &InstructorService{db: db, cache: c, coord: coord}
}

func (s *InstructorService) Get(ctx context.Context, id int64) (*domain.Instructor, error) {
	in, err := cache.ReadThrough(ctx, s.cache, domain.RegionInstructors, idKey(id), func(ctx context.Context) (*domain.Instructor, error) {
		return s.db.Instructors().Get(ctx, id)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return in, nil
}

func (s *InstructorService) GetByUser(ctx context.Context, userID int64) (*domain.Instructor, error) {
	key := fmt.Sprintf("user:%d", userID)
	in, err := cache.ReadThrough(ctx, s.cache, domain.RegionInstructors, key, func(ctx context.Context) (*domain.Instructor, error) {
		return s.db.Instructors().GetByUser(ctx, userID)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return in, nil
}

func (s *InstructorService) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.Instructor], error) {
	filter = filter.Normalize()
	page, err := cache.ReadThrough(ctx, s.cache, domain.RegionInstructors, listKey(filter), func(ctx context.Context) (domain.Page[domain.Instructor], error) {
		return s.db.Instructors().List(ctx, filter)
	})
	if err != nil {
		return page, storeErr(err)
	}
	return page, nil
}

// Create turns an existing user into an instructor. A user has at most one
// instructor profile.
func (s *InstructorService) Create(ctx context.Context, req InstructorRequest) (*domain.Instructor, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.Instructor
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityInstructor, Kind: domain.MutationCreate}, func(r port.Repositories) error {
		u, err := r.Users().Get(ctx, req.UserID)
		if err != nil {
			return err
		}
		_, err = r.Instructors().GetByUser(ctx, req.UserID)
		switch {
		case err == nil:
			return domain.AlreadyExists(fmt.Sprintf("user %d is already an instructor", req.UserID))
		case !errors.Is(err, domain.ErrEntityNotFound):
			return err
		}
		if req.FacilityID != nil {
			if _, err := r.Facilities().Get(ctx, *req.FacilityID); err != nil {
				return err
			}
		}

		in := &domain.Instructor{
			UserID:      req.UserID,
			FacilityID:  req.FacilityID,
			Bio:         req.Bio,
			HourlyPrice: req.HourlyPrice,
		}
		if err := r.Instructors().Create(ctx, in); err != nil {
			return err
		}
		if err := r.Ratings().Create(ctx, domain.CommentTarget{Kind: domain.TargetInstructor, ID: in.ID}); err != nil {
			return err
		}

		if u.Role == domain.RoleUser {
			u.Role = domain.RoleInstructor
			if err := r.Users().Update(ctx, u); err != nil {
				return err
			}
		}

		view, err = r.Instructors().Get(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Update rewrites the profile fields. The owning user never changes.
func (s *InstructorService) Update(ctx context.Context, id int64, req InstructorRequest) (*domain.Instructor, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.Instructor
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityInstructor, Kind: domain.MutationUpdate}, func(r port.Repositories) error {
		in, err := r.Instructors().Get(ctx, id)
		if err != nil {
			return err
		}
		if in.UserID != req.UserID {
			return domain.InvalidInput("instructor owner cannot change", nil)
		}
		if req.FacilityID != nil {
			if _, err := r.Facilities().Get(ctx, *req.FacilityID); err != nil {
				return err
			}
		}

		in.FacilityID, in.Bio, in.HourlyPrice = req.FacilityID, req.Bio, req.HourlyPrice
		if err := r.Instructors().Update(ctx, in); err != nil {
			return err
		}
		view = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// deleteInstructor removes an instructor with its comments and rating and
// demotes its user back to ROLE_USER.
func deleteInstructor(ctx context.Context, r port.Repositories, id int64) error {
	in, err := r.Instructors().Get(ctx, id)
	if err != nil {
		return err
	}

	target := domain.CommentTarget{Kind: domain.TargetInstructor, ID: id}
	if err := r.Comments().DeleteByTarget(ctx, target); err != nil {
		return err
	}
	if err := r.Ratings().Delete(ctx, target); err != nil {
		return err
	}
	if err := r.Instructors().Delete(ctx, id); err != nil {
		return err
	}

	u, err := r.Users().Get(ctx, in.UserID)
	switch {
	case errors.Is(err, domain.ErrEntityNotFound):
		return nil
	case err != nil:
		return err
	}
	if u.Role != domain.RoleInstructor {
		return nil
	}
	u.Role = domain.RoleUser
	return r.Users().Update(ctx, u)
}

func (s *InstructorService) Delete(ctx context.Context, id int64) error {
	return s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityInstructor, Kind: domain.MutationDelete}, func(r port.Repositories) error {
		return deleteInstructor(ctx, r, id)
	})
}

// AttachImage records the reference of an uploaded profile image.
func (s *InstructorService) AttachImage(ctx context.Context, id int64, req ImageRequest) (*domain.Instructor, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.Instructor
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityInstructor, Kind: domain.MutationImage}, func(r port.Repositories) error {
		in, err := r.Instructors().Get(ctx, id)
		if err != nil {
			return err
		}
		imageID := req.ImageID
		in.ProfileImageID = &imageID
		if err := r.Instructors().Update(ctx, in); err != nil {
			return err
		}
		view = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
