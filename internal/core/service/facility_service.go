package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

type FacilityService struct {
	db    port.DatabaseRepository
	cache *cache.Cache
	coord *Coordinator
}

func NewFacilityService(db port.DatabaseRepository, c *cache.Cache, coord *Coordinator) *FacilityService {
	return &FacilityService{db: db, cache: c, coord: coord}
}

func (s *FacilityService) Get(ctx context.Context, id int64) (*domain.SportFacility, error) {
	f, err := cache.ReadThrough(ctx, s.cache, domain.RegionFacilities, idKey(id), func(ctx context.Context) (*domain.SportFacility, error) {
		return s.db.Facilities().Get(ctx, id)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return f, nil
}

func (s *FacilityService) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.SportFacility], error) {
	filter = filter.Normalize()
	page, err := cache.ReadThrough(ctx, s.cache, domain.RegionFacilities, listKey(filter), func(ctx context.Context) (domain.Page[domain.SportFacility], error) {
		return s.db.Facilities().List(ctx, filter)
	})
	if err != nil {
		return page, storeErr(err)
	}
	return page, nil
}

func nameTaken(ctx context.Context, r port.Repositories, name string, self int64) error {
	other, err := r.Facilities().GetByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrEntityNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return domain.AlreadyExists(fmt.Sprintf("sport facility %q already exists", name))
	}
	return nil
}

func assignInstructor(ctx context.Context, r port.Repositories, facilityID, instructorID int64) error {
	in, err := r.Instructors().Get(ctx, instructorID)
	if err != nil {
		return err
	}
	in.FacilityID = &facilityID
	return r.Instructors().Update(ctx, in)
}

// Create registers a facility with an empty rating and moves the listed
// instructors to it.
func (s *FacilityService) Create(ctx context.Context, req FacilityRequest) (*domain.SportFacility, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.SportFacility
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityFacility, Kind: domain.MutationCreate}, func(r port.Repositories) error {
		if err := nameTaken(ctx, r, req.Name, 0); err != nil {
			return err
		}

		f := &domain.SportFacility{
			Name:        req.Name,
			Email:       req.Email,
			Mobile:      req.Mobile,
			City:        req.City,
			Street:      req.Street,
			Description: req.Description,
		}
		if err := r.Facilities().Create(ctx, f); err != nil {
			return err
		}
		if err := r.Ratings().Create(ctx, domain.CommentTarget{Kind: domain.TargetFacility, ID: f.ID}); err != nil {
			return err
		}
		for _, instructorID := range req.InstructorIDs {
			if err := assignInstructor(ctx, r, f.ID, instructorID); err != nil {
				return err
			}
		}

		var err error
		view, err = r.Facilities().Get(ctx, f.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Update rewrites the facility fields. InstructorIDs are ignored here, use
// AddInstructor.
func (s *FacilityService) Update(ctx context.Context, id int64, req FacilityRequest) (*domain.SportFacility, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.SportFacility
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityFacility, Kind: domain.MutationUpdate}, func(r port.Repositories) error {
		f, err := r.Facilities().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := nameTaken(ctx, r, req.Name, id); err != nil {
			return err
		}

		f.Name, f.Email, f.Mobile = req.Name, req.Email, req.Mobile
		f.City, f.Street, f.Description = req.City, req.Street, req.Description
		if err := r.Facilities().Update(ctx, f); err != nil {
			return err
		}
		view = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes a facility with its comments and rating. Its instructors
// stay, without a facility.
func (s *FacilityService) Delete(ctx context.Context, id int64) error {
	return s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityFacility, Kind: domain.MutationDelete}, func(r port.Repositories) error {
		if _, err := r.Facilities().Get(ctx, id); err != nil {
			return err
		}

		target := domain.CommentTarget{Kind: domain.TargetFacility, ID: id}
		if err := r.Instructors().DetachFacility(ctx, id); err != nil {
			return err
		}
		if err := r.Comments().DeleteByTarget(ctx, target); err != nil {
			return err
		}
		if err := r.Ratings().Delete(ctx, target); err != nil {
			return err
		}
		return r.Facilities().Delete(ctx, id)
	})
}

func (s *FacilityService) AddInstructor(ctx context.Context, facilityID, instructorID int64) (*domain.SportFacility, error) {
	var view *domain.SportFacility
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityFacility, Kind: domain.MutationAddInstructor}, func(r port.Repositories) error {
		if _, err := r.Facilities().Get(ctx, facilityID); err != nil {
			return err
		}
		if err := assignInstructor(ctx, r, facilityID, instructorID); err != nil {
			return err
		}

		var err error
		view, err = r.Facilities().Get(ctx, facilityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AttachImage records the reference of an uploaded profile or map image.
func (s *FacilityService) AttachImage(ctx context.Context, id int64, kind domain.ImageKind, req ImageRequest) (*domain.SportFacility, error) {
	if kind != domain.ImageProfile && kind != domain.ImageMap {
		return nil, domain.InvalidInput(fmt.Sprintf("unknown image kind %q", kind), nil)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var view *domain.SportFacility
	err := s.coord.Commit(ctx, domain.Mutation{Entity: domain.EntityFacility, Kind: domain.MutationImage}, func(r port.Repositories) error {
		f, err := r.Facilities().Get(ctx, id)
		if err != nil {
			return err
		}
		imageID := req.ImageID
		if kind == domain.ImageMap {
			f.MapImageID = &imageID
		} else {
			f.ProfileImageID = &imageID
		}
		if err := r.Facilities().Update(ctx, f); err != nil {
			return err
		}
		view = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
