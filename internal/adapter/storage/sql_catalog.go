package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

type scanner interface{ Scan(...any) error }

const ratingJoin = `
	LEFT JOIN ratings r ON r.target_kind = '%s' AND r.target_id = %s.id`

const ratingColumns = `COALESCE(r.mean_value, 0.0), COALESCE(r.comment_count, 0), COALESCE(r.version, 0)`

// ---- instructors ----

type instructorRepo repos

var instructorSelect = `
	SELECT i.id, i.user_id, i.facility_id, i.bio, i.hourly_price, i.profile_image_id,
		i.created_at, i.updated_at, ` + ratingColumns + `
	FROM instructors i` + fmt.Sprintf(ratingJoin, domain.TargetInstructor, "i")

func scanInstructor(row scanner) (*domain.Instructor, error) {
	var in domain.Instructor
	var facility sql.NullInt64
	var image sql.NullString
	err := row.Scan(&in.ID, &in.UserID, &facility, &in.Bio, &in.HourlyPrice, &image,
		&in.CreatedAt, &in.UpdatedAt, &in.Rating.Value, &in.Rating.Counter, &in.Rating.Version)
	if err != nil {
		return nil, err
	}
	in.FacilityID = int64Ptr(facility)
	in.ProfileImageID = stringPtr(image)
	return &in, nil
}

func (r instructorRepo) Get(ctx context.Context, id int64) (*domain.Instructor, error) {
	in, err := scanInstructor(r.q.QueryRowContext(ctx, instructorSelect+` WHERE i.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("instructor", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query instructor: %w", err)
	}
	return in, nil
}

func (r instructorRepo) GetByUser(ctx context.Context, userID int64) (*domain.Instructor, error) {
	in, err := scanInstructor(r.q.QueryRowContext(ctx, instructorSelect+` WHERE i.user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.Error{Kind: domain.KindEntityNotFound, Message: fmt.Sprintf("instructor of user %d not found", userID)}
	}
	if err != nil {
		return nil, fmt.Errorf("query instructor by user: %w", err)
	}
	return in, nil
}

func (r instructorRepo) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.Instructor], error) {
	filter = filter.Normalize()
	page := domain.Page[domain.Instructor]{Items: []domain.Instructor{}, Page: filter.Page, Limit: filter.Limit}

	from := `
		JOIN users u ON u.id = i.user_id
		LEFT JOIN facilities f ON f.id = i.facility_id
		WHERE 1 = 1`
	args := []any{}
	if filter.Name != "" {
		from += ` AND (LOWER(u.first_name) LIKE ? ESCAPE '!' OR LOWER(u.last_name) LIKE ? ESCAPE '!')`
		args = append(args, likePattern(filter.Name), likePattern(filter.Name))
	}
	if filter.City != "" {
		from += ` AND LOWER(f.city) = ?`
		args = append(args, strings.ToLower(filter.City))
	}
	if filter.Available {
		from += ` AND f.id IS NOT NULL`
	}

	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM instructors i`+from, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count instructors: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, instructorSelect+from+` ORDER BY i.id LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return page, fmt.Errorf("query instructors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		in, err := scanInstructor(rows)
		if err != nil {
			return page, fmt.Errorf("scan instructor: %w", err)
		}
		page.Items = append(page.Items, *in)
	}
	return page, rows.Err()
}

func (r instructorRepo) ListIDsByFacility(ctx context.Context, facilityID int64) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM instructors WHERE facility_id = ? ORDER BY id`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("query facility instructors: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan instructor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r instructorRepo) Create(ctx context.Context, in *domain.Instructor) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO instructors (user_id, facility_id, bio, hourly_price, profile_image_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, nullInt64(in.FacilityID), in.Bio, in.HourlyPrice, nullString(in.ProfileImageID), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists(fmt.Sprintf("user %d is already an instructor", in.UserID))
		}
		return fmt.Errorf("insert instructor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("instructor id: %w", err)
	}
	in.ID, in.CreatedAt, in.UpdatedAt = id, now, now
	return nil
}

func (r instructorRepo) Update(ctx context.Context, in *domain.Instructor) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		UPDATE instructors
		SET facility_id = ?, bio = ?, hourly_price = ?, profile_image_id = ?, updated_at = ?
		WHERE id = ?`,
		nullInt64(in.FacilityID), in.Bio, in.HourlyPrice, nullString(in.ProfileImageID), now, in.ID,
	)
	if err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	if err := expectOne(result, domain.NotFound("instructor", in.ID)); err != nil {
		return err
	}
	in.UpdatedAt = now
	return nil
}

func (r instructorRepo) DetachFacility(ctx context.Context, facilityID int64) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE instructors SET facility_id = NULL, updated_at = ? WHERE facility_id = ?`,
		r.now(), facilityID)
	if err != nil {
		return fmt.Errorf("detach instructors: %w", err)
	}
	return nil
}

func (r instructorRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM instructors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete instructor: %w", err)
	}
	return expectOne(result, domain.NotFound("instructor", id))
}

// ---- facilities ----

type facilityRepo repos

var facilitySelect = `
	SELECT f.id, f.name, f.email, f.mobile, f.city, f.street, f.description,
		f.profile_image_id, f.map_image_id, f.created_at, f.updated_at, ` + ratingColumns + `
	FROM facilities f` + fmt.Sprintf(ratingJoin, domain.TargetFacility, "f")

func scanFacility(row scanner) (*domain.SportFacility, error) {
	var f domain.SportFacility
	var profile, mapImage sql.NullString
	err := row.Scan(&f.ID, &f.Name, &f.Email, &f.Mobile, &f.City, &f.Street, &f.Description,
		&profile, &mapImage, &f.CreatedAt, &f.UpdatedAt, &f.Rating.Value, &f.Rating.Counter, &f.Rating.Version)
	if err != nil {
		return nil, err
	}
	f.ProfileImageID = stringPtr(profile)
	f.MapImageID = stringPtr(mapImage)
	return &f, nil
}

// withInstructors fills InstructorIDs. Callers must have closed any open
// result set first.
func (r facilityRepo) withInstructors(ctx context.Context, f *domain.SportFacility) error {
	ids, err := instructorRepo(r).ListIDsByFacility(ctx, f.ID)
	if err != nil {
		return err
	}
	f.InstructorIDs = ids
	return nil
}

func (r facilityRepo) getWhere(ctx context.Context, where string, arg any) (*domain.SportFacility, error) {
	f, err := scanFacility(r.q.QueryRowContext(ctx, facilitySelect+` WHERE `+where, arg))
	if err != nil {
		return nil, err
	}
	if err := r.withInstructors(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (r facilityRepo) Get(ctx context.Context, id int64) (*domain.SportFacility, error) {
	f, err := r.getWhere(ctx, `f.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("sport facility", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query facility: %w", err)
	}
	return f, nil
}

func (r facilityRepo) GetByName(ctx context.Context, name string) (*domain.SportFacility, error) {
	f, err := r.getWhere(ctx, `f.name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.Error{Kind: domain.KindEntityNotFound, Message: fmt.Sprintf("sport facility %q not found", name)}
	}
	if err != nil {
		return nil, fmt.Errorf("query facility by name: %w", err)
	}
	return f, nil
}

func (r facilityRepo) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.SportFacility], error) {
	filter = filter.Normalize()
	page := domain.Page[domain.SportFacility]{Items: []domain.SportFacility{}, Page: filter.Page, Limit: filter.Limit}

	where, args := ` WHERE 1 = 1`, []any{}
	if filter.Name != "" {
		where += ` AND LOWER(f.name) LIKE ? ESCAPE '!'`
		args = append(args, likePattern(filter.Name))
	}
	if filter.City != "" {
		where += ` AND LOWER(f.city) = ?`
		args = append(args, strings.ToLower(filter.City))
	}

	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities f`+where, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count facilities: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, facilitySelect+where+` ORDER BY f.id LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return page, fmt.Errorf("query facilities: %w", err)
	}
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			rows.Close()
			return page, fmt.Errorf("scan facility: %w", err)
		}
		page.Items = append(page.Items, *f)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return page, err
	}

	for i := range page.Items {
		if err := r.withInstructors(ctx, &page.Items[i]); err != nil {
			return page, err
		}
	}
	return page, nil
}

func (r facilityRepo) Create(ctx context.Context, f *domain.SportFacility) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO facilities (name, email, mobile, city, street, description,
			profile_image_id, map_image_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Email, f.Mobile, f.City, f.Street, f.Description,
		nullString(f.ProfileImageID), nullString(f.MapImageID), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists(fmt.Sprintf("sport facility %q already exists", f.Name))
		}
		return fmt.Errorf("insert facility: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("facility id: %w", err)
	}
	f.ID, f.CreatedAt, f.UpdatedAt = id, now, now
	return nil
}

func (r facilityRepo) Update(ctx context.Context, f *domain.SportFacility) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		UPDATE facilities
		SET name = ?, email = ?, mobile = ?, city = ?, street = ?, description = ?,
			profile_image_id = ?, map_image_id = ?, updated_at = ?
		WHERE id = ?`,
		f.Name, f.Email, f.Mobile, f.City, f.Street, f.Description,
		nullString(f.ProfileImageID), nullString(f.MapImageID), now, f.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists(fmt.Sprintf("sport facility %q already exists", f.Name))
		}
		return fmt.Errorf("update facility: %w", err)
	}
	if err := expectOne(result, domain.NotFound("sport facility", f.ID)); err != nil {
		return err
	}
	f.UpdatedAt = now
	return nil
}

func (r facilityRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete facility: %w", err)
	}
	return expectOne(result, domain.NotFound("sport facility", id))
}

// ---- shop items ----

type shopItemRepo repos

var shopItemSelect = `
	SELECT s.id, s.name, s.description, s.category, s.sport_type, s.price, s.stock,
		s.image_id, s.created_at, s.updated_at, ` + ratingColumns + `
	FROM shop_items s` + fmt.Sprintf(ratingJoin, domain.TargetShopItem, "s")

func scanShopItem(row scanner) (*domain.ShopItem, error) {
	var s domain.ShopItem
	var image sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.SportType, &s.Price, &s.Stock,
		&image, &s.CreatedAt, &s.UpdatedAt, &s.Rating.Value, &s.Rating.Counter, &s.Rating.Version)
	if err != nil {
		return nil, err
	}
	s.ImageID = stringPtr(image)
	return &s, nil
}

func (r shopItemRepo) Get(ctx context.Context, id int64) (*domain.ShopItem, error) {
	s, err := scanShopItem(r.q.QueryRowContext(ctx, shopItemSelect+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("shop item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query shop item: %w", err)
	}
	return s, nil
}

func (r shopItemRepo) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.ShopItem], error) {
	filter = filter.Normalize()
	page := domain.Page[domain.ShopItem]{Items: []domain.ShopItem{}, Page: filter.Page, Limit: filter.Limit}

	where, args := ` WHERE 1 = 1`, []any{}
	if filter.Name != "" {
		where += ` AND LOWER(s.name) LIKE ? ESCAPE '!'`
		args = append(args, likePattern(filter.Name))
	}
	if filter.Category != "" {
		where += ` AND LOWER(s.category) LIKE ? ESCAPE '!'`
		args = append(args, likePattern(filter.Category))
	}
	if filter.SportType != "" {
		where += ` AND LOWER(s.sport_type) LIKE ? ESCAPE '!'`
		args = append(args, likePattern(filter.SportType))
	}

	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM shop_items s`+where, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count shop items: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, shopItemSelect+where+` ORDER BY s.id LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return page, fmt.Errorf("query shop items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanShopItem(rows)
		if err != nil {
			return page, fmt.Errorf("scan shop item: %w", err)
		}
		page.Items = append(page.Items, *s)
	}
	return page, rows.Err()
}

func (r shopItemRepo) Create(ctx context.Context, s *domain.ShopItem) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO shop_items (name, description, category, sport_type, price, stock, image_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Description, s.Category, s.SportType, s.Price, s.Stock, nullString(s.ImageID), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert shop item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("shop item id: %w", err)
	}
	s.ID, s.CreatedAt, s.UpdatedAt = id, now, now
	return nil
}

func (r shopItemRepo) Update(ctx context.Context, s *domain.ShopItem) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		UPDATE shop_items
		SET name = ?, description = ?, category = ?, sport_type = ?, price = ?, stock = ?, image_id = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.Description, s.Category, s.SportType, s.Price, s.Stock, nullString(s.ImageID), now, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update shop item: %w", err)
	}
	if err := expectOne(result, domain.NotFound("shop item", s.ID)); err != nil {
		return err
	}
	s.UpdatedAt = now
	return nil
}

func (r shopItemRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM shop_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shop item: %w", err)
	}
	return expectOne(result, domain.NotFound("shop item", id))
}
