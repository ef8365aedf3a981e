package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

type userRepo repos

const userColumns = `id, first_name, last_name, email, password_hash, role, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r userRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.Error{Kind: domain.KindEntityNotFound, Message: "user not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return u, nil
}

func (r userRepo) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.User], error) {
	filter = filter.Normalize()
	page := domain.Page[domain.User]{Items: []domain.User{}, Page: filter.Page, Limit: filter.Limit}

	where, args := "1 = 1", []any{}
	if filter.Name != "" {
		where += ` AND (LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!')`
		args = append(args, likePattern(filter.Name), likePattern(filter.Name))
	}

	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE `+where+`
		ORDER BY id LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset())...,
	)
	if err != nil {
		return page, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return page, fmt.Errorf("scan user: %w", err)
		}
		page.Items = append(page.Items, *u)
	}
	return page, rows.Err()
}

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.Role), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists("email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	return nil
}

func (r userRepo) Update(ctx context.Context, u *domain.User) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET first_name = ?, last_name = ?, email = ?, password_hash = ?, role = ?, updated_at = ?
		WHERE id = ?`,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.Role), now, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists("email already registered")
		}
		return fmt.Errorf("update user: %w", err)
	}
	if err := expectOne(result, domain.NotFound("user", u.ID)); err != nil {
		return err
	}
	u.UpdatedAt = now
	return nil
}

func (r userRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(result, domain.NotFound("user", id))
}
