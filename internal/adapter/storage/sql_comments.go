package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

type commentRepo repos

func (r commentRepo) Exists(ctx context.Context, commenterID int64, target domain.CommentTarget) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM comments
		WHERE commenter_id = ? AND target_kind = ? AND target_id = ?`,
		commenterID, string(target.Kind), target.ID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query comment: %w", err)
	}
	return n > 0, nil
}

func (r commentRepo) Create(ctx context.Context, c *domain.Comment) error {
	now := r.now()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO comments (commenter_id, target_kind, target_id, body, rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.CommenterID, string(c.Target.Kind), c.Target.ID, c.Text, c.Rate, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.Error{
				Kind:    domain.KindDuplicateComment,
				Message: fmt.Sprintf("user %d already commented on %s", c.CommenterID, c.Target),
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("comment id: %w", err)
	}
	c.ID, c.Created = id, now
	return nil
}

func (r commentRepo) ListByTarget(ctx context.Context, target domain.CommentTarget) ([]domain.Comment, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, commenter_id, body, rate, created_at FROM comments
		WHERE target_kind = ? AND target_id = ?
		ORDER BY id DESC`,
		string(target.Kind), target.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c := domain.Comment{Target: target}
		if err := rows.Scan(&c.ID, &c.CommenterID, &c.Text, &c.Rate, &c.Created); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r commentRepo) DeleteByTarget(ctx context.Context, target domain.CommentTarget) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM comments WHERE target_kind = ? AND target_id = ?`,
		string(target.Kind), target.ID)
	if err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	return nil
}

type ratingRepo repos

func (r ratingRepo) Get(ctx context.Context, target domain.CommentTarget) (domain.Rating, error) {
	var rating domain.Rating
	err := r.q.QueryRowContext(ctx, `
		SELECT mean_value, comment_count, version FROM ratings
		WHERE target_kind = ? AND target_id = ?`,
		string(target.Kind), target.ID,
	).Scan(&rating.Value, &rating.Counter, &rating.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return rating, &domain.Error{Kind: domain.KindEntityNotFound, Message: fmt.Sprintf("rating of %s not found", target)}
	}
	if err != nil {
		return rating, fmt.Errorf("query rating: %w", err)
	}
	return rating, nil
}

func (r ratingRepo) Create(ctx context.Context, target domain.CommentTarget) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO ratings (target_kind, target_id, mean_value, comment_count, version)
		VALUES (?, ?, 0, 0, 0)`,
		string(target.Kind), target.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists(fmt.Sprintf("rating of %s already exists", target))
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (r ratingRepo) Update(ctx context.Context, target domain.CommentTarget, rating domain.Rating) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE ratings
		SET mean_value = ?, comment_count = ?, version = version + 1
		WHERE target_kind = ? AND target_id = ? AND version = ?`,
		rating.Value, rating.Counter, string(target.Kind), target.ID, rating.Version,
	)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return expectOne(result, domain.ErrOptimisticLock)
}

func (r ratingRepo) Delete(ctx context.Context, target domain.CommentTarget) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM ratings WHERE target_kind = ? AND target_id = ?`,
		string(target.Kind), target.ID)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	return nil
}
