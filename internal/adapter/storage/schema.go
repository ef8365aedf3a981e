package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{id}},
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS instructors (
		id {{id}},
		user_id BIGINT NOT NULL,
		facility_id BIGINT NULL,
		bio TEXT NOT NULL,
		hourly_price DOUBLE NOT NULL,
		profile_image_id VARCHAR(255) NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS facilities (
		id {{id}},
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		mobile VARCHAR(64) NOT NULL,
		city VARCHAR(128) NOT NULL,
		street VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		profile_image_id VARCHAR(255) NULL,
		map_image_id VARCHAR(255) NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS shop_items (
		id {{id}},
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(128) NOT NULL,
		sport_type VARCHAR(128) NOT NULL,
		price DOUBLE NOT NULL,
		stock INT NOT NULL,
		image_id VARCHAR(255) NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id {{id}},
		user_id BIGINT NOT NULL,
		UNIQUE (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS transaction_items (
		id {{id}},
		cart_id BIGINT NOT NULL,
		shop_item_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		version INT NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (cart_id, shop_item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id {{id}},
		commenter_id BIGINT NOT NULL,
		target_kind VARCHAR(32) NOT NULL,
		target_id BIGINT NOT NULL,
		body TEXT NOT NULL,
		rate INT NOT NULL,
		created_at {{ts}} NOT NULL,
		UNIQUE (commenter_id, target_kind, target_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		target_kind VARCHAR(32) NOT NULL,
		target_id BIGINT NOT NULL,
		mean_value DOUBLE NOT NULL DEFAULT 0,
		comment_count INT NOT NULL DEFAULT 0,
		version INT NOT NULL DEFAULT 0,
		PRIMARY KEY (target_kind, target_id)
	)`,
}

func schemaFor(dialect Dialect) []string {
	id, ts := "BIGINT AUTO_INCREMENT PRIMARY KEY", "DATETIME(6)"
	if dialect == DialectSQLite {
		id, ts = "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME"
	}

	r := strings.NewReplacer("{{id}}", id, "{{ts}}", ts)
	stmts := make([]string, len(schema))
	for i, s := range schema {
		stmts[i] = r.Replace(s)
	}
	return stmts
}

// Migrate creates the tables that do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range schemaFor(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
