package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenDB opens and pings a database for dialect. SQLite is limited to one
// connection so an in-memory database is shared by every caller.
func OpenDB(ctx context.Context, dialect Dialect, dsn string, opts PoolOptions) (*sql.DB, error) {
	switch dialect {
	case DialectMySQL:
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	case DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxIdleConns)
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repos struct {
	q   queryer
	now func() time.Time
}

func (r repos) Users() port.UserRepository             { return userRepo(r) }
func (r repos) Instructors() port.InstructorRepository { return instructorRepo(r) }
func (r repos) Facilities() port.FacilityRepository    { return facilityRepo(r) }
func (r repos) ShopItems() port.ShopItemRepository     { return shopItemRepo(r) }
func (r repos) Carts() port.CartRepository             { return cartRepo(r) }
func (r repos) Comments() port.CommentRepository       { return commentRepo(r) }
func (r repos) Ratings() port.RatingRepository         { return ratingRepo(r) }

// SQLAdapter is the entity store on database/sql. Queries are written to run
// unchanged on MySQL and SQLite.
type SQLAdapter struct {
	repos
	db      *sql.DB
	dialect Dialect
}

func NewSQLAdapter(db *sql.DB, dialect Dialect) *SQLAdapter {
	now := func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	return &SQLAdapter{
		repos:   repos{q: db, now: now},
		db:      db,
		dialect: dialect,
	}
}

func (s *SQLAdapter) WithinTx(ctx context.Context, fn func(r port.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(repos{q: tx, now: s.now}); err != nil {
		return lockConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return lockConflict(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// lockConflict reports a deadlock as ErrOptimisticLock so the caller retries
// it like any other lost race.
func lockConflict(err error) error {
	if isDeadlock(err) {
		return fmt.Errorf("%w: %w", domain.ErrOptimisticLock, err)
	}
	return err
}

func (s *SQLAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLAdapter) Dialect() Dialect {
	return s.dialect
}

// likeEscaper escapes LIKE wildcards for the ESCAPE '!' clause, which works
// unchanged on MySQL and SQLite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches s as a literal substring.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// expectOne maps a write that touched no row to notFound.
func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
