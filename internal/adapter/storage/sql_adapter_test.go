package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

var errRollback = errors.New("rollback")

func newSQLiteAdapter(t *testing.T) *SQLAdapter {
	t.Helper()
	ctx := context.Background()

	db, err := OpenDB(ctx, DialectSQLite, ":memory:", PoolOptions{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(ctx, db, DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLAdapter(db, DialectSQLite)
}

func TestSQLAdapter_SQLite(t *testing.T) {
	runRepositoryContract(t, newSQLiteAdapter(t))
}

func TestOpenDB_UnsupportedDialect(t *testing.T) {
	if _, err := OpenDB(context.Background(), Dialect("oracle"), "", PoolOptions{}); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newSQLiteAdapter(t)
	if err := Migrate(context.Background(), s.db, DialectSQLite); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// runRepositoryContract exercises every repository against s. Names are
// suffixed so the contract also runs against a shared MySQL database.
func runRepositoryContract(t *testing.T, s *SQLAdapter) {
	suffix := uuid.NewString()[:8]

	t.Run("users", func(t *testing.T) { testUsers(t, s, suffix) })
	t.Run("cart lines", func(t *testing.T) { testCartLines(t, s, suffix) })
	t.Run("ratings", func(t *testing.T) { testRatings(t, s, suffix) })
	t.Run("comments", func(t *testing.T) { testComments(t, s, suffix) })
	t.Run("facility instructors", func(t *testing.T) { testFacilityInstructors(t, s, suffix) })
	t.Run("shop item filters", func(t *testing.T) { testShopItemFilters(t, s, suffix) })
	t.Run("literal wildcards", func(t *testing.T) { testLiteralWildcards(t, s, suffix) })
	t.Run("tx rollback", func(t *testing.T) { testRollback(t, s, suffix) })
}

func mustUser(t *testing.T, s *SQLAdapter, email string) *domain.User {
	t.Helper()
	u := &domain.User{FirstName: "Ana", LastName: "Kovac", Email: email, PasswordHash: "hash", Role: domain.RoleUser}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustShopItem(t *testing.T, s *SQLAdapter, name string) *domain.ShopItem {
	t.Helper()
	item := &domain.ShopItem{Name: name, Description: "d", Category: "balls", SportType: "football", Price: 20, Stock: 5}
	if err := s.ShopItems().Create(context.Background(), item); err != nil {
		t.Fatalf("create shop item: %v", err)
	}
	return item
}

func testUsers(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	u := mustUser(t, s, "ana-"+suffix+"@example.com")

	got, err := s.Users().Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(u, got); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}

	byEmail, err := s.Users().GetByEmail(ctx, u.Email)
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("get by email = %v, %v", byEmail, err)
	}

	dup := &domain.User{FirstName: "B", LastName: "C", Email: u.Email, PasswordHash: "x", Role: domain.RoleUser}
	if err := s.Users().Create(ctx, dup); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate email: expected ErrAlreadyExists, got %v", err)
	}

	u.FirstName = "Anna"
	if err := s.Users().Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	page, err := s.Users().List(ctx, domain.ListFilter{Name: "anna", Limit: domain.MaxPageLimit})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, it := range page.Items {
		found = found || it.ID == u.ID
	}
	if !found {
		t.Errorf("updated user missing from name filtered list")
	}

	if err := s.Users().Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Users().Get(ctx, u.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound after delete, got %v", err)
	}
	if err := s.Users().Delete(ctx, u.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("second delete: expected ErrEntityNotFound, got %v", err)
	}
}

func testCartLines(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	u := mustUser(t, s, "cart-"+suffix+"@example.com")
	item := mustShopItem(t, s, "ball-"+suffix)

	cart, err := s.Carts().Create(ctx, u.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := s.Carts().Create(ctx, u.ID); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("second cart: expected ErrAlreadyExists, got %v", err)
	}

	line := &domain.TransactionItem{CartID: cart.ID, ShopItemID: item.ID, Quantity: 2}
	if err := s.Carts().CreateItem(ctx, line); err != nil {
		t.Fatalf("create line: %v", err)
	}
	clash := &domain.TransactionItem{CartID: cart.ID, ShopItemID: item.ID, Quantity: 1}
	if err := s.Carts().CreateItem(ctx, clash); !errors.Is(err, domain.ErrOptimisticLock) {
		t.Errorf("duplicate line: expected ErrOptimisticLock, got %v", err)
	}

	stale := *line
	line.Quantity = 3
	if err := s.Carts().UpdateItemQuantity(ctx, line); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if line.Version != 1 {
		t.Errorf("expected version 1, got %d", line.Version)
	}

	stale.Quantity = 10
	if err := s.Carts().UpdateItemQuantity(ctx, &stale); !errors.Is(err, domain.ErrOptimisticLock) {
		t.Errorf("stale update: expected ErrOptimisticLock, got %v", err)
	}
	if err := s.Carts().DeleteItem(ctx, &stale); !errors.Is(err, domain.ErrOptimisticLock) {
		t.Errorf("stale delete: expected ErrOptimisticLock, got %v", err)
	}

	got, err := s.Carts().GetByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 3 {
		t.Fatalf("expected one line of quantity 3, got %+v", got.Items)
	}

	found, err := s.Carts().FindItem(ctx, cart.ID, item.ID)
	if err != nil || found.ID != line.ID {
		t.Fatalf("find line = %v, %v", found, err)
	}

	if err := s.Carts().DeleteItemsByShopItem(ctx, item.ID); err != nil {
		t.Fatalf("delete lines of shop item: %v", err)
	}
	if _, err := s.Carts().GetItem(ctx, line.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected line gone, got %v", err)
	}

	if err := s.Carts().DeleteByUser(ctx, u.ID); err != nil {
		t.Fatalf("delete cart: %v", err)
	}
	if _, err := s.Carts().GetByUser(ctx, u.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected cart gone, got %v", err)
	}
}

func testRatings(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	item := mustShopItem(t, s, "racket-"+suffix)
	target := domain.CommentTarget{Kind: domain.TargetShopItem, ID: item.ID}

	if _, err := s.Ratings().Get(ctx, target); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected no rating yet, got %v", err)
	}
	if err := s.Ratings().Create(ctx, target); err != nil {
		t.Fatalf("create rating: %v", err)
	}
	if err := s.Ratings().Create(ctx, target); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("second rating: expected ErrAlreadyExists, got %v", err)
	}

	rating, err := s.Ratings().Get(ctx, target)
	if err != nil {
		t.Fatalf("get rating: %v", err)
	}
	if diff := cmp.Diff(domain.Rating{}, rating); diff != "" {
		t.Errorf("fresh rating mismatch (-want +got):\n%s", diff)
	}

	if err := s.Ratings().Update(ctx, target, rating.With(4)); err != nil {
		t.Fatalf("update rating: %v", err)
	}
	if err := s.Ratings().Update(ctx, target, rating.With(1)); !errors.Is(err, domain.ErrOptimisticLock) {
		t.Errorf("stale rating update: expected ErrOptimisticLock, got %v", err)
	}

	got, err := s.ShopItems().Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get shop item: %v", err)
	}
	want := domain.Rating{Value: 4, Counter: 1, Version: 1}
	if diff := cmp.Diff(want, got.Rating); diff != "" {
		t.Errorf("joined rating mismatch (-want +got):\n%s", diff)
	}

	if err := s.Ratings().Delete(ctx, target); err != nil {
		t.Fatalf("delete rating: %v", err)
	}
	got, err = s.ShopItems().Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get shop item: %v", err)
	}
	if got.Rating != (domain.Rating{}) {
		t.Errorf("expected zero rating after delete, got %+v", got.Rating)
	}
}

func testComments(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	first := mustUser(t, s, "c1-"+suffix+"@example.com")
	second := mustUser(t, s, "c2-"+suffix+"@example.com")
	item := mustShopItem(t, s, "net-"+suffix)
	target := domain.CommentTarget{Kind: domain.TargetShopItem, ID: item.ID}

	for _, u := range []*domain.User{first, second} {
		c := &domain.Comment{CommenterID: u.ID, Target: target, Text: "good", Rate: 4}
		if err := s.Comments().Create(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	dup := &domain.Comment{CommenterID: first.ID, Target: target, Text: "again", Rate: 1}
	if err := s.Comments().Create(ctx, dup); !errors.Is(err, domain.ErrDuplicateComment) {
		t.Errorf("expected ErrDuplicateComment, got %v", err)
	}

	exists, err := s.Comments().Exists(ctx, second.ID, target)
	if err != nil || !exists {
		t.Errorf("exists = %v, %v", exists, err)
	}
	other := domain.CommentTarget{Kind: domain.TargetFacility, ID: item.ID}
	if exists, _ := s.Comments().Exists(ctx, second.ID, other); exists {
		t.Error("comment leaked to a different target kind")
	}

	comments, err := s.Comments().ListByTarget(ctx, target)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 2 || comments[0].CommenterID != second.ID {
		t.Fatalf("expected newest first, got %+v", comments)
	}

	if err := s.Comments().DeleteByTarget(ctx, target); err != nil {
		t.Fatalf("delete comments: %v", err)
	}
	comments, _ = s.Comments().ListByTarget(ctx, target)
	if len(comments) != 0 {
		t.Errorf("expected no comments, got %d", len(comments))
	}
}

func testFacilityInstructors(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	f := &domain.SportFacility{Name: "Arena " + suffix, Email: "arena@example.com", Mobile: "1", City: "Split", Street: "Obala 1", Description: "d"}
	if err := s.Facilities().Create(ctx, f); err != nil {
		t.Fatalf("create facility: %v", err)
	}
	clash := *f
	if err := s.Facilities().Create(ctx, &clash); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate name: expected ErrAlreadyExists, got %v", err)
	}

	var ids []int64
	for i, email := range []string{"i1-" + suffix + "@example.com", "i2-" + suffix + "@example.com"} {
		u := mustUser(t, s, email)
		in := &domain.Instructor{UserID: u.ID, FacilityID: &f.ID, Bio: "coach", HourlyPrice: float64(10 * (i + 1))}
		if err := s.Instructors().Create(ctx, in); err != nil {
			t.Fatalf("create instructor: %v", err)
		}
		ids = append(ids, in.ID)
	}

	got, err := s.Facilities().Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("get facility: %v", err)
	}
	if diff := cmp.Diff(ids, got.InstructorIDs); diff != "" {
		t.Errorf("instructor ids mismatch (-want +got):\n%s", diff)
	}

	page, err := s.Facilities().List(ctx, domain.ListFilter{Name: "arena " + suffix, City: "SPLIT"})
	if err != nil {
		t.Fatalf("list facilities: %v", err)
	}
	if page.Total != 1 || len(page.Items[0].InstructorIDs) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	instructors, err := s.Instructors().List(ctx, domain.ListFilter{City: "split", Limit: 100})
	if err != nil {
		t.Fatalf("list instructors: %v", err)
	}
	if instructors.Total < 2 {
		t.Errorf("expected the city filter to match both instructors, got %d", instructors.Total)
	}

	token := "avail" + suffix
	var attachedID int64
	for i, facility := range []*int64{&f.ID, nil} {
		u := &domain.User{FirstName: "Iva", LastName: token, Email: fmt.Sprintf("%s-%d@example.com", token, i), PasswordHash: "hash", Role: domain.RoleInstructor}
		if err := s.Users().Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		in := &domain.Instructor{UserID: u.ID, FacilityID: facility, Bio: "coach"}
		if err := s.Instructors().Create(ctx, in); err != nil {
			t.Fatalf("create instructor: %v", err)
		}
		if facility != nil {
			attachedID = in.ID
		}
	}
	available, err := s.Instructors().List(ctx, domain.ListFilter{Name: token, Available: true})
	if err != nil {
		t.Fatalf("list available instructors: %v", err)
	}
	if available.Total != 1 || available.Items[0].ID != attachedID {
		t.Errorf("expected only instructor %d, got %+v", attachedID, available.Items)
	}
	all, err := s.Instructors().List(ctx, domain.ListFilter{Name: token})
	if err != nil {
		t.Fatalf("list instructors: %v", err)
	}
	if all.Total != 2 {
		t.Errorf("expected 2 instructors without the available filter, got %d", all.Total)
	}

	if err := s.Instructors().DetachFacility(ctx, f.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	in, err := s.Instructors().Get(ctx, ids[0])
	if err != nil {
		t.Fatalf("get instructor: %v", err)
	}
	if in.FacilityID != nil {
		t.Errorf("expected no facility, got %d", *in.FacilityID)
	}

	if err := s.Facilities().Delete(ctx, f.ID); err != nil {
		t.Fatalf("delete facility: %v", err)
	}
	if _, err := s.Facilities().GetByName(ctx, f.Name); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func testShopItemFilters(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	// other subtests create shop items named after suffix too
	token := "filt" + suffix
	mustShopItem(t, s, "Boot "+token)
	tennis := &domain.ShopItem{Name: "Racket " + token, Description: "d", Category: "rackets", SportType: "tennis", Price: 90, Stock: 1}
	if err := s.ShopItems().Create(ctx, tennis); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name   string
		filter domain.ListFilter
		want   int64
	}{
		{"name", domain.ListFilter{Name: token}, 2},
		{"name and sport", domain.ListFilter{Name: token, SportType: "TENNIS"}, 1},
		{"name and category", domain.ListFilter{Name: token, Category: "ball"}, 1},
		{"no match", domain.ListFilter{Name: token, SportType: "golf"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.ShopItems().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if page.Total != tt.want || int64(len(page.Items)) != tt.want {
				t.Errorf("expected %d items, got total %d with %d items", tt.want, page.Total, len(page.Items))
			}
		})
	}

	page, err := s.ShopItems().List(ctx, domain.ListFilter{Name: token, Limit: 1, Page: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 || page.Items[0].ID != tennis.ID {
		t.Errorf("unexpected second page %+v", page)
	}
}

func testLiteralWildcards(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	token := "wild" + suffix
	for _, name := range []string{"a_b " + token, "axb " + token, "50% " + token, "500 " + token} {
		mustShopItem(t, s, name)
	}

	tests := []struct {
		name string
		want int64
	}{
		{"a_b " + token, 1},
		{"50% " + token, 1},
		{"_" + token, 0},
		{"%" + token, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.ShopItems().List(ctx, domain.ListFilter{Name: tt.name})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if page.Total != tt.want {
				t.Errorf("name %q: expected %d items, got %d", tt.name, tt.want, page.Total)
			}
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"Ball": "%ball%",
		"50%":  "%50!%%",
		"a_b":  "%a!_b%",
		"wow!": "%wow!!%",
		"":     "%%",
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func testRollback(t *testing.T, s *SQLAdapter, suffix string) {
	ctx := context.Background()
	name := "ghost-" + suffix

	err := s.WithinTx(ctx, func(r port.Repositories) error {
		item := &domain.ShopItem{Name: name, Description: "d", Category: "c", SportType: "s", Price: 1, Stock: 1}
		if err := r.ShopItems().Create(ctx, item); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("expected errRollback, got %v", err)
	}

	page, err := s.ShopItems().List(ctx, domain.ListFilter{Name: name})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("rolled back insert is visible: %+v", page.Items)
	}

	err = s.WithinTx(ctx, func(r port.Repositories) error {
		return r.ShopItems().Create(ctx, &domain.ShopItem{Name: name, Description: "d", Category: "c", SportType: "s"})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if page, _ := s.ShopItems().List(ctx, domain.ListFilter{Name: name}); page.Total != 1 {
		t.Errorf("committed insert not visible, total %d", page.Total)
	}
}
