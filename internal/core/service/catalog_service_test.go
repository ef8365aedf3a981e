package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

func TestUserService_CreateProvisionsCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.createUser(t, "ana@example.com")
	if u.Cart == nil || u.Cart.UserID != u.ID {
		t.Fatalf("expected a provisioned cart, got %+v", u.Cart)
	}
	if u.Role != domain.RoleUser {
		t.Errorf("expected default role %s, got %s", domain.RoleUser, u.Role)
	}
	if u.PasswordHash == "secret-password" {
		t.Error("expected the password to be hashed")
	}

	_, err := env.users.Create(ctx, CreateUserRequest{FirstName: "A", LastName: "B", Email: "ana@example.com", Password: "another-secret"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got: %v", err)
	}

	_, err = env.users.Create(ctx, CreateUserRequest{FirstName: "A", LastName: "B", Email: "not-an-email", Password: "another-secret"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestUserService_GetServesCachedView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "ana@example.com")

	first, err := env.users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := env.users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached view differs (-first +second):\n%s", diff)
	}
	if stats := env.cache.Stats(); stats.Hits != 1 {
		t.Errorf("expected 1 cache hit, got %+v", stats)
	}

	_, err = env.users.Get(ctx, 999)
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got: %v", err)
	}
}

func TestUserService_ListFilterAndInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ana@example.com")

	page, err := env.users.List(ctx, domain.ListFilter{Name: "kov"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected 1 user, got %d", page.Total)
	}

	env.createUser(t, "ivo@example.com")

	page, err = env.users.List(ctx, domain.ListFilter{Name: "kov"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Errorf("expected the create to invalidate the cached list, got total %d", page.Total)
	}

	page, err = env.users.List(ctx, domain.ListFilter{Name: "nobody"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Errorf("expected no match, got %+v", page)
	}
}

func TestUserService_UpdateAndChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "ana@example.com")
	env.createUser(t, "ivo@example.com")

	updated, err := env.users.Update(ctx, u.ID, UpdateUserRequest{FirstName: "Ana", LastName: "Horvat", Email: "ana.h@example.com"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LastName != "Horvat" || updated.Email != "ana.h@example.com" {
		t.Errorf("unexpected update result %+v", updated)
	}

	_, err = env.users.Update(ctx, u.ID, UpdateUserRequest{FirstName: "Ana", LastName: "Horvat", Email: "ivo@example.com"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for a taken email, got: %v", err)
	}

	err = env.users.ChangePassword(ctx, u.ID, ChangePasswordRequest{OldPassword: "wrong-password", NewPassword: "brand-new-pass"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for a wrong password, got: %v", err)
	}
	if err := env.users.ChangePassword(ctx, u.ID, ChangePasswordRequest{OldPassword: "secret-password", NewPassword: "brand-new-pass"}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if err := env.users.Delete(ctx, u.ID, "secret-password"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected the old password rejected, got: %v", err)
	}
	if err := env.users.Delete(ctx, u.ID, "brand-new-pass"); err != nil {
		t.Errorf("delete with the new password: %v", err)
	}
}

func TestUserService_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coach := env.createUser(t, "coach@example.com")
	fan := env.createUser(t, "fan@example.com")
	f := env.createFacility(t, "Centar")
	ball := env.createShopItem(t, "ball")
	in := env.createInstructor(t, coach.ID)

	if _, err := env.facilities.AddInstructor(ctx, f.ID, in.ID); err != nil {
		t.Fatalf("add instructor: %v", err)
	}
	if _, err := env.carts.AddItem(ctx, coach.ID, ball.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemTarget := domain.CommentTarget{Kind: domain.TargetShopItem, ID: ball.ID}
	if _, err := env.ratings.AddComment(ctx, itemTarget, CommentRequest{CommenterID: coach.ID, Rate: 4}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := env.ratings.AddComment(ctx, domain.CommentTarget{Kind: domain.TargetInstructor, ID: in.ID}, CommentRequest{CommenterID: fan.ID, Rate: 5}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := env.facilities.Get(ctx, f.ID); err != nil {
		t.Fatalf("warm facility: %v", err)
	}

	if err := env.users.Delete(ctx, coach.ID, "secret-password"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := env.users.Get(ctx, coach.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected user gone, got: %v", err)
	}
	if _, err := env.instructors.Get(ctx, in.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected instructor gone, got: %v", err)
	}
	if _, err := env.db.Carts().GetByUser(ctx, coach.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected cart gone, got: %v", err)
	}
	got, err := env.facilities.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("get facility: %v", err)
	}
	if len(got.InstructorIDs) != 0 {
		t.Errorf("expected facility without instructors, got %v", got.InstructorIDs)
	}

	// comments written by the deleted user keep counting
	r, err := env.ratings.Rating(ctx, itemTarget)
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if r.Counter != 1 {
		t.Errorf("expected rating counter 1, got %d", r.Counter)
	}
}

func TestInstructorService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "coach@example.com")
	in := env.createInstructor(t, u.ID)

	user, err := env.users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Role != domain.RoleInstructor {
		t.Errorf("expected role %s, got %s", domain.RoleInstructor, user.Role)
	}

	_, err = env.instructors.Create(ctx, InstructorRequest{UserID: u.ID})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got: %v", err)
	}
	_, err = env.instructors.Create(ctx, InstructorRequest{UserID: 999})
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got: %v", err)
	}

	byUser, err := env.instructors.GetByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by user: %v", err)
	}
	if byUser.ID != in.ID {
		t.Errorf("expected instructor %d, got %d", in.ID, byUser.ID)
	}

	updated, err := env.instructors.Update(ctx, in.ID, InstructorRequest{UserID: u.ID, Bio: "padel too", HourlyPrice: 45})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Bio != "padel too" || updated.HourlyPrice != 45 {
		t.Errorf("unexpected update result %+v", updated)
	}

	withImage, err := env.instructors.AttachImage(ctx, in.ID, ImageRequest{ImageID: "img-1"})
	if err != nil {
		t.Fatalf("attach image: %v", err)
	}
	if withImage.ProfileImageID == nil || *withImage.ProfileImageID != "img-1" {
		t.Errorf("expected image img-1, got %v", withImage.ProfileImageID)
	}

	page, err := env.instructors.List(ctx, domain.ListFilter{Name: "ana"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("expected 1 instructor named ana, got %d", page.Total)
	}

	if err := env.instructors.Delete(ctx, in.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	user, err = env.users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("expected role reset to %s, got %s", domain.RoleUser, user.Role)
	}
	if _, err := env.instructors.GetByUser(ctx, u.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got: %v", err)
	}
}

func TestFacilityService_AddInstructorEvictsBothRegions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.createFacility(t, "Centar")
	in := env.createInstructor(t, env.createUser(t, "coach@example.com").ID)

	if _, err := env.facilities.Get(ctx, f.ID); err != nil {
		t.Fatalf("warm facility: %v", err)
	}
	if _, err := env.instructors.Get(ctx, in.ID); err != nil {
		t.Fatalf("warm instructor: %v", err)
	}

	view, err := env.facilities.AddInstructor(ctx, f.ID, in.ID)
	if err != nil {
		t.Fatalf("add instructor: %v", err)
	}
	if diff := cmp.Diff([]int64{in.ID}, view.InstructorIDs); diff != "" {
		t.Errorf("instructor ids mismatch (-want +got):\n%s", diff)
	}
	if n := env.store.Len(domain.RegionFacilities); n != 0 {
		t.Errorf("expected facilities evicted, %d entries left", n)
	}
	if n := env.store.Len(domain.RegionInstructors); n != 0 {
		t.Errorf("expected instructors evicted, %d entries left", n)
	}

	got, err := env.instructors.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get instructor: %v", err)
	}
	if got.FacilityID == nil || *got.FacilityID != f.ID {
		t.Errorf("expected facility %d, got %v", f.ID, got.FacilityID)
	}

	_, err = env.facilities.AddInstructor(ctx, f.ID, 999)
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got: %v", err)
	}
}

func TestFacilityService_CreateUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := env.createInstructor(t, env.createUser(t, "coach@example.com").ID)

	f, err := env.facilities.Create(ctx, FacilityRequest{
		Name: "Centar", Email: "desk@example.com", Mobile: "1", City: "Split", Street: "Riva 2",
		InstructorIDs: []int64{in.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if diff := cmp.Diff([]int64{in.ID}, f.InstructorIDs); diff != "" {
		t.Errorf("instructor ids mismatch (-want +got):\n%s", diff)
	}

	_, err = env.facilities.Create(ctx, FacilityRequest{Name: "Centar", Email: "x@example.com", Mobile: "1", City: "Split", Street: "Riva 3"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got: %v", err)
	}

	other := env.createFacility(t, "Jug")
	_, err = env.facilities.Update(ctx, other.ID, FacilityRequest{Name: "Centar", Email: "x@example.com", Mobile: "1", City: "Split", Street: "Riva 3"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists on rename, got: %v", err)
	}

	updated, err := env.facilities.Update(ctx, f.ID, FacilityRequest{Name: "Centar", Email: "desk@example.com", Mobile: "2", City: "Split", Street: "Riva 2"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Mobile != "2" {
		t.Errorf("expected mobile 2, got %q", updated.Mobile)
	}

	page, err := env.facilities.List(ctx, domain.ListFilter{City: "split"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("expected 1 facility in Split, got %d", page.Total)
	}

	if _, err := env.facilities.AttachImage(ctx, f.ID, "banner", ImageRequest{ImageID: "x"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for an unknown image kind, got: %v", err)
	}
	withMap, err := env.facilities.AttachImage(ctx, f.ID, domain.ImageMap, ImageRequest{ImageID: "map-1"})
	if err != nil {
		t.Fatalf("attach image: %v", err)
	}
	if withMap.MapImageID == nil || *withMap.MapImageID != "map-1" || withMap.ProfileImageID != nil {
		t.Errorf("expected only the map image set, got %+v", withMap)
	}

	if err := env.facilities.Delete(ctx, f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.facilities.Get(ctx, f.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got: %v", err)
	}
	got, err := env.instructors.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get instructor: %v", err)
	}
	if got.FacilityID != nil {
		t.Errorf("expected instructor detached, got facility %d", *got.FacilityID)
	}
}

func TestShopItemService_DeleteRemovesCartLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "ana@example.com")
	ball := env.createShopItem(t, "ball")
	net := env.createShopItem(t, "net")

	if _, err := env.carts.AddItem(ctx, u.ID, ball.ID, 2); err != nil {
		t.Fatalf("add ball: %v", err)
	}
	if _, err := env.carts.AddItem(ctx, u.ID, net.ID, 1); err != nil {
		t.Fatalf("add net: %v", err)
	}
	if _, err := env.users.Get(ctx, u.ID); err != nil {
		t.Fatalf("warm user: %v", err)
	}

	if err := env.shopItems.Delete(ctx, ball.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	user, err := env.users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(user.Cart.Items) != 1 || user.Cart.Items[0].ShopItemID != net.ID {
		t.Errorf("expected only the net in the cart view, got %+v", user.Cart.Items)
	}
	if _, err := env.shopItems.Get(ctx, ball.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got: %v", err)
	}
	if err := env.shopItems.Delete(ctx, ball.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound on second delete, got: %v", err)
	}
}

func TestShopItemService_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, req := range []ShopItemRequest{
		{Name: "Pro Racket", Category: "equipment", SportType: "tennis", Price: 120},
		{Name: "Training Racket", Category: "equipment", SportType: "padel", Price: 60},
		{Name: "Shirt", Category: "clothing", SportType: "tennis", Price: 25},
	} {
		if _, err := env.shopItems.Create(ctx, req); err != nil {
			t.Fatalf("create %s: %v", req.Name, err)
		}
	}

	tests := []struct {
		name   string
		filter domain.ListFilter
		want   []string
	}{
		{"by name", domain.ListFilter{Name: "racket"}, []string{"Pro Racket", "Training Racket"}},
		{"by category", domain.ListFilter{Category: "CLOTHING"}, []string{"Shirt"}},
		{"by sport", domain.ListFilter{SportType: "tennis"}, []string{"Pro Racket", "Shirt"}},
		{"paged", domain.ListFilter{Page: 1, Limit: 2}, []string{"Shirt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.shopItems.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			names := []string{}
			for _, it := range page.Items {
				names = append(names, it.Name)
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}

	img, err := env.shopItems.AttachImage(ctx, 1, ImageRequest{ImageID: "img-9"})
	if err != nil {
		t.Fatalf("attach image: %v", err)
	}
	if img.ImageID == nil || *img.ImageID != "img-9" {
		t.Errorf("expected image img-9, got %v", img.ImageID)
	}
}
