package store

import (
	"context"
	"errors"
	"testing"

	"walkcanvas/internal/events"
	"walkcanvas/internal/models"
)

const twoPoints = `[[37.5665,126.978],[37.5651,126.9895]]`

func strPtr(s string) *string { return &s }

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestAddRouteValidation(t *testing.T) {
	s, _ := newTestStore(t)

	tests := []struct {
		name    string
		in      NewRoute
		wantErr error
	}{
		{"missing owner", NewRoute{Name: "r", Path: raw(twoPoints)}, ErrBadRequest},
		{"missing name", NewRoute{OwnerID: "alice", Path: raw(twoPoints)}, ErrBadRequest},
		{"missing path", NewRoute{OwnerID: "alice", Name: "r"}, ErrBadRequest},
		{"empty path", NewRoute{OwnerID: "alice", Name: "r", Path: raw(`[]`)}, ErrBadRequest},
		{"path not a list", NewRoute{OwnerID: "alice", Name: "r", Path: raw(`{"lat":1}`)}, ErrInvalidFormat},
		{"path string not a list", NewRoute{OwnerID: "alice", Name: "r", Path: raw(`"hello"`)}, ErrInvalidFormat},
		{"tag object", NewRoute{OwnerID: "alice", Name: "r", Path: raw(twoPoints), Region: raw(`{"a":1}`)}, ErrInvalidFormat},
		{"bad category", NewRoute{OwnerID: "alice", Name: "r", Path: raw(twoPoints), Category: raw(`"park"`)}, ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddRoute(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddRoute err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddRouteStoresPathAndTags(t *testing.T) {
	s, rec := newTestStore(t)

	tests := []struct {
		name string
		in   NewRoute
		want models.Tags
	}{
		{
			name: "string tags",
			in:   NewRoute{Region: raw(`"11"`), RoadType: raw(`"2"`), Transport: raw(`"1"`)},
			want: models.Tags{Region: strPtr("11"), RoadType: strPtr("2"), Transport: strPtr("1")},
		},
		{
			name: "numeric tags",
			in:   NewRoute{Region: raw(`11`), Transport: raw(`3`)},
			want: models.Tags{Region: strPtr("11"), Transport: strPtr("3")},
		},
		{
			name: "legacy category fills unset tags",
			in:   NewRoute{Region: raw(`"26"`), Category: raw(`"11,2,1"`)},
			want: models.Tags{Region: strPtr("26"), RoadType: strPtr("2"), Transport: strPtr("1")},
		},
		{
			name: "no tags",
			in:   NewRoute{},
			want: models.Tags{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.OwnerID, in.Name, in.Path = "alice", tt.name, raw(twoPoints)
			r := mustAddRoute(t, s, in)

			var stored models.Route
			if err := s.db.First(&stored, r.ID).Error; err != nil {
				t.Fatalf("reload: %v", err)
			}
			got := stored.Tags()
			if !equalPtr(got.Region, tt.want.Region) || !equalPtr(got.RoadType, tt.want.RoadType) || !equalPtr(got.Transport, tt.want.Transport) {
				t.Errorf("tags = %v/%v/%v, want %v/%v/%v",
					deref(got.Region), deref(got.RoadType), deref(got.Transport),
					deref(tt.want.Region), deref(tt.want.RoadType), deref(tt.want.Transport))
			}
			want, _ := models.ParsePath(raw(twoPoints))
			if !stored.DecodedPath().Equal(want) {
				t.Errorf("path = %s, want %s", stored.Path, twoPoints)
			}
		})
	}

	if got := rec.types(); len(got) != len(tests) || got[0] != events.RouteCreated {
		t.Errorf("events = %v", got)
	}
}

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestAddRouteAcceptsStringEncodedPath(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "wrapped", Path: raw(`"[[1.5,2.5],[3,4]]"`)})

	var stored models.Route
	if err := s.db.First(&stored, r.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := stored.DecodedPath(); len(got) != 2 || string(got[0]) != "[1.5,2.5]" {
		t.Errorf("path = %v", got)
	}
}

func TestRoutesForOwnerAnnotations(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustRegister(t, s, "alice", "pw1", "Al")
	mustRegister(t, s, "bob", "pw2", "Bo")
	r := mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "N", Path: raw(twoPoints)})

	if _, err := s.ToggleFavorite(ctx, "bob", r.ID); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}

	views, err := s.GetRoutesForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("GetRoutesForOwner: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len = %d, want 1", len(views))
	}
	v := views[0]
	if v.IsFavorite || v.FavoriteCount != 1 || v.Nickname != "Al" {
		t.Errorf("alice view = fav %v count %d nick %q, want false 1 Al", v.IsFavorite, v.FavoriteCount, v.Nickname)
	}

	favs, err := s.ListFavorites(ctx, "bob", Filters{})
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favs) != 1 || !favs[0].IsFavorite || favs[0].FavoriteCount != 1 || favs[0].Route.ID != r.ID {
		t.Errorf("bob favorites = %+v", favs)
	}

	if views, err := s.GetRoutesForOwner(ctx, "carol"); err != nil || len(views) != 0 {
		t.Errorf("GetRoutesForOwner(carol) = %v, %v; want empty", views, err)
	}
	if _, err := s.GetRoutesForOwner(ctx, ""); !errors.Is(err, ErrBadRequest) {
		t.Errorf("GetRoutesForOwner(\"\") err = %v, want ErrBadRequest", err)
	}
}

func TestMostRecentRoute(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetMostRecentRouteForOwner(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "first", Path: raw(twoPoints)})
	mustAddRoute(t, s, NewRoute{OwnerID: "bob", Name: "other", Path: raw(twoPoints)})
	last := mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "second", Path: raw(twoPoints)})

	v, err := s.GetMostRecentRouteForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("GetMostRecentRouteForOwner: %v", err)
	}
	if v.Route.ID != last.ID || v.Route.Name != "second" {
		t.Errorf("recent = %d %q, want %d second", v.Route.ID, v.Route.Name, last.ID)
	}
	// alice never registered, so the owner id stands in for the nickname.
	if v.Nickname != "alice" {
		t.Errorf("Nickname = %q, want alice", v.Nickname)
	}
}

func TestDeleteRouteRemovesFavorites(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()

	mustRegister(t, s, "bob", "pw", "Bo")
	r := mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "N", Path: raw(twoPoints)})
	if _, err := s.ToggleFavorite(ctx, "bob", r.ID); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}

	if err := s.DeleteRoute(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRoute: %v", err)
	}

	var n int64
	s.db.Model(&models.Favorite{}).Where("route_id = ?", r.ID).Count(&n)
	if n != 0 {
		t.Errorf("%d favorites left for deleted route", n)
	}
	if favs, err := s.ListFavorites(ctx, "bob", Filters{}); err != nil || len(favs) != 0 {
		t.Errorf("ListFavorites after delete = %v, %v", favs, err)
	}
	if err := s.DeleteRoute(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteRoute err = %v, want ErrNotFound", err)
	}

	got := rec.types()
	if got[len(got)-1] != events.RouteDeleted {
		t.Errorf("last event = %s, want %s", got[len(got)-1], events.RouteDeleted)
	}
}

func TestRandomRouteMatching(t *testing.T) {
	var asked int
	s, _ := newTestStore(t, WithPicker(func(n int) int {
		asked = n
		return n - 1
	}))
	ctx := context.Background()

	if _, err := s.RandomRouteMatching(ctx, Filters{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store err = %v, want ErrNotFound", err)
	}

	mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "a", Path: raw(twoPoints), Region: raw(`"11"`)})
	b := mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "b", Path: raw(twoPoints), Region: raw(`"11"`)})
	c := mustAddRoute(t, s, NewRoute{OwnerID: "alice", Name: "c", Path: raw(twoPoints), Region: raw(`"26"`)})

	v, err := s.RandomRouteMatching(ctx, Filters{})
	if err != nil {
		t.Fatalf("RandomRouteMatching: %v", err)
	}
	if asked != 3 || v.Route.ID != c.ID {
		t.Errorf("picked %d of %d, want route %d of 3", v.Route.ID, asked, c.ID)
	}

	v, err = s.RandomRouteMatching(ctx, Filters{Regions: []string{"11"}})
	if err != nil {
		t.Fatalf("RandomRouteMatching(region 11): %v", err)
	}
	if asked != 2 || v.Route.ID != b.ID {
		t.Errorf("picked %d of %d, want route %d of 2", v.Route.ID, asked, b.ID)
	}

	if _, err := s.RandomRouteMatching(ctx, Filters{Regions: []string{"99"}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("no match err = %v, want ErrNotFound", err)
	}
}
