package catalog

import (
	"testing"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

func TestNormalizeGenre(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Sci-Fi", "Sci_Fi"},
		{"Award Winning", "Award_Winning"},
		{" Action ", "Action"},
		{"Slice of Life", "Slice_of_Life"},
		{"Comedy,", "Comedy"},
	}
	for _, c := range cases {
		if got := NormalizeGenre(c.in); got != c.want {
			t.Errorf("NormalizeGenre(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSplitGenres(t *testing.T) {
	got := SplitGenres("Action, Sci-Fi, Award Winning")
	want := []string{"Action", "Sci_Fi", "Award_Winning"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if tokens := SplitGenres("  "); tokens != nil {
		t.Errorf("expected nil for blank column, got %v", tokens)
	}
}

func TestCatalogLookup(t *testing.T) {
	c := New([]domain.Anime{
		{ID: 1, Name: "Naruto"},
		{ID: 20, Name: "One Piece"},
	})

	if !c.Contains(20) {
		t.Error("expected catalog to contain id 20")
	}
	if c.Contains(999) {
		t.Error("did not expect catalog to contain id 999")
	}

	a, ok := c.Get(1)
	if !ok || a.Name != "Naruto" {
		t.Errorf("Get(1) = %v, %v", a, ok)
	}

	if c.Len() != 2 {
		t.Errorf("expected len 2, got %d", c.Len())
	}
}
