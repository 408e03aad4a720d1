package genres

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
)

// staticLookup resolves genres from a fixed table keyed by artist ID and counts calls.
type staticLookup struct {
	genres map[string][]string
	err    error
	calls  int
}

func (s *staticLookup) ArtistGenres(_ context.Context, artist spotify.Artist) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.genres[artist.ID], nil
}

func track(id, name string, artistIDs ...string) spotify.Track {
	t := spotify.Track{ID: id, Name: name}
	for _, a := range artistIDs {
		t.Artists = append(t.Artists, spotify.Artist{ID: a, Name: "Artist " + a})
	}
	return t
}

func TestClassify(t *testing.T) {
	lookup := &staticLookup{genres: map[string][]string{
		"a1": {"rock", "indie"},
		"a2": {"jazz"},
		"a3": {},
		"a4": {"indie"},
	}}

	tracks := []spotify.Track{
		track("t1", "One", "a1"),
		track("t2", "Two", "a2", "a1"), // only the first artist counts
		track("t3", "Three", "a3"),
		track("t4", "Four"),
		track("t5", "Five", "a4"),
	}

	tests := []struct {
		name string
		key  KeyFunc
		want map[string][]string
	}{
		{
			name: "by id",
			key:  ByID,
			want: map[string][]string{
				"rock":  {"t1"},
				"indie": {"t1", "t5"},
				"jazz":  {"t2"},
			},
		},
		{
			name: "by name",
			key:  ByName,
			want: map[string][]string{
				"rock":  {"One"},
				"indie": {"One", "Five"},
				"jazz":  {"Two"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Classify(context.Background(), tracks, lookup, tt.key)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}

			if got, want := m.Genres(), []string{"rock", "indie", "jazz"}; !slices.Equal(got, want) {
				t.Errorf("Genres() = %v, want %v", got, want)
			}
			for genre, want := range tt.want {
				if got := m.Values(genre); !slices.Equal(got, want) {
					t.Errorf("Values(%q) = %v, want %v", genre, got, want)
				}
			}
		})
	}
}

func TestClassify_NoTagsNoEntry(t *testing.T) {
	lookup := &staticLookup{genres: map[string][]string{}}

	m, err := Classify(context.Background(), []spotify.Track{track("t1", "One", "a1")}, lookup, ByID)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestClassify_EveryKeyTracesToTrack(t *testing.T) {
	lookup := &staticLookup{genres: map[string][]string{
		"a1": {"x", "y"},
		"a2": {"y", "z"},
	}}
	tracks := []spotify.Track{
		track("t1", "One", "a1"),
		track("t2", "Two", "a2"),
		track("t3", "Three", "a3"),
	}

	m, err := Classify(context.Background(), tracks, lookup, ByID)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	byID := make(map[string]spotify.Track)
	for _, tr := range tracks {
		byID[tr.ID] = tr
	}
	for _, genre := range m.Genres() {
		ids := m.Values(genre)
		if len(ids) == 0 {
			t.Errorf("genre %q has no tracks", genre)
		}
		for _, id := range ids {
			primary, _ := byID[id].PrimaryArtist()
			if !slices.Contains(lookup.genres[primary.ID], genre) {
				t.Errorf("track %s in %q but artist %s has %v", id, genre, primary.ID, lookup.genres[primary.ID])
			}
		}
	}
}

func TestClassify_LookupErrorAborts(t *testing.T) {
	errBoom := errors.New("boom")
	lookup := &staticLookup{err: errBoom}

	tracks := []spotify.Track{track("t1", "One", "a1"), track("t2", "Two", "a2")}
	m, err := Classify(context.Background(), tracks, lookup, ByID)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Classify() error = %v, want %v", err, errBoom)
	}
	if m != nil {
		t.Errorf("Classify() map = %v, want nil", m)
	}
	if lookup.calls != 1 {
		t.Errorf("lookup calls = %d, want 1", lookup.calls)
	}
}

func TestClassify_OneLookupPerTrack(t *testing.T) {
	lookup := &staticLookup{genres: map[string][]string{"a1": {"rock"}}}
	tracks := []spotify.Track{
		track("t1", "One", "a1"),
		track("t2", "Two", "a1"),
		track("t3", "Three", "a1"),
	}

	if _, err := Classify(context.Background(), tracks, lookup, ByID); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if lookup.calls != 3 {
		t.Errorf("lookup calls = %d, want 3", lookup.calls)
	}
}
