package organizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/justestif/go-spotify-genre-organizer/internal/genres"
	"github.com/justestif/go-spotify-genre-organizer/internal/playlists"
	"github.com/justestif/go-spotify-genre-organizer/internal/spotify"
)

// fakeClient is an in-memory Spotify account.
type fakeClient struct {
	tracks    []spotify.Track
	genres    map[string][]string
	tracksErr error
	artistErr error
	userErr   error

	artistCalls int
	playlists   []string
	uploads     map[string][]string
	covers      []string
}

func (f *fakeClient) SavedTracks(context.Context) ([]spotify.Track, error) {
	return f.tracks, f.tracksErr
}

func (f *fakeClient) ArtistGenres(_ context.Context, a spotify.Artist) ([]string, error) {
	f.artistCalls++
	if f.artistErr != nil {
		return nil, f.artistErr
	}
	return f.genres[a.ID], nil
}

func (f *fakeClient) UserID(context.Context) (string, error) {
	return "user1", f.userErr
}

func (f *fakeClient) CreatePlaylist(_ context.Context, userID, name, description string) (*spotify.Playlist, error) {
	f.playlists = append(f.playlists, name)
	id := fmt.Sprintf("pl%d", len(f.playlists))
	return &spotify.Playlist{ID: id, Name: name, URL: "https://open.spotify.com/playlist/" + id}, nil
}

func (f *fakeClient) AddTracksToPlaylist(_ context.Context, playlistID string, trackIDs []string) error {
	if f.uploads == nil {
		f.uploads = make(map[string][]string)
	}
	f.uploads[playlistID] = append(f.uploads[playlistID], trackIDs...)
	return nil
}

func (f *fakeClient) SetPlaylistCover(_ context.Context, playlistID string, _ io.Reader) error {
	f.covers = append(f.covers, playlistID)
	return nil
}

type staticTags map[string][]string

func (s staticTags) ArtistTags(_ context.Context, artist string) ([]string, error) {
	return s[artist], nil
}

type stubCovers struct{}

func (stubCovers) Generate(genre string) (io.Reader, error) {
	return strings.NewReader(genre), nil
}

func newFake() *fakeClient {
	return &fakeClient{
		tracks: []spotify.Track{
			{ID: "t1", Name: "One", Artists: []spotify.Artist{{ID: "a1", Name: "Alpha"}}},
			{ID: "t2", Name: "Two", Artists: []spotify.Artist{{ID: "a2", Name: "Beta"}}},
			{ID: "t3", Name: "Three", Artists: []spotify.Artist{{ID: "a1", Name: "Alpha"}}},
			{ID: "t4", Name: "Four", Artists: []spotify.Artist{{ID: "a3", Name: "Gamma"}}},
		},
		genres: map[string][]string{
			"a1": {"rock", "indie"},
			"a2": {"indie"},
		},
	}
}

func TestClassify_ByName(t *testing.T) {
	client := newFake()

	m, err := New().Classify(context.Background(), client, genres.ByName)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"rock":["One","Three"],"indie":["One","Two","Three"]}`; string(data) != want {
		t.Errorf("Classify() = %s, want %s", data, want)
	}

	// a1 is looked up once thanks to the request cache.
	if client.artistCalls != 3 {
		t.Errorf("artist lookups = %d, want 3", client.artistCalls)
	}
}

func TestClassify_Fallback(t *testing.T) {
	client := newFake()
	o := New(WithFallback(staticTags{"Gamma": {"Post-Rock"}}))

	m, err := o.Classify(context.Background(), client, genres.ByID)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got := m.Values("post-rock"); !slices.Equal(got, []string{"t4"}) {
		t.Errorf("Values(post-rock) = %v, want [t4]", got)
	}
}

func TestClassify_Errors(t *testing.T) {
	errBoom := errors.New("boom")
	tests := []struct {
		name   string
		mutate func(*fakeClient)
	}{
		{"tracks", func(f *fakeClient) { f.tracksErr = errBoom }},
		{"artist", func(f *fakeClient) { f.artistErr = errBoom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFake()
			tt.mutate(client)

			if _, err := New().Classify(context.Background(), client, genres.ByName); !errors.Is(err, errBoom) {
				t.Errorf("Classify() error = %v, want %v", err, errBoom)
			}
		})
	}
}

func TestPublish(t *testing.T) {
	client := newFake()

	created, err := New(WithCovers(stubCovers{})).Publish(context.Background(), client)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if want := []string{"rock", "indie"}; !slices.Equal(client.playlists, want) {
		t.Errorf("playlists = %v, want %v", client.playlists, want)
	}
	if got := client.uploads["pl2"]; !slices.Equal(got, []string{"t1", "t2", "t3"}) {
		t.Errorf("indie uploads = %v, want [t1 t2 t3]", got)
	}
	if len(created) != 2 || created[1].URL != "https://open.spotify.com/playlist/pl2" {
		t.Errorf("created = %+v", created)
	}
	if len(client.covers) != 2 {
		t.Errorf("covers uploaded = %d, want 2", len(client.covers))
	}
}

func TestPublish_UserError(t *testing.T) {
	client := newFake()
	client.userErr = errors.New("token expired")

	if _, err := New().Publish(context.Background(), client); err == nil {
		t.Fatal("Publish() error = nil, want error")
	}
	if len(client.playlists) != 0 {
		t.Errorf("created %d playlists before resolving the user", len(client.playlists))
	}
}

type memRecorder struct{ runs []*playlists.Run }

func (m *memRecorder) RecordRun(_ context.Context, run *playlists.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func TestPublish_Recorded(t *testing.T) {
	rec := &memRecorder{}

	if _, err := New(WithRecorder(rec)).Publish(context.Background(), newFake()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != playlists.StatusCompleted || len(rec.runs[0].Created) != 2 {
		t.Errorf("runs = %+v", rec.runs)
	}
}
