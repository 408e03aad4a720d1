package spotify

import (
	"context"
	"slices"
	"testing"
)

func TestArtistGenres(t *testing.T) {
	api := newFakeAPI()
	api.genres["a1"] = []string{"pop", "dance"}
	api.genres["a2"] = []string{}
	client := api.client(t)

	tests := []struct {
		name    string
		id      string
		want    []string
		wantErr bool
	}{
		{"artist with genres", "a1", []string{"pop", "dance"}, false},
		{"artist without genres", "a2", []string{}, false},
		{"unknown artist", "missing", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ArtistGenres(context.Background(), Artist{ID: tt.id})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ArtistGenres() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got == nil {
				t.Fatal("ArtistGenres() returned nil slice, want empty")
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ArtistGenres() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArtistGenres_NoMemoization(t *testing.T) {
	api := newFakeAPI()
	api.genres["a1"] = []string{"rock"}
	client := api.client(t)

	for i := 0; i < 3; i++ {
		if _, err := client.ArtistGenres(context.Background(), Artist{ID: "a1"}); err != nil {
			t.Fatalf("ArtistGenres() error = %v", err)
		}
	}

	if api.artistCalls.Load() != 3 {
		t.Errorf("got %d artist calls, want 3", api.artistCalls.Load())
	}
}

func TestCurrentUser(t *testing.T) {
	client := newFakeAPI().client(t)

	id, err := client.UserID(context.Background())
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if id != "user1" {
		t.Errorf("UserID() = %q, want user1", id)
	}
}
