package spotify

// User is the authenticated Spotify account.
type User struct {
	ID          string
	DisplayName string
}

// Artist is an artist credited on a track.
type Artist struct {
	ID   string
	Name string
}

// ArtistInfo is an artist together with the genre tags Spotify associates with it.
type ArtistInfo struct {
	ID     string
	Name   string
	Genres []string // may be empty
}

// Track is a saved track from the user's library.
type Track struct {
	ID      string
	Name    string
	Artists []Artist // in credit order; the first is the primary artist
}

// PrimaryArtist returns the first credited artist.
func (t Track) PrimaryArtist() (Artist, bool) {
	if len(t.Artists) == 0 {
		return Artist{}, false
	}
	return t.Artists[0], true
}

// Playlist is a playlist created on the user's account.
type Playlist struct {
	ID   string
	Name string
	URL  string // open.spotify.com link
}
