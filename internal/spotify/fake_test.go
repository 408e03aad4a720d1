package spotify

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zmb3/spotify/v2"
)

// fakeAPI is an in-process stand-in for the Spotify Web API.
type fakeAPI struct {
	totalTracks int
	genres      map[string][]string // artist ID -> genres
	failOffset  int                 // saved-tracks offset that returns 500, -1 for none
	failAddAt   int                 // 1-based add-tracks call that returns 500, 0 for none

	trackCalls  atomic.Int32
	artistCalls atomic.Int32
	addCalls    atomic.Int32
	imageCalls  atomic.Int32

	mu       sync.Mutex
	offsets  []int
	batches  [][]string // URIs per add-tracks call
	created  []map[string]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		genres:     make(map[string][]string),
		failOffset: -1,
	}
}

// client starts the fake server and returns a wrapper pointed at it.
func (f *fakeAPI) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)

	api := spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/"))
	return New(api, opts...)
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/me":
		writeJSON(w, http.StatusOK, map[string]any{"id": "user1", "display_name": "Test User"})

	case r.Method == http.MethodGet && path == "/me/tracks":
		f.trackCalls.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		f.mu.Lock()
		f.offsets = append(f.offsets, offset)
		f.mu.Unlock()
		if offset == f.failOffset {
			writeError(w, http.StatusInternalServerError, "boom")
			return
		}
		writeJSON(w, http.StatusOK, f.savedTracksPage(offset, limit))

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/artists/"):
		f.artistCalls.Add(1)
		id := strings.TrimPrefix(path, "/artists/")
		genres, ok := f.genres[id]
		if !ok {
			writeError(w, http.StatusNotFound, "non existing id")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "name": "Artist " + id, "genres": genres})

	case r.Method == http.MethodPost && strings.HasPrefix(path, "/users/"):
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body)
		n := len(f.created)
		f.mu.Unlock()
		id := fmt.Sprintf("pl%d", n)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":            id,
			"name":          body["name"],
			"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/" + id},
		})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/tracks"):
		call := f.addCalls.Add(1)
		var body struct {
			URIs []string `json:"uris"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.batches = append(f.batches, body.URIs)
		f.mu.Unlock()
		if int(call) == f.failAddAt {
			writeError(w, http.StatusInternalServerError, "boom")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"snapshot_id": "snap"})

	case r.Method == http.MethodPut && strings.HasSuffix(path, "/images"):
		f.imageCalls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusAccepted)

	default:
		writeError(w, http.StatusNotFound, "unexpected "+r.Method+" "+path)
	}
}

// savedTracksPage builds a page of synthetic tracks t<i> by artist a<i%3>.
func (f *fakeAPI) savedTracksPage(offset, limit int) map[string]any {
	items := []map[string]any{}
	for i := offset; i < offset+limit && i < f.totalTracks; i++ {
		items = append(items, map[string]any{
			"added_at": "2024-01-15T10:30:00Z",
			"track": map[string]any{
				"id":   fmt.Sprintf("t%d", i),
				"name": fmt.Sprintf("Track %d", i),
				"artists": []map[string]any{
					{"id": fmt.Sprintf("a%d", i%3), "name": fmt.Sprintf("Artist %d", i%3)},
				},
			},
		})
	}
	return map[string]any{
		"href":   "",
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  f.totalTracks,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": msg}})
}

func (f *fakeAPI) recordedOffsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.offsets)
}

func (f *fakeAPI) recordedBatches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.batches)
}

func (f *fakeAPI) recordedPlaylists() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.created)
}
