package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/justestif/go-spotify-genre-organizer/internal/db"
	"github.com/justestif/go-spotify-genre-organizer/internal/genres"
	"github.com/justestif/go-spotify-genre-organizer/internal/organizer"
	"github.com/justestif/go-spotify-genre-organizer/internal/playlists"
)

const stateCookieName = "oauth_state"

// ErrHistoryUnavailable is returned by the history endpoint when no database is configured.
var ErrHistoryUnavailable = errors.New("publication history requires DATABASE_URL")

// HistoryStore lists recorded publications.
type HistoryStore interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]db.Publication, error)
}

// Handlers contains the HTTP handlers.
type Handlers struct {
	auth      *spotifyauth.Authenticator
	sessions  SessionManager
	clients   ClientResolver
	organizer *organizer.Organizer
	history   HistoryStore
	health    func(context.Context) error
	log       *logrus.Entry
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type classifyResponse struct {
	Genres *genres.Map `json:"genres"`
}

type createdPlaylist struct {
	Genre string `json:"genre"`
	URL   string `json:"url"`
}

type createResponse struct {
	Created []createdPlaylist `json:"created"`
}

type publicationPlaylist struct {
	Genre      string `json:"genre"`
	PlaylistID string `json:"playlist_id"`
	URL        string `json:"url"`
	TrackCount int    `json:"track_count"`
}

type publication struct {
	ID         string                `json:"id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Status     string                `json:"status"`
	Error      *string               `json:"error,omitempty"`
	Playlists  []publicationPlaylist `json:"playlists"`
}

type publicationsResponse struct {
	Publications []publication `json:"publications"`
}

// Root answers the liveness probe the original API exposed (GET /).
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "FastAPI is working!"})
}

// Healthz reports whether the server and its database are reachable (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClassifyLikedSongs groups the user's saved tracks by genre, listing track names
// (GET /classify-liked-songs).
func (h *Handlers) ClassifyLikedSongs(w http.ResponseWriter, r *http.Request) {
	client, release, err := h.clients.Resolve(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer release()

	m, err := h.organizer.Classify(r.Context(), client, genres.ByName)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{Genres: m})
}

// CreatePlaylistsByGenre creates one private playlist per genre of the user's saved tracks
// (POST /create-playlists-by-genre). Every call creates a fresh set of playlists.
func (h *Handlers) CreatePlaylistsByGenre(w http.ResponseWriter, r *http.Request) {
	client, release, err := h.clients.Resolve(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer release()

	created, err := h.organizer.Publish(r.Context(), client)
	if err != nil {
		var partial *playlists.PartialError
		if errors.As(err, &partial) && len(partial.Created) > 0 {
			h.log.WithField("created", len(partial.Created)).Warn("Publish failed after creating playlists")
		}
		h.fail(w, r, err)
		return
	}

	resp := createResponse{Created: make([]createdPlaylist, 0, len(created))}
	for _, c := range created {
		resp.Created = append(resp.Created, createdPlaylist{Genre: c.Genre, URL: c.URL})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Publications lists the caller's recorded publish runs (GET /publications).
func (h *Handlers) Publications(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.fail(w, r, ErrHistoryUnavailable)
		return
	}

	userID, err := h.userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	pubs, err := h.history.ListForUser(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := publicationsResponse{Publications: make([]publication, 0, len(pubs))}
	for _, p := range pubs {
		out := publication{
			ID:         p.ID.String(),
			StartedAt:  p.StartedAt,
			FinishedAt: p.FinishedAt,
			Status:     p.Status,
			Error:      p.Error,
			Playlists:  make([]publicationPlaylist, 0, len(p.Playlists)),
		}
		for _, pl := range p.Playlists {
			out.Playlists = append(out.Playlists, publicationPlaylist(pl))
		}
		resp.Publications = append(resp.Publications, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

// userID returns the session's user, or asks Spotify who the default client belongs to.
func (h *Handlers) userID(r *http.Request) (string, error) {
	if session := sessionFromRequest(h.sessions, r); session != nil {
		return session.UserID, nil
	}

	client, release, err := h.clients.Resolve(r)
	if err != nil {
		return "", err
	}
	defer release()

	return client.UserID(r.Context())
}

// Login starts the browser OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateOAuthState()
	if err != nil {
		h.fail(w, r, fmt.Errorf("generating state: %w", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the OAuth flow and opens a session (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "missing state cookie"})
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "state mismatch"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "spotify auth error: " + errMsg})
		return
	}

	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		h.fail(w, r, fmt.Errorf("exchanging code for token: %w", err))
		return
	}

	client := spotifyapi.New(h.auth.Client(r.Context(), token))
	user, err := client.CurrentUser(r.Context())
	if err != nil {
		h.fail(w, r, fmt.Errorf("getting user info: %w", err))
		return
	}

	session, err := h.sessions.Create(r.Context(), token, user.ID, user.DisplayName)
	if err != nil {
		h.fail(w, r, fmt.Errorf("creating session: %w", err))
		return
	}

	h.log.WithField("user_id", user.ID).Info("User logged in")
	setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the session (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := sessionFromRequest(h.sessions, r); session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fail logs err, reports it to Sentry and answers 500 with the error text as detail.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")

	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)

	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
